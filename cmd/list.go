package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"serial-maze/pkg/serial"
)

var (
	listDetails bool
	listFormat  string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all available serial ports on the system.

These are the ports the console offers in its port selector. On different
platforms:
  - Windows: Lists COM ports
  - Linux: Lists /dev/tty* devices
  - macOS: Lists /dev/cu.* and /dev/tty.* devices`,
	Aliases: []string{"ls", "ports"},
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listDetails, "details", "d", false, "show detailed port information")
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, csv, json)")
}

func runList(cmd *cobra.Command, args []string) error {
	portInfos, err := serial.GetDetailedPortsList()
	if err != nil {
		return fmt.Errorf("error listing ports: %w", err)
	}
	return printPorts(cmd.OutOrStdout(), portInfos, listFormat, listDetails)
}

func printPorts(w io.Writer, portInfos []serial.PortInfo, format string, details bool) error {
	switch format {
	case "table":
		printPortsTable(w, portInfos, details)
	case "csv":
		return printPortsCSV(w, portInfos, details)
	case "json":
		return printPortsJSON(w, portInfos, details)
	default:
		return fmt.Errorf("unknown format: %s (use table, csv or json)", format)
	}
	return nil
}

func printPortsTable(w io.Writer, portInfos []serial.PortInfo, details bool) {
	if len(portInfos) == 0 {
		fmt.Fprintln(w, "No serial ports found.")
		return
	}

	fmt.Fprintf(w, "Found %d serial port(s):\n", len(portInfos))

	if !details {
		for _, portInfo := range portInfos {
			fmt.Fprintf(w, "  %s\n", portInfo.Name)
		}
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  PORT\tUSB\tVID:PID\tPRODUCT\tSERIAL")
		for _, p := range portInfos {
			usb, ids := "no", "-"
			if p.IsUSB {
				usb = "yes"
				ids = p.VID + ":" + p.PID
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", p.Name, usb, ids, orDash(p.Product), orDash(p.SerialNumber))
		}
		tw.Flush()
	}

	fmt.Fprintln(w, "\nRun 'serial-maze' and pick a port with Up/Down, then press Enter to open it.")
}

func printPortsCSV(w io.Writer, portInfos []serial.PortInfo, details bool) error {
	cw := csv.NewWriter(w)

	if !details {
		cw.Write([]string{"port"})
		for _, p := range portInfos {
			cw.Write([]string{p.Name})
		}
	} else {
		cw.Write([]string{"port", "is_usb", "vid", "pid", "product", "serial_number"})
		for _, p := range portInfos {
			cw.Write([]string{p.Name, strconv.FormatBool(p.IsUSB), p.VID, p.PID, p.Product, p.SerialNumber})
		}
	}

	cw.Flush()
	return cw.Error()
}

func printPortsJSON(w io.Writer, portInfos []serial.PortInfo, details bool) error {
	var v any = portInfos
	if !details {
		names := make([]string, 0, len(portInfos))
		for _, p := range portInfos {
			names = append(names, p.Name)
		}
		v = names
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
