package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"serial-maze/pkg/maze"
)

var walkQuiet bool

// walkCmd runs the maze without a terminal UI
var walkCmd = &cobra.Command{
	Use:   "walk [tokens...]",
	Short: "Move the marker through the maze without opening a port",
	Long: `Apply direction tokens to the maze and print every step and the final
grid. Tokens are read from the arguments, or from standard input when no
arguments are given. Anything that is not up, down, left or right is ignored.

Example:
  serial-maze walk up down left right
  cat capture.log | serial-maze walk -q`,
	RunE: runWalk,
}

func init() {
	walkCmd.Flags().BoolVarP(&walkQuiet, "quiet", "q", false, "only print the final grid")
}

func runWalk(cmd *cobra.Command, args []string) error {
	m := maze.NewDefault()
	out := cmd.OutOrStdout()
	count := 0

	apply := func(text string) {
		for _, step := range m.Apply(text) {
			count++
			if !walkQuiet {
				writeStep(out, count, step)
			}
		}
	}

	if len(args) > 0 {
		apply(strings.Join(args, " "))
	} else {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			apply(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("error reading tokens: %w", err)
		}
	}

	if !walkQuiet && count > 0 {
		fmt.Fprintln(out)
	}
	fmt.Fprint(out, m.String())
	fmt.Fprintf(out, "marker at %s after %d token(s)\n", m.Marker(), count)
	return nil
}

func writeStep(w io.Writer, n int, step maze.Step) {
	result := "moved"
	if !step.Moved {
		result = "blocked"
	}
	fmt.Fprintf(w, "%3d  %-6s %s -> %s  %s\n", n, step.Direction, step.From, step.To, result)
}
