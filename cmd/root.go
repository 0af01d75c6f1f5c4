package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"serial-maze/pkg/app"
	"serial-maze/pkg/config"
	"serial-maze/pkg/history"
	"serial-maze/pkg/host"
	"serial-maze/pkg/serial"
)

var (
	// Root command flags
	verbose       bool
	configPath    string
	simulate      bool
	baudRate      int
	portInterval  time.Duration
	dataInterval  time.Duration
	logFile       string
	preferredPort string

	// Root command
	rootCmd = &cobra.Command{
		Use:   "serial-maze",
		Short: "A serial port console that walks a marker through a maze",
		Long: `Open a serial port and watch its output. Every "up", "down", "left" or
"right" received moves the marker one cell through the maze, unless a wall
is in the way.

Keys:
  Up/Down      select a port
  Enter, o     open or close the selected port
  PgUp/PgDn    scroll the output
  F1           show all shortcuts
  Ctrl+Q, Esc  quit`,
		Version:           "1.0.0",
		Args:              cobra.NoArgs,
		RunE:              runConsole,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $UserConfigDir/serial-maze/config.yml)")

	rootCmd.Flags().BoolVar(&simulate, "simulate", false, "use a simulated serial host instead of real ports")
	rootCmd.Flags().IntVarP(&baudRate, "baud", "b", 115200, "baud rate")
	rootCmd.Flags().DurationVar(&portInterval, "port-interval", 2*time.Second, "how often the port list is refreshed")
	rootCmd.Flags().DurationVar(&dataInterval, "data-interval", 2*time.Second, "how often the open port is read")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file")
	rootCmd.Flags().StringVarP(&preferredPort, "port", "p", "", "port to select once it is listed")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(walkCmd)
	rootCmd.AddCommand(configCmd)
}

// loadSettings reads the config file and applies the flags the user set
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	manager, err := config.NewFileConfigManager(configPath)
	if err != nil {
		return config.Settings{}, err
	}

	settings, err := manager.Load()
	if err != nil {
		return config.Settings{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("simulate") {
		settings.Simulate = simulate
	}
	if flags.Changed("baud") {
		settings.Serial.BaudRate = baudRate
	}
	if flags.Changed("port-interval") {
		settings.PortPollInterval = portInterval
	}
	if flags.Changed("data-interval") {
		settings.DataPollInterval = dataInterval
	}
	if flags.Changed("log-file") {
		settings.LogFile = logFile
	}
	if verbose {
		settings.LogLevel = "debug"
	}

	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

// setupLogging sends log output to the configured file; the screen belongs
// to the UI
func setupLogging(settings config.Settings) (io.Closer, error) {
	level, err := log.ParseLevel(settings.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		DisableColors: true,
	})

	if settings.LogFile == "" {
		log.SetOutput(io.Discard)
		return io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	return f, nil
}

// newHost returns the serial host selected by the settings
func newHost(settings config.Settings) (host.Host, error) {
	if settings.Simulate {
		return host.NewSimulatedHost(settings.SimulateScript), nil
	}
	return host.NewSerialHost(settings.Serial)
}

// appConfig maps the settings onto the application configuration
func appConfig(settings config.Settings) (app.AppConfig, error) {
	format, err := history.ParseFileFormat(settings.HistoryFormat)
	if err != nil {
		return app.AppConfig{}, err
	}

	cfg := app.DefaultAppConfig()
	cfg.PortPollInterval = settings.PortPollInterval
	cfg.DataPollInterval = settings.DataPollInterval
	cfg.ScrollbackBytes = settings.ScrollbackBytes
	cfg.SaveDir = settings.SaveDir
	cfg.HistoryFormat = format
	cfg.PreferredPort = preferredPort
	return cfg, nil
}

// runConsole is the main entry point for the console UI
func runConsole(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("stdout is not a terminal; use 'serial-maze walk' for headless runs")
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	closer, err := setupLogging(settings)
	if err != nil {
		return err
	}
	defer closer.Close()

	h, err := newHost(settings)
	if err != nil {
		return err
	}

	cfg, err := appConfig(settings)
	if err != nil {
		return err
	}

	if preferredPort != "" && !settings.Simulate && !serial.IsPortAvailable(preferredPort) {
		log.WithField("port", preferredPort).Warn("requested port is not listed yet")
	}

	log.WithFields(log.Fields{
		"simulate":      settings.Simulate,
		"baud":          settings.Serial.BaudRate,
		"port_interval": settings.PortPollInterval,
		"data_interval": settings.DataPollInterval,
	}).Info("starting console")

	if err := app.RunInteractive(h, cfg); err != nil {
		return fmt.Errorf("error running console: %w", err)
	}
	return nil
}
