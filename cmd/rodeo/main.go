package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	rodeo "github.com/rodeo-sec/rodeo-go"
	"github.com/rodeo-sec/rodeo-go/internal/config"
	"github.com/rodeo-sec/rodeo-go/pkg/notify"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// configDir holds the --config flag value.
var configDir string

func main() {
	rootCmd := &cobra.Command{
		Use:   "rodeo",
		Short: "Command-line client for the RODEO security operations platform",
		Long: `rodeo talks to a RODEO deployment from the terminal.

Sessions persist between invocations, so one login covers
subsequent commands until the platform expires the session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config", "",
		"Config directory (default: $XDG_CONFIG_HOME/rodeo)")

	rootCmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		intelCmd(),
		samplesCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// resolveConfigDir picks the config directory: flag, then the user
// config dir.
func resolveConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "rodeo"), nil
}

// newClient assembles an SDK client from the on-disk configuration.
func newClient() (*rodeo.Client, *config.Config, error) {
	dir, err := resolveConfigDir()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, nil, err
	}
	if cfg.StatePath == "" {
		cfg.StatePath = filepath.Join(dir, "state.json")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	client, err := rodeo.New(rodeo.Config{
		BaseURL:     cfg.BaseURL,
		Environment: rodeo.Environment(cfg.Environment),
		StatePath:   cfg.StatePath,
		Timeout:     cfg.Timeout(),
		Notifier:    terminalNotifier(),
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// terminalNotifier renders classifier notices on stderr.
func terminalNotifier() notify.Notifier {
	return notify.Func(func(n notify.Notice) {
		prefix := "\033[33m⚠\033[0m"
		if n.Level == notify.LevelError {
			prefix = "\033[31m✗\033[0m"
		}
		if n.Title != "" {
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", prefix, n.Title, n.Message)
			return
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", prefix, n.Message)
	})
}
