package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/adriangreen/taskboard/internal/config"
	"github.com/adriangreen/taskboard/internal/logging"
	"github.com/adriangreen/taskboard/internal/taskapi"
	"github.com/adriangreen/taskboard/internal/ui"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taskboard",
		Short: "TaskBoard - a terminal todo list backed by a REST task service",
		Long: `TaskBoard is a terminal user interface for a remote todo list. It lets
you add, complete, rename and delete tasks kept by a REST task service,
filter them by completion and search them by title.`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	cmd.PersistentFlags().String("config", "", "Path to a config file (JSON or TOML)")
	cmd.PersistentFlags().String("log-file", "", "Write diagnostics to this file")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	cmd.Flags().String("base-url", "", "Task service base URL (default "+config.DefaultServiceURL+")")
	cmd.Flags().Bool("clear-state", false, "Forget the saved filter before starting")

	cmd.AddCommand(newMockServerCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// loadOptions collects the config overrides given on the command line.
func loadOptions(cmd *cobra.Command) config.LoadOptions {
	var opts config.LoadOptions
	opts.Path, _ = cmd.Flags().GetString("config")
	opts.LogFile, _ = cmd.Flags().GetString("log-file")
	opts.LogLevel, _ = cmd.Flags().GetString("log-level")
	if cmd.Flags().Lookup("base-url") != nil {
		opts.ServiceURL, _ = cmd.Flags().GetString("base-url")
	}
	return opts
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// runTUI starts the Bubble Tea TUI application
func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	configManager, err := config.NewConfigManager(loadOptions(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := configManager.GetConfig()

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = config.DefaultLogFile()
	}
	logger, err := logging.Open(logFile, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer logger.Close()
	configManager.SetLogger(logger.Logger)

	statePath := config.DefaultStatePath()
	if clearState, _ := cmd.Flags().GetBool("clear-state"); clearState {
		if err := os.Remove(statePath); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to clear state file: %v\n", err)
		}
	}

	if err := configManager.StartWatcher(ctx); err != nil {
		// Hot reload is optional.
		logger.Warn("config watcher not started", "err", err)
	}
	defer configManager.StopWatcher()

	client, err := taskapi.New(ctx, taskapi.Options{
		BaseURL:           cfg.ServiceURL,
		Token:             cfg.Token,
		Timeout:           cfg.RequestTimeout,
		ValidateResponses: cfg.ValidateResponses,
		Logger:            logger.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create task client: %w", err)
	}
	logger.Info("task service", "url", client.BaseURL(), "timeout", cfg.RequestTimeout)

	m := ui.NewModel(ui.Options{
		Context:       ctx,
		Service:       client,
		ConfigManager: configManager,
		Logger:        logger.Logger,
		StatePath:     statePath,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			logger.Info("interrupted")
			return nil
		}
		return fmt.Errorf("failed to run TUI (see %s): %w", logger.Path(), err)
	}
	return nil
}
