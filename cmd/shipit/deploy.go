package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ruffel/shipit"
	"github.com/ruffel/shipit/config"
	"github.com/ruffel/shipit/deploy"
	"github.com/spf13/cobra"
)

type deployFlags struct {
	configFile string
	envFile    string
	verbose    bool
	logFile    string
	logFormat  string
	transport  string
	runDir     string
}

func newDeployCmd() *cobra.Command {
	var f deployFlags

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the application to the configured server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeploy(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.configFile, "config", "", "Settings file (default shipit.yaml when present)")
	cmd.Flags().StringVar(&f.envFile, "env-file", "", "Env file for local runs (default .env when present)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Display detailed output during deployment")
	cmd.Flags().StringVar(&f.logFile, "log-file", filepath.Join(".shipit", "deploy.log"), "Append the deployment log to this file (empty to disable)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format: text or json")
	cmd.Flags().StringVar(&f.transport, "transport", "", "Override the transport: openssh or native")
	cmd.Flags().StringVar(&f.runDir, "run-dir", "", "Parent directory for the per-run SSH material (default system temp dir)")

	return cmd
}

func runDeploy(cmd *cobra.Command, f deployFlags) error {
	out := cmd.OutOrStdout()

	logger, closeLog, err := openLog(f.logFile, f.logFormat)
	if err != nil {
		return err
	}

	defer closeLog()

	var opts []config.Option
	if f.configFile != "" {
		opts = append(opts, config.WithSettingsFile(f.configFile))
	}

	if f.envFile != "" {
		opts = append(opts, config.WithEnvFile(f.envFile))
	}

	resolver := config.NewResolver(opts...)
	provider := resolver.Provider()

	if f.envFile != "" && resolver.IsCI() {
		logger.Warn("env file ignored in CI", "path", f.envFile)
		fmt.Fprintln(out, warnStyle.Render("! --env-file is ignored in CI; set the DO_* variables as CI secrets instead"))
	}

	cfg, err := provider.Load()
	if err != nil {
		return fmt.Errorf("cannot load %s configuration: %w", provider.Name(), err)
	}

	if f.transport != "" {
		cfg = cfg.With(func(s *config.Settings) { s.Transport = config.Transport(f.transport) })
	}

	fmt.Fprintln(out, titleStyle.Render("🚀 Starting deployment"))

	deployOpts := []deploy.Option{deploy.WithLogger(logger), deploy.WithRunDir(f.runDir)}
	if f.verbose {
		fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Using %s configuration, %s transport", provider.Name(), cfg.Transport())))

		deployOpts = append(deployOpts, deploy.WithObserver(func(line string) {
			fmt.Fprintln(out, renderProgress(line))
		}))
	}

	outcome := deploy.Run(cmd.Context(), cfg, deployOpts...)

	fmt.Fprintln(out)

	if outcome.Succeeded {
		fmt.Fprintln(out, checkStyle.Render(fmt.Sprintf("✅ Deployment completed successfully (took %s)", outcome.Duration.Round(time.Millisecond))))

		return nil
	}

	fmt.Fprintln(out, errorStyle.Render("✗ Deployment failed: "+outcome.Message))

	if f.verbose {
		fmt.Fprintln(out)
		fmt.Fprintln(out, shipit.Diagnostic(outcome.Err))
	} else {
		fmt.Fprintln(out, warnStyle.Render("Run with --verbose to see detailed output: shipit deploy --verbose"))
	}

	if f.logFile != "" {
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("run %s logged to %s", outcome.RunID, f.logFile)))
	}

	return errDeployFailed
}

// openLog opens the append-only deployment log. An empty path discards records.
func openLog(path, format string) (*slog.Logger, func(), error) {
	if format != "text" && format != "json" {
		return nil, nil, fmt.Errorf("unknown log format %q", format)
	}

	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("cannot create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file: %w", err)
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(file, nil)
	} else {
		handler = slog.NewTextHandler(file, nil)
	}

	return slog.New(handler), func() { _ = file.Close() }, nil
}
