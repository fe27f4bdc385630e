package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/yungbote/cdk-backend/internal/app"
)

const programName = "cdk"

var configFile string

type configKey struct{}

func configFrom(cmd *cobra.Command) *app.Config {
	cfg, _ := cmd.Context().Value(configKey{}).(*app.Config)
	return cfg
}

// withApp builds the application for one command and tears it down after.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a, err := app.New(ctx, configFrom(cmd))
	if err != nil {
		return err
	}
	defer a.Close()
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		a.Log.Info(fmt.Sprintf(format, v...), "component", programName)
	})); err != nil {
		a.Log.Warn("automaxprocs failed", "error", err)
	}
	return fn(ctx, a)
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx)
			})
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Migrate(); err != nil {
					return err
				}
				a.Log.Info("Migrations complete")
				return nil
			})
		},
	}
}

func reconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Repair claimed counts and expire ended projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Reconcile(ctx)
				if err != nil {
					return err
				}
				a.Log.Info("Reconcile complete",
					"projects", report.Projects,
					"drifted", report.Drifted,
					"failed", report.Failed,
					"expired", report.Expired,
				)
				if report.Failed > 0 {
					return fmt.Errorf("%d project(s) failed to reconcile", report.Failed)
				}
				return nil
			})
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Content distribution and claim engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("CDK_CONFIG"), "path to config file")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(reconcileCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
