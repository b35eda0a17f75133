package main // Entry point package

import (
	"context"   // cancellation for long-running subcommands
	"fmt"       // CLI output
	"os"        // exit codes and env
	"os/signal" // graceful shutdown on SIGINT/SIGTERM
	"syscall"   // signal numbers

	"github.com/spf13/cobra" // CLI framework
)

func main() {
	root := &cobra.Command{
		Use:           "vitals-server",
		Short:         "Maternal vitals monitoring service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(createDoctorCmd())
	root.AddCommand(alertAuditCmd())
	root.AddCommand(mqttBridgeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
