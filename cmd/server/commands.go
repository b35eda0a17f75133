package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/maternal-vitals/internal/config"
	"github.com/iliyamo/maternal-vitals/internal/database"
	"github.com/iliyamo/maternal-vitals/internal/mqttbridge"
	"github.com/iliyamo/maternal-vitals/internal/queue"
	"github.com/iliyamo/maternal-vitals/internal/service"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := config.NewLogger(cfg)
			db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			n, err := database.Migrate(ctx, db)
			if err != nil {
				return err
			}
			log.Info().Int("applied", n).Msg("migrations complete")
			return nil
		},
	}
}

func createDoctorCmd() *cobra.Command {
	var in service.DoctorRegistration
	cmd := &cobra.Command{
		Use:   "create-doctor",
		Short: "Provision a doctor account",
		Long:  "Creates a doctor account and profile and prints the new DOC id.  The password may be given with --password or DOCTOR_PASSWORD.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Password == "" {
				in.Password = os.Getenv("DOCTOR_PASSWORD")
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			id, err := a.identity.RegisterDoctor(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "doctor first name (required)")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "doctor last name (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "doctor email (required)")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	return cmd
}

func alertAuditCmd() *cobra.Command {
	var logPath string
	cmd := &cobra.Command{
		Use:   "alert-audit",
		Short: "Consume raised alerts from RabbitMQ and append them to an audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.RabbitURL == "" {
				return fmt.Errorf("RABBITMQ_URL is required")
			}
			ctx, stop := signalContext()
			defer stop()
			c := &queue.AuditConsumer{URL: cfg.RabbitURL, LogPath: logPath, Log: config.NewLogger(cfg)}
			return c.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&logPath, "log-path", "logs/alerts.log", "audit log file")
	return cmd
}

func mqttBridgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mqtt-bridge",
		Short: "Ingest device frames published over MQTT",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signalContext()
			defer stop()
			return mqttbridge.New(config.LoadMQTTConfig(), a.ingestor, a.log).Run(ctx)
		},
	}
}
