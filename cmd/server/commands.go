package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"

	"health-reminder-api/internal/grpcapi"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run the daily reminder batch once and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		a.runner().Run(ctx)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply or inspect the Postgres schema migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openPostgres(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		return st.Migrate(cmd.Context(), args[0], log)
	},
}

var (
	opsAddr    string
	opsTimeout time.Duration
	opsToken   string
	opsAsOf    string
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "Call the ops gRPC service of a running server",
}

var opsRunCmd = &cobra.Command{
	Use:   "run-reminders",
	Short: "Trigger the reminder batch and wait for it to finish",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := grpcapi.Dial(opsAddr, grpcapi.WithOpsKey(cfg.OpsAPIKey))
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), opsTimeout)
		defer cancel()
		if err := c.RunReminders(ctx); err != nil {
			return err
		}
		log.Info().Str("addr", opsAddr).Msg("reminder run finished")
		return nil
	},
}

var opsDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the dashboard for the user owning --token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var asOf time.Time
		if opsAsOf != "" {
			t, err := time.Parse(time.RFC3339, opsAsOf)
			if err != nil {
				return err
			}
			asOf = t
		}
		c, err := grpcapi.Dial(opsAddr, grpcapi.WithToken(opsToken))
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), opsTimeout)
		defer cancel()
		out, err := c.GetDashboard(ctx, asOf)
		if err != nil {
			return err
		}
		b, err := protojson.MarshalOptions{Multiline: true}.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	opsCmd.PersistentFlags().StringVar(&opsAddr, "addr", "localhost:50051", "ops gRPC address")
	opsCmd.PersistentFlags().DurationVar(&opsTimeout, "timeout", 5*time.Minute, "call timeout")
	opsDashboardCmd.Flags().StringVar(&opsToken, "token", "", "bearer token of the user")
	opsDashboardCmd.Flags().StringVar(&opsAsOf, "as-of", "", "RFC3339 instant, defaults to now")
	_ = opsDashboardCmd.MarkFlagRequired("token")
	opsCmd.AddCommand(opsRunCmd, opsDashboardCmd)
}
