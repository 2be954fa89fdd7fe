package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rahulwaghole14/fitnessapp-backend/internal/config"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/domain"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/logging"
	persistence "github.com/rahulwaghole14/fitnessapp-backend/internal/persistence/postgres"
)

type globals struct {
	postgresURL string
	jsonOutput  bool
}

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config) *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:           "rollupctl",
		Short:         "Operate the activity rollup store",
		Long:          "rollupctl records daily activity and inspects the daily, monthly, yearly and weekly views directly against Postgres.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&g.postgresURL, "postgres-url", cfg.PostgresURL, "Postgres connection string")
	rootCmd.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(migrateCmd(g))
	rootCmd.AddCommand(recordCmd(g, cfg))
	rootCmd.AddCommand(dailyCmd(g))
	rootCmd.AddCommand(monthlyCmd(g))
	rootCmd.AddCommand(yearlyCmd(g))
	rootCmd.AddCommand(weeklyCmd(g))
	return rootCmd
}

func connect(ctx context.Context, g *globals) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, g.postgresURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func withService(cmd *cobra.Command, g *globals, logger *zap.Logger, fn func(*domain.Service) error) error {
	pool, err := connect(cmd.Context(), g)
	if err != nil {
		return err
	}
	defer pool.Close()

	if logger == nil {
		logger = zap.NewNop()
	}
	return fn(domain.NewService(persistence.NewRepository(pool), domain.WithLogger(logger)))
}

func migrateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connect(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer pool.Close()

			results, err := persistence.Migrate(cmd.Context(), pool)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s (%s)\n", r.Source.Path, r.Duration)
			}
			return nil
		},
	}
}

func recordCmd(g *globals, cfg config.Config) *cobra.Command {
	var (
		userID  int64
		date    string
		steps   int64
		dist    float64
		cals    float64
		minutes float64
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record one day of activity and run any rollups it triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := time.Parse(domain.DateLayout, date)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}

			in := domain.RecordDayInput{
				UserID:        userID,
				Date:          day,
				Steps:         steps,
				DistanceKM:    dist,
				Calories:      cals,
				ActiveMinutes: minutes,
			}
			// Reject bad input before dialing Postgres.
			if err := in.Validate(time.Now().UTC()); err != nil {
				return err
			}

			logger, err := logging.New(cfg.LogLevel, "console")
			if err != nil {
				return err
			}
			defer logger.Sync()

			return withService(cmd, g, logger, func(svc *domain.Service) error {
				result, err := svc.RecordDay(cmd.Context(), in)
				if err != nil {
					return err
				}
				if g.jsonOutput {
					return printJSON(cmd.OutOrStdout(), result)
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.Message())
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id")
	cmd.Flags().StringVar(&date, "date", time.Now().UTC().Format(domain.DateLayout), "Activity date (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&steps, "steps", 0, "Steps walked")
	cmd.Flags().Float64Var(&dist, "distance-km", 0, "Distance in kilometres")
	cmd.Flags().Float64Var(&cals, "calories", 0, "Calories burned")
	cmd.Flags().Float64Var(&minutes, "active-minutes", 0, "Active minutes")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func userArg(args []string) (int64, error) {
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("user id must be a positive integer, got %q", args[0])
	}
	return userID, nil
}

func dailyCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "daily <user-id>",
		Short: "List daily records, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userArg(args)
			if err != nil {
				return err
			}
			return withService(cmd, g, nil, func(svc *domain.Service) error {
				records, err := svc.ListDailyRecords(cmd.Context(), userID)
				if err != nil {
					return err
				}
				if g.jsonOutput {
					return printJSON(cmd.OutOrStdout(), records)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DATE\tSTEPS\tDISTANCE_KM\tCALORIES\tACTIVE_MIN")
				for _, r := range records {
					fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.1f\t%.1f\n", r.Date.Format(domain.DateLayout), r.Steps, r.DistanceKM, r.Calories, r.ActiveMinutes)
				}
				return tw.Flush()
			})
		},
	}
}

func monthlyCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "monthly <user-id>",
		Short: "List monthly summaries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userArg(args)
			if err != nil {
				return err
			}
			return withService(cmd, g, nil, func(svc *domain.Service) error {
				records, err := svc.ListMonthlyRecords(cmd.Context(), userID)
				if err != nil {
					return err
				}
				if g.jsonOutput {
					return printJSON(cmd.OutOrStdout(), records)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "MONTH\tSTEPS\tDISTANCE_KM\tCALORIES\tACTIVE_MIN")
				for _, r := range records {
					writeTotals(tw, r.Key().String(), r.Totals)
				}
				return tw.Flush()
			})
		},
	}
}

func yearlyCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "yearly <user-id>",
		Short: "List yearly summaries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userArg(args)
			if err != nil {
				return err
			}
			return withService(cmd, g, nil, func(svc *domain.Service) error {
				records, err := svc.ListYearlyRecords(cmd.Context(), userID)
				if err != nil {
					return err
				}
				if g.jsonOutput {
					return printJSON(cmd.OutOrStdout(), records)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "YEAR\tSTEPS\tDISTANCE_KM\tCALORIES\tACTIVE_MIN")
				for _, r := range records {
					writeTotals(tw, strconv.Itoa(r.Year), r.Totals)
				}
				return tw.Flush()
			})
		},
	}
}

func weeklyCmd(g *globals) *cobra.Command {
	var (
		userID int64
		year   int
		month  int
	)

	now := time.Now().UTC()
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Show the four-window weekly report for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, g, nil, func(svc *domain.Service) error {
				buckets, err := svc.WeeklyReport(cmd.Context(), userID, year, month)
				if err != nil {
					return err
				}
				if g.jsonOutput {
					return printJSON(cmd.OutOrStdout(), buckets)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "WEEK\tSTEPS\tDISTANCE_KM\tCALORIES\tACTIVE_MIN")
				for _, b := range buckets {
					label := fmt.Sprintf("%d (%s..%s)", b.WeekNumber, b.StartDate.Format("01-02"), b.EndDate.Format("01-02"))
					writeTotals(tw, label, b.Totals)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id")
	cmd.Flags().IntVar(&year, "year", now.Year(), "Year")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "Month (1-12)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func writeTotals(w io.Writer, label string, t domain.Totals) {
	fmt.Fprintf(w, "%s\t%d\t%.2f\t%.1f\t%.1f\n", label, t.Steps, t.DistanceKM, t.Calories, t.ActiveMinutes)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
