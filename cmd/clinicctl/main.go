package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/service/commission"
	"github.com/jwalitptl/clinic-api/internal/service/settings"
	"github.com/jwalitptl/clinic-api/internal/service/user"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "clinicctl",
		Short:        "Clinic API administration",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(commissionCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(eventsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect loads the configuration and opens the database.
func connect() (*config.Config, *sqlx.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			count, err := postgres.NewMigrator(db, postgres.Migrations()).Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			statuses, err := postgres.NewMigrator(db, postgres.Migrations()).Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	cmd.AddCommand(statusCmd)

	return cmd
}

func commissionService(cfg *config.Config, db *sqlx.DB) *commission.Service {
	store := postgres.NewStore(db)
	sp := settings.NewService(store.Settings(), cfg.DefaultSettings(), cfg.Settings.CacheTTL)
	return commission.NewService(store, sp, validator.New(), nil)
}

func commissionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commission",
		Short: "Doctor commission reports",
	}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print the commission report of a month as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			rawMonth, _ := cmd.Flags().GetString("month")
			rawDoctors, _ := cmd.Flags().GetStringSlice("doctor")

			month, err := model.ParseMonth(rawMonth)
			if err != nil {
				return fmt.Errorf("--month: %w", err)
			}
			doctorIDs := make([]uuid.UUID, 0, len(rawDoctors))
			for _, raw := range rawDoctors {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("--doctor %q: %w", raw, err)
				}
				doctorIDs = append(doctorIDs, id)
			}

			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := commissionService(cfg, db).Report(cmd.Context(), month, doctorIDs)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
	reportCmd.Flags().String("month", "", "Month in YYYY-MM format")
	reportCmd.Flags().StringSlice("doctor", nil, "Restrict the report to these doctor IDs")
	_ = reportCmd.MarkFlagRequired("month")
	cmd.AddCommand(reportCmd)

	closeCmd := &cobra.Command{
		Use:   "close",
		Short: "Close the payroll of a month and publish the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			rawMonth, _ := cmd.Flags().GetString("month")
			month, err := model.ParseMonth(rawMonth)
			if err != nil {
				return fmt.Errorf("--month: %w", err)
			}

			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := commissionService(cfg, db).CloseMonth(cmd.Context(), month)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
	closeCmd.Flags().String("month", "", "Month in YYYY-MM format")
	_ = closeCmd.MarkFlagRequired("month")
	cmd.AddCommand(closeCmd)

	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createAdminCmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			password := os.Getenv("CLINIC_ADMIN_PASSWORD")
			if password == "" {
				return fmt.Errorf("CLINIC_ADMIN_PASSWORD must be set")
			}

			_, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := user.NewService(postgres.NewStore(db), security.NewBcryptHasher(bcrypt.DefaultCost), validator.New())
			u, err := svc.CreateUser(cmd.Context(), &model.CreateUserRequest{
				Email:    email,
				Name:     name,
				Password: password,
				Role:     string(model.RoleKindAdmin),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created admin %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	createAdminCmd.Flags().String("email", "", "Login email")
	createAdminCmd.Flags().String("name", "Administrator", "Display name")
	_ = createAdminCmd.MarkFlagRequired("email")
	cmd.AddCommand(createAdminCmd)

	return cmd
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect published domain events",
	}

	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Print events from the broker until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger.Setup(cfg.Log.Level, cfg.Log.Format)

			channel, _ := cmd.Flags().GetString("channel")
			if channel == "" {
				channel = cfg.Redis.Channel
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			broker, err := redis.NewRedisBroker(ctx, cfg.ToBrokerConfig(), log.Logger)
			if err != nil {
				return err
			}
			defer broker.Close()

			err = messaging.Consume(ctx, broker, channel, func(msg *messaging.Message) error {
				return printJSON(msg)
			})
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	tailCmd.Flags().String("channel", "", "Channel to subscribe to (defaults to redis.channel)")
	cmd.AddCommand(tailCmd)

	return cmd
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
