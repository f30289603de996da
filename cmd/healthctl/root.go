package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/database"
)

var (
	dbURL string
	pool  *pgxpool.Pool
)

var rootCmd = &cobra.Command{
	Use:   "healthctl",
	Short: "Operator console for the health tracking API",
	Long: `healthctl manages the health tracking database directly.

EXAMPLES:

  healthctl users list --role expert
  healthctl users set-role 12 expert
  healthctl users link 31 12
  healthctl exercises add --name "Jumping jacks" --duration 10 --calories 80
  healthctl otp purge
  healthctl seed --users 20

The database comes from --db-url or DB_URL (a .env file is read when present).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		if err := godotenv.Load(); err != nil {
			log.Debugln("no .env file found")
		}
		if dbURL == "" {
			dbURL = os.Getenv("DB_URL")
		}
		if dbURL == "" {
			return errors.New("database url is required: pass --db-url or set DB_URL")
		}

		var err error
		pool, err = database.Connect(cmd.Context(), dbURL, database.PoolParams{MaxConns: 4, MinConns: 1})
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if pool != nil {
			pool.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "postgres connection url (defaults to DB_URL)")
	log.SetLevel(log.WarnLevel)

	rootCmd.AddCommand(usersCmd, exercisesCmd, otpCmd, seedCmd)
}
