package cmd

import (
	"github.com/spf13/cobra"

	"example.com/medfleet/services/lorry/config"
	"example.com/medfleet/services/lorry/internal/db"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Applies the database schema including the partial unique indexes on open assignments.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		gormDB, err := connectDB(&cfg.Database, log)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()

		log.Info("Running database migrations...")
		if err := db.Migrate(gormDB); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Info("Database migrations completed successfully")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
