package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"example.com/medfleet/services/lorry/internal/model"
)

var (
	autoAssignDate  string
	autoAssignAdmin string
)

// autoAssignCmd represents the autoassign command
var autoAssignCmd = &cobra.Command{
	Use:   "autoassign",
	Short: "Run driver auto-assignment for a day",
	Long: `Pairs every scheduled driver with a free lorry for the given business
day. Safe to re-run: existing assignments are reported and left alone.`,
	Run: func(cmd *cobra.Command, args []string) {
		date := time.Now()
		if autoAssignDate != "" {
			var err error
			date, err = model.ParseBusinessDate(autoAssignDate)
			if err != nil {
				log.Fatalf("Invalid --date %q, expected YYYY-MM-DD", autoAssignDate)
			}
		}

		d, err := buildDeps(log)
		if err != nil {
			log.Fatalf("Failed to initialize service: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		defer d.close(ctx)

		results, err := d.services.Assignments.AutoAssign(ctx, date, autoAssignAdmin)
		if err != nil {
			log.Fatalf("Auto-assignment failed: %v", err)
		}

		for _, r := range results {
			if r.Assigned {
				log.Infof("%s (%s) -> %s", r.DriverName, r.DriverID, r.LorryCode)
			} else {
				log.Warnf("%s (%s) not assigned: %s", r.DriverName, r.DriverID, r.Reason)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(autoAssignCmd)

	autoAssignCmd.Flags().StringVar(&autoAssignDate, "date", "", "business date to assign (YYYY-MM-DD, default today)")
	autoAssignCmd.Flags().StringVar(&autoAssignAdmin, "admin", "cli", "actor recorded on created assignments")
}
