package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/medfleet/services/lorry/internal/model"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long: `Start the background worker that runs daily driver auto-assignment at
the configured time and closes stale assignments left open from prior days.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	d, err := buildDeps(log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		d.close(closeCtx)
	}()

	if !d.cfg.Worker.Enabled {
		log.Warn("Worker is disabled in configuration, exiting")
		return nil
	}

	runAt, err := time.Parse("15:04", d.cfg.Worker.AutoAssignTime)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		scheduler, err := gocron.NewScheduler(gocron.WithLocation(model.BusinessZone()))
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(
				gocron.NewAtTime(uint(runAt.Hour()), uint(runAt.Minute()), 0),
			)),
			gocron.NewTask(func() {
				jobCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
				defer cancel()

				now := time.Now()
				if closed, err := d.services.Assignments.AutoCloseStale(jobCtx, now); err != nil {
					log.WithError(err).Error("Failed to close stale assignments")
				} else if closed > 0 {
					log.WithField("closed", closed).Info("Closed stale assignments")
				}

				results, err := d.services.Assignments.AutoAssign(jobCtx, now, d.cfg.Worker.AdminID)
				if err != nil {
					log.WithError(err).Error("Daily auto-assignment failed")
					return
				}
				assigned := 0
				for _, r := range results {
					if r.Assigned {
						assigned++
					}
				}
				log.WithFields(map[string]interface{}{
					"date":      model.FormatBusinessDate(now),
					"scheduled": len(results),
					"assigned":  assigned,
				}).Info("Daily auto-assignment completed")
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()
		log.WithField("run_at", d.cfg.Worker.AutoAssignTime).Info("Worker scheduler started")

		<-ctx.Done()
		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	log.Info("Worker shut down")
	return nil
}
