package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vegaexperiences/ms-go-billing/app/service"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run all billing jobs on their cron schedules",
	Long:  "Run charge generation, overdue marking, late fee application, and order expiry as a single cron-driven process.",
	Run:   runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(_ *cobra.Command, _ []string) {
	cfg, billingService, cleanup := mustCreateBillingService()
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cron.New()

	jobs := []struct {
		name     string
		schedule string
		fn       func(s *service.BillingService, ctx context.Context) error
	}{
		{
			name:     "charges_generate",
			schedule: cfg.Jobs.ChargesSchedule,
			fn: func(s *service.BillingService, ctx context.Context) error {
				_, err := s.RunGenerateCharges(ctx, "", false)
				return err
			},
		},
		{
			name:     "charges_overdue",
			schedule: cfg.Jobs.OverdueSchedule,
			fn: func(s *service.BillingService, ctx context.Context) error {
				_, err := s.RunMarkOverdueBatch(ctx)
				return err
			},
		},
		{
			name:     "latefees_apply",
			schedule: cfg.Jobs.LateFeesSchedule,
			fn: func(s *service.BillingService, ctx context.Context) error {
				_, err := s.RunApplyLateFees(ctx, "", false)
				return err
			},
		},
		{
			name:     "orders_expire",
			schedule: cfg.Jobs.OrdersSchedule,
			fn: func(s *service.BillingService, ctx context.Context) error {
				_, err := s.RunExpireOrdersBatch(ctx)
				return err
			},
		},
	}

	for _, job := range jobs {
		job := job
		if _, err := c.AddFunc(job.schedule, func() {
			runJob(job.name, func() error { return job.fn(billingService, ctx) })
		}); err != nil {
			logrus.WithError(err).WithField("job", job.name).Fatal("invalid cron schedule")
		}
		logrus.WithField("job", job.name).WithField("schedule", job.schedule).Info("Job scheduled")
	}

	c.Start()
	logrus.Info("Scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Scheduler shutdown requested")
	<-c.Stop().Done()
	logrus.Info("Scheduler stopped")
}
