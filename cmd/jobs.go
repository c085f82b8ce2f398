package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vegaexperiences/ms-go-billing/app/service"
	"github.com/vegaexperiences/ms-go-billing/config"
)

var (
	workerMode bool
	batchMonth string
	batchForce bool
)

var chargesCmd = &cobra.Command{
	Use:   "charges",
	Short: "Run charge-related commands",
}

var chargesGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the monthly charge for every billable subscriber",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"charges_generate",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.ChargesInterval },
			func(s *service.BillingService, ctx context.Context) error {
				_, err := s.RunGenerateCharges(ctx, batchMonth, batchForce)
				return err
			},
		)
	},
}

var chargesOverdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Mark pending charges past their deadline as overdue",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"charges_overdue",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.OverdueInterval },
			func(s *service.BillingService, ctx context.Context) error {
				_, err := s.RunMarkOverdueBatch(ctx)
				return err
			},
		)
	},
}

var latefeesCmd = &cobra.Command{
	Use:   "latefees",
	Short: "Run late fee related commands",
}

var latefeesApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply late fees to overdue charges past the grace period",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"latefees_apply",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.LateFeesInterval },
			func(s *service.BillingService, ctx context.Context) error {
				_, err := s.RunApplyLateFees(ctx, batchMonth, batchForce)
				return err
			},
		)
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Run order registry related commands",
}

var ordersExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Delete correlation records older than the configured TTL",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"orders_expire",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.OrdersInterval },
			func(s *service.BillingService, ctx context.Context) error {
				_, err := s.RunExpireOrdersBatch(ctx)
				return err
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(chargesCmd)
	rootCmd.AddCommand(latefeesCmd)
	rootCmd.AddCommand(ordersCmd)
	chargesCmd.AddCommand(chargesGenerateCmd)
	chargesCmd.AddCommand(chargesOverdueCmd)
	latefeesCmd.AddCommand(latefeesApplyCmd)
	ordersCmd.AddCommand(ordersExpireCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
	chargesGenerateCmd.Flags().StringVar(&batchMonth, "month", "", "Billing period YYYY-MM (defaults to current month)")
	chargesGenerateCmd.Flags().BoolVar(&batchForce, "force", false, "Run even outside the configured season window")
	latefeesApplyCmd.Flags().StringVar(&batchMonth, "month", "", "Billing period YYYY-MM (defaults to current month)")
	latefeesApplyCmd.Flags().BoolVar(&batchForce, "force", false, "Re-apply fees even when one exists for the period")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.BillingService, ctx context.Context) error,
) {
	cfg, billingService, cleanup := mustCreateBillingService()
	defer cleanup()

	if workerMode {
		runWorker(name, intervalResolver(cfg), billingService, fn)
		return
	}

	ctx := context.Background()
	runJob(name, func() error { return fn(billingService, ctx) })
}

func runWorker(
	name string,
	interval time.Duration,
	billingService *service.BillingService,
	fn func(s *service.BillingService, ctx context.Context) error,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(billingService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(billingService, ctx) })
		}
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
