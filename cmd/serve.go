package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vegaexperiences/ms-go-billing/app/controller"
	"github.com/vegaexperiences/ms-go-billing/app/gateway"
	"github.com/vegaexperiences/ms-go-billing/app/repository"
	"github.com/vegaexperiences/ms-go-billing/app/service"
	"github.com/vegaexperiences/ms-go-billing/app/types"
	"github.com/vegaexperiences/ms-go-billing/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for the billing service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, billingService, cleanup := mustCreateBillingService()
	defer cleanup()

	billingController := controller.NewBillingController(billingService)
	e := setupHTTPServer(billingController)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(billingController *controller.BillingController) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(requireRequestID())

	e.GET("/health", billingController.Health)

	orders := e.Group("/orders")
	orders.POST("", billingController.CreateOrder)

	payments := e.Group("/payments")
	payments.GET("", billingController.ListPayments)
	payments.GET("/:id", billingController.GetPayment)
	payments.POST("/:id/cancel", billingController.CancelPayment)
	payments.POST("/:id/link", billingController.LinkPayment)

	e.GET("/latefees", billingController.ListLateFees)

	webhooks := e.Group("/webhooks/gateways")
	webhooks.POST("/:gateway", billingController.HandleGatewayWebhook)

	callbacks := e.Group("/callbacks/gateways")
	callbacks.GET("/:gateway", billingController.HandleGatewayReturn)
	callbacks.POST("/:gateway", billingController.HandleGatewayReturn)

	jobs := e.Group("/jobs")
	jobs.POST("/charges/generate", billingController.RunChargeGeneration)
	jobs.POST("/latefees/apply", billingController.RunLateFees)

	return e
}

// The reconciliation surface receives gateway-originated traffic that never
// carries a request id, so only the admin and job routes require one.
func requireRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			path := ctx.Request().URL.Path
			if path == "/health" ||
				strings.HasPrefix(path, "/webhooks/") ||
				strings.HasPrefix(path, "/callbacks/") {
				return next(ctx)
			}
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				return ctx.JSON(http.StatusBadRequest, &types.ErrorResponse{Error: "x-request-id header is required"})
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}

func mustCreateBillingService() (*config.Config, *service.BillingService, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	paymentRepo := repository.NewPaymentRepository(db)
	lateFeeRepo := repository.NewLateFeeRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	eventRepo := repository.NewPaymentEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	azulGateway := gateway.NewAzulGateway(gateway.AzulConfig{
		MerchantID:     cfg.Azul.MerchantID,
		AuthKey:        cfg.Azul.AuthKey,
		PaymentPageURL: cfg.Azul.PaymentPageURL,
	})
	cardnetGateway := gateway.NewCardNetGateway(gateway.CardNetConfig{
		MerchantNumber: cfg.CardNet.MerchantNumber,
		TerminalKey:    cfg.CardNet.TerminalKey,
		CheckoutURL:    cfg.CardNet.CheckoutURL,
	})

	gatewayRegistry := gateway.NewRegistry(azulGateway, cardnetGateway)
	billingService := service.NewBillingService(
		paymentRepo,
		lateFeeRepo,
		orderRepo,
		subscriberRepo,
		settingRepo,
		eventRepo,
		notificationRepo,
		gatewayRegistry,
		cfg.Orders,
	)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, billingService, cleanup
}
