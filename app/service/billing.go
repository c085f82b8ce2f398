package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vegaexperiences/ms-go-billing/app/entity"
	"github.com/vegaexperiences/ms-go-billing/app/factory"
	"github.com/vegaexperiences/ms-go-billing/app/gateway"
	"github.com/vegaexperiences/ms-go-billing/app/repository"
	"github.com/vegaexperiences/ms-go-billing/config"
)

const defaultListLimit = int32(100)

type paymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	Update(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uint64) (*entity.Payment, error)
	FindByOperationKey(ctx context.Context, operationKey string) (*entity.Payment, error)
	ChargeExists(ctx context.Context, subjectRef, period string) (bool, error)
	ListChargesByStatus(ctx context.Context, statuses []int32, period string) ([]*entity.Payment, error)
	List(ctx context.Context, filter repository.PaymentFilter) ([]*entity.Payment, error)
}

type lateFeeRepository interface {
	Create(ctx context.Context, fee *entity.LateFee) error
	ExistsForPeriod(ctx context.Context, subjectRef, period string) (bool, error)
	ListForPeriod(ctx context.Context, period string) ([]*entity.LateFee, error)
}

type orderRepository interface {
	Put(ctx context.Context, order *entity.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*entity.Order, error)
	Delete(ctx context.Context, orderID string) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type subscriberRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Subscriber, error)
	ListBillable(ctx context.Context) ([]*entity.Subscriber, error)
}

type settingRepository interface {
	GetAll(ctx context.Context) (map[string]string, error)
}

type paymentEventRepository interface {
	Create(ctx context.Context, event *entity.PaymentEvent) error
}

type notificationRepository interface {
	Create(ctx context.Context, notification *entity.GatewayNotification) error
}

type BillingService struct {
	paymentRepo      paymentRepository
	lateFeeRepo      lateFeeRepository
	orderRepo        orderRepository
	subscriberRepo   subscriberRepository
	settingRepo      settingRepository
	eventRepo        paymentEventRepository
	notificationRepo notificationRepository
	gatewayReg       *gateway.Registry
	ordersCfg        config.OrdersConfig
	logger           logrus.FieldLogger
}

func NewBillingService(
	paymentRepo paymentRepository,
	lateFeeRepo lateFeeRepository,
	orderRepo orderRepository,
	subscriberRepo subscriberRepository,
	settingRepo settingRepository,
	eventRepo paymentEventRepository,
	notificationRepo notificationRepository,
	gatewayReg *gateway.Registry,
	ordersCfg config.OrdersConfig,
) *BillingService {
	return &BillingService{
		paymentRepo:      paymentRepo,
		lateFeeRepo:      lateFeeRepo,
		orderRepo:        orderRepo,
		subscriberRepo:   subscriberRepo,
		settingRepo:      settingRepo,
		eventRepo:        eventRepo,
		notificationRepo: notificationRepo,
		gatewayReg:       gatewayReg,
		ordersCfg:        ordersCfg,
		logger:           factory.NewModuleLogger("billing-service"),
	}
}

// Setting keys written by the dashboard. Read once per batch run.
const (
	settingLateFeeEnabled     = "late_fee_enabled"
	settingLateFeeType        = "late_fee_type"
	settingLateFeeValue       = "late_fee_value"
	settingLateFeeGraceDays   = "late_fee_grace_days"
	settingPaymentDeadlineDay = "statement_payment_day"
	settingSeasonStart        = "season_start_date"
	settingSeasonEnd          = "season_end_date"
	settingMonthlyFeeDefault  = "monthly_fee_default"
)

// LoadBillingConfig snapshots the settings table into an immutable value.
// Every batch run calls this once up front and never re-reads mid-run.
func (s *BillingService) LoadBillingConfig(ctx context.Context) (entity.BillingConfig, error) {
	settings, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		return entity.BillingConfig{}, err
	}

	cfg := entity.BillingConfig{
		LateFeeEnabled:     parseBoolSetting(settings[settingLateFeeEnabled]),
		LateFeeType:        parseFeeTypeSetting(settings[settingLateFeeType]),
		LateFeeGraceDays:   int32(parseIntSetting(settings[settingLateFeeGraceDays], 0)),
		PaymentDeadlineDay: int32(parseIntSetting(settings[settingPaymentDeadlineDay], 1)),
	}

	if raw := strings.TrimSpace(settings[settingLateFeeValue]); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.LateFeeValue = value
		}
	}
	if cents, ok := gateway.ParseAmountCents(settings[settingMonthlyFeeDefault]); ok && cents > 0 {
		cfg.MonthlyFeeDefaultCents = cents
	}
	cfg.SeasonStart = parseDateSetting(settings[settingSeasonStart])
	cfg.SeasonEnd = parseDateSetting(settings[settingSeasonEnd])

	if cfg.PaymentDeadlineDay < 1 || cfg.PaymentDeadlineDay > 31 {
		cfg.PaymentDeadlineDay = 1
	}

	return cfg, nil
}

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func validPeriod(period string) bool {
	return periodPattern.MatchString(period)
}

func currentPeriod(today time.Time) string {
	return today.UTC().Format("2006-01")
}

// periodDeadline is the payment deadline for a billed month: the
// deadlineDay-th calendar day of the following month, clamped to that
// month's length.
func periodDeadline(period string, deadlineDay int32) (time.Time, error) {
	parsed, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, ErrInvalidPeriod
	}

	firstOfNext := time.Date(parsed.Year(), parsed.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	lastDay := int32(firstOfNext.AddDate(0, 1, -1).Day())
	day := deadlineDay
	if day < 1 {
		day = 1
	}
	if day > lastDay {
		day = lastDay
	}

	return time.Date(firstOfNext.Year(), firstOfNext.Month(), int(day), 0, 0, 0, 0, time.UTC), nil
}

func daysBetween(from, to time.Time) int32 {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int32(toDay.Sub(fromDay) / (24 * time.Hour))
}

func parseBoolSetting(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseFeeTypeSetting(raw string) int32 {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "fixed":
		return entity.LateFeeTypeFixed
	default:
		return entity.LateFeeTypePercentage
	}
}

func parseIntSetting(raw string, defaultValue int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

func parseDateSetting(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	parsed = parsed.UTC()
	return &parsed
}

func normalizeOptionalString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
