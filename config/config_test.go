package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s failed: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func TestLoadRequiresMySQLDSN(t *testing.T) {
	unsetEnv(t, "MYSQL_DSN")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing MYSQL_DSN")
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/billing?parseTime=true")
	setEnv(t, "APP_SERVICE_NAME", "billing-test")
	setEnv(t, "HTTP_PORT", "8181")
	setEnv(t, "MYSQL_MAX_OPEN_CONNS", "20")
	setEnv(t, "MYSQL_MAX_IDLE_CONNS", "8")
	setEnv(t, "MYSQL_CONN_MAX_LIFETIME_MINUTES", "40")
	setEnv(t, "AZUL_MERCHANT_ID", "merchant-1")
	setEnv(t, "CARDNET_MERCHANT_NUMBER", "349000001")
	setEnv(t, "ORDERS_MIN_AMOUNT_CENTS", "250")
	setEnv(t, "ORDERS_TTL_DAYS", "30")
	setEnv(t, "JOBS_LATEFEES_INTERVAL_MINUTES", "720")
	setEnv(t, "JOBS_CHARGES_SCHEDULE", "0 7 1 * *")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.App.ServiceName != "billing-test" {
		t.Fatalf("unexpected app service name: %s", cfg.App.ServiceName)
	}
	if cfg.HTTP.Port != "8181" {
		t.Fatalf("unexpected http port: %s", cfg.HTTP.Port)
	}
	if cfg.MySQL.MaxOpenConns != 20 || cfg.MySQL.MaxIdleConns != 8 {
		t.Fatalf("unexpected mysql pool config: %+v", cfg.MySQL)
	}
	if cfg.MySQL.ConnMaxLifetime != 40*time.Minute {
		t.Fatalf("unexpected mysql lifetime: %v", cfg.MySQL.ConnMaxLifetime)
	}
	if cfg.Azul.MerchantID != "merchant-1" {
		t.Fatalf("unexpected azul merchant: %s", cfg.Azul.MerchantID)
	}
	if cfg.CardNet.MerchantNumber != "349000001" {
		t.Fatalf("unexpected cardnet merchant: %s", cfg.CardNet.MerchantNumber)
	}
	if cfg.Orders.MinAmountCents != 250 || cfg.Orders.TTLDays != 30 {
		t.Fatalf("unexpected orders config: %+v", cfg.Orders)
	}
	if cfg.Jobs.LateFeesInterval != 720*time.Minute {
		t.Fatalf("unexpected late fee interval: %v", cfg.Jobs.LateFeesInterval)
	}
	if cfg.Jobs.ChargesSchedule != "0 7 1 * *" {
		t.Fatalf("unexpected charges schedule: %s", cfg.Jobs.ChargesSchedule)
	}
}

func TestLoadOrdersTTLDefaultsDisabled(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/billing?parseTime=true")
	unsetEnv(t, "ORDERS_TTL_DAYS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Orders.TTLDays != 0 {
		t.Fatalf("expected TTL disabled by default, got %d", cfg.Orders.TTLDays)
	}
}
