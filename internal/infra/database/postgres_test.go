package database

import (
	"strings"
	"testing"
	"time"

	"github.com/claudemarjean/Ivony/internal/infra/config"
)

func TestPoolConfigAppliesSettings(t *testing.T) {
	cfg := config.PostgresSettings{
		Host:              "db.internal",
		Port:              6543,
		User:              "ivony",
		Password:          "p@ss/w:rd?#",
		Database:          "ivony",
		SSLMode:           "disable",
		MaxConns:          8,
		MinConns:          2,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   10 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	}

	pc, err := PoolConfig(cfg, "ivony-console")
	if err != nil {
		t.Fatalf("PoolConfig returned error: %v", err)
	}

	conn := pc.ConnConfig
	if conn.Host != "db.internal" || conn.Port != 6543 {
		t.Fatalf("unexpected address %s:%d", conn.Host, conn.Port)
	}
	if conn.User != "ivony" || conn.Password != "p@ss/w:rd?#" || conn.Database != "ivony" {
		t.Fatalf("credentials did not survive escaping: user=%q password=%q db=%q", conn.User, conn.Password, conn.Database)
	}
	if conn.TLSConfig != nil {
		t.Fatalf("sslmode=disable should not configure TLS")
	}
	if pc.MaxConns != 8 || pc.MinConns != 2 {
		t.Fatalf("unexpected pool size %d/%d", pc.MinConns, pc.MaxConns)
	}
	if pc.MaxConnLifetime != time.Hour || pc.MaxConnIdleTime != 10*time.Minute || pc.HealthCheckPeriod != 30*time.Second {
		t.Fatalf("pool timings were not applied")
	}
	if got := conn.RuntimeParams["search_path"]; got != visitSchema {
		t.Fatalf("search_path = %q", got)
	}
	if got := conn.RuntimeParams["application_name"]; got != "ivony-console" {
		t.Fatalf("application_name = %q", got)
	}
}

func TestPoolConfigClampsMinConnsAndKeepsDefaults(t *testing.T) {
	pc, err := PoolConfig(config.PostgresSettings{
		Host: "localhost", Port: 5432, User: "u", Database: "d", SSLMode: "disable",
		MaxConns: 2, MinConns: 5,
	}, "")
	if err != nil {
		t.Fatalf("PoolConfig returned error: %v", err)
	}
	if pc.MinConns != 2 {
		t.Fatalf("expected min conns clamped to 2, got %d", pc.MinConns)
	}
	if _, ok := pc.ConnConfig.RuntimeParams["application_name"]; ok {
		t.Fatalf("empty app name should leave application_name unset")
	}
}

func TestPoolConfigErrorHidesPassword(t *testing.T) {
	_, err := PoolConfig(config.PostgresSettings{
		Host: "localhost", Port: 5432, User: "u", Password: "hunter2", Database: "d", SSLMode: "bogus",
	}, "ivony-console")
	if err == nil {
		t.Fatalf("expected invalid sslmode to fail")
	}
	if strings.Contains(err.Error(), "hunter2") {
		t.Fatalf("error leaked the password: %v", err)
	}
}
