package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TIMELOOM_ENV", "")
	t.Setenv("TIMELOOM_HTTP_PORT", "")
	t.Setenv("PORT", "")
	t.Setenv("TIMELOOM_METRICS_ENABLED", "")
	t.Setenv("TIMELOOM_HTTP_BIND", "")
	t.Setenv("TIMELOOM_SEARCH_LIMIT_DAYS", "")
	t.Setenv("TIMELOOM_MAX_DAYS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected development default, got %q", cfg.Environment)
	}
	if cfg.Addr() != "127.0.0.1:7171" {
		t.Errorf("unexpected addr %q", cfg.Addr())
	}
	if !cfg.MetricsEnabled {
		t.Error("expected metrics enabled by default")
	}
	if cfg.SearchLimitDays != 3660 {
		t.Errorf("expected default search limit 3660, got %d", cfg.SearchLimitDays)
	}
	if cfg.MaxDays != 36600 {
		t.Errorf("expected default max days 36600, got %d", cfg.MaxDays)
	}
}

func TestLoadReadsEnvKeys(t *testing.T) {
	t.Setenv("TIMELOOM_ENV", "production")
	t.Setenv("TIMELOOM_HTTP_BIND", "0.0.0.0")
	t.Setenv("TIMELOOM_HTTP_PORT", "9090")
	t.Setenv("TIMELOOM_METRICS_ENABLED", "no")
	t.Setenv("TIMELOOM_CALENDAR", "/etc/timeloom/cal.yaml")
	t.Setenv("TIMELOOM_MAX_BODY_KB", "64")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected production, got %q", cfg.Environment)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("unexpected addr %q", cfg.Addr())
	}
	if cfg.MetricsEnabled {
		t.Error("expected metrics disabled")
	}
	if cfg.CalendarPath != "/etc/timeloom/cal.yaml" || cfg.MaxBodyKB != 64 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadFallsBackToPort(t *testing.T) {
	t.Setenv("TIMELOOM_HTTP_PORT", "")
	t.Setenv("PORT", "8088")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != 8088 {
		t.Errorf("expected PORT fallback, got %d", cfg.HTTPPort)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("TIMELOOM_HTTP_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("expected out-of-range port to be rejected")
	}

	t.Setenv("TIMELOOM_HTTP_PORT", "7171")
	t.Setenv("TIMELOOM_SEARCH_LIMIT_DAYS", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("expected negative search limit to be rejected")
	}

	t.Setenv("TIMELOOM_SEARCH_LIMIT_DAYS", "")
	t.Setenv("TIMELOOM_MAX_DAYS", "1000000")
	if _, err := Load(); err == nil {
		t.Fatal("expected max days above the calendar cap to be rejected")
	}
}
