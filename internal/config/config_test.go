package config

import (
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "LOG_LEVEL", "ALIAS_FILE", "MAX_UPLOAD_MB", "RATE_LIMIT_PER_SEC",
		"RATE_LIMIT_BURST", "CHART_WIDTH", "CHART_HEIGHT", "HISTOGRAM_BINS", "MIN_CM"} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	c, err := FromEnv()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if c != Defaults() {
		t.Fatalf("want defaults, got %+v", c)
	}
	if c.MaxUploadBytes() != 16<<20 {
		t.Fatalf("upload bytes: %d", c.MaxUploadBytes())
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MIN_CM", "0")
	t.Setenv("HISTOGRAM_BINS", "40")
	t.Setenv("RATE_LIMIT_PER_SEC", "0.5")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != "9090" || c.MinCM != 0 || c.HistogramBins != 40 || c.RatePerSec != 0.5 || c.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", c)
	}
}

func TestFromEnvRejectsGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHART_WIDTH", "wide")
	t.Setenv("RATE_LIMIT_PER_SEC", "0")
	t.Setenv("LOG_LEVEL", "loud")

	_, err := FromEnv()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, key := range []string{"CHART_WIDTH", "RATE_LIMIT_PER_SEC", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}
