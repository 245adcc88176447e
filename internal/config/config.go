// Package config reads service settings from the environment, after
// loading a .env file if one is present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"segviz-srv/internal/logx"
)

// Config holds every tunable of the server and CLI.
type Config struct {
	Port          string
	MaxUploadMB   int64
	RatePerSec    float64
	RateBurst     int
	ChartWidth    int
	ChartHeight   int
	HistogramBins int
	MinCM         float64
	LogLevel      string
	AliasFile     string
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		Port:          "8080",
		MaxUploadMB:   16,
		RatePerSec:    2,
		RateBurst:     5,
		ChartWidth:    1100,
		ChartHeight:   760,
		HistogramBins: 20,
		MinCM:         8,
		LogLevel:      "info",
	}
}

// Load reads .env (ignored when missing) and then the environment.
// Malformed values are an error rather than silently defaulted.
func Load() (Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	c := Defaults()
	var errs []string

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Sprintf("%s=%q: want a positive integer", key, v))
			return
		}
		*dst = n
	}
	float := func(key string, dst *float64, allowZero bool) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || (!allowZero && f == 0) {
			errs = append(errs, fmt.Sprintf("%s=%q: want a positive number", key, v))
			return
		}
		*dst = f
	}

	str("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)
	str("ALIAS_FILE", &c.AliasFile)

	upload := int(c.MaxUploadMB)
	integer("MAX_UPLOAD_MB", &upload)
	c.MaxUploadMB = int64(upload)

	float("RATE_LIMIT_PER_SEC", &c.RatePerSec, false)
	integer("RATE_LIMIT_BURST", &c.RateBurst)
	integer("CHART_WIDTH", &c.ChartWidth)
	integer("CHART_HEIGHT", &c.ChartHeight)
	integer("HISTOGRAM_BINS", &c.HistogramBins)
	float("MIN_CM", &c.MinCM, true)

	if _, ok := logx.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL=%q: want debug, info, warn or error", c.LogLevel))
	}

	if len(errs) > 0 {
		return c, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return c, nil
}

// MaxUploadBytes is the multipart size cap.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
