package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig describes one token bucket policy. Capacity tokens are
// available at once and RefillTokens are added every RefillInterval.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
	Debug          bool
}

// RateLimits holds the two policies of the API: a strict one for /auth
// and a general one for everything else.
type RateLimits struct {
	Auth    RateLimitConfig
	General RateLimitConfig
}

// LoadRateLimitConfigs reads the RATE_LIMIT_* family. The defaults allow
// 100 auth requests per 15 minutes and 300 other requests per minute.
func LoadRateLimitConfigs() RateLimits {
	enabled := envBool("RATE_LIMIT_ENABLED", true)
	debug := envBool("RATE_LIMIT_DEBUG", false)
	auth := windowPolicy(
		envInt("RATE_LIMIT_AUTH_MAX", 100),
		envDur("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute),
		envStr("RATE_LIMIT_AUTH_PREFIX", "rl:auth"),
	)
	general := windowPolicy(
		envInt("RATE_LIMIT_MAX", 300),
		envDur("RATE_LIMIT_WINDOW", time.Minute),
		envStr("RATE_LIMIT_PREFIX", "rl:api"),
	)
	auth.Enabled, general.Enabled = enabled, enabled
	auth.Debug, general.Debug = debug, debug
	return RateLimits{Auth: auth, General: general}
}

// windowPolicy expresses "max requests per window" as a bucket that can
// absorb the whole quota at once and refills it over the window.
func windowPolicy(max int, window time.Duration, prefix string) RateLimitConfig {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	interval := window / time.Duration(max)
	if interval <= 0 {
		interval = time.Millisecond
	}
	return RateLimitConfig{
		Capacity:       max,
		RefillTokens:   1,
		RefillInterval: interval,
		TTL:            2 * window,
		Prefix:         prefix,
	}
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
