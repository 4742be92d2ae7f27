package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: CLASSFINDER_[SECTION]_[KEY] (e.g., CLASSFINDER_SCAN_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	if val, ok := os.LookupEnv("CLASSFINDER_CLASSPATH"); ok {
		slog.Debug("applying env override", "key", "CLASSFINDER_CLASSPATH")
		cfg.Classpath = filepath.SplitList(val)
	}
	setEnvString(&cfg.JavaHome, "CLASSFINDER_JAVA_HOME")

	setEnvInt(&cfg.Cache.Descriptors, "CLASSFINDER_CACHE_DESCRIPTORS")
	setEnvInt(&cfg.Scan.Workers, "CLASSFINDER_SCAN_WORKERS")
	setEnvBool(&cfg.Policy.StrictPermissions, "CLASSFINDER_POLICY_STRICT_PERMISSIONS")
	setEnvBool(&cfg.Conflicts.LegacyFilter, "CLASSFINDER_CONFLICTS_LEGACY_FILTER")

	setEnvBool(&cfg.History.Enabled, "CLASSFINDER_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "CLASSFINDER_HISTORY_PATH")
	setEnvDuration(&cfg.History.BusyTimeout, "CLASSFINDER_HISTORY_BUSY_TIMEOUT")

	setEnvString(&cfg.Observability.MetricsAddr, "CLASSFINDER_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "CLASSFINDER_OBSERVABILITY_OTLP_ENDPOINT")

	setEnvDuration(&cfg.Watch.Debounce, "CLASSFINDER_WATCH_DEBOUNCE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
