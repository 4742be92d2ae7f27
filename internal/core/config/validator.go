package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

func validateCache(cfg *Config) error {
	if cfg.Cache.Descriptors < 0 {
		return fmt.Errorf("cache.descriptors must be >= 0, got %d", cfg.Cache.Descriptors)
	}
	return nil
}

func validateScan(cfg *Config) error {
	if cfg.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must be >= 0, got %d", cfg.Scan.Workers)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for i, pattern := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.dirs[%d] %q is not a valid glob: %w", i, pattern, err)
		}
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	addr := strings.TrimSpace(cfg.Observability.MetricsAddr)
	if addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("observability.metrics_addr %q: %w", addr, err)
		}
	}
	endpoint := strings.TrimSpace(cfg.Observability.OTLPEndpoint)
	if endpoint != "" {
		if _, _, err := net.SplitHostPort(endpoint); err != nil {
			return fmt.Errorf("observability.otlp_endpoint %q must be host:port: %w", endpoint, err)
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 10*time.Millisecond {
		return fmt.Errorf("watch.debounce must be at least 10ms, got %s", cfg.Watch.Debounce)
	}
	return nil
}
