package config

import "time"

// Config is the contents of classfinder.toml.
type Config struct {
	Classpath     []string      `toml:"classpath"`
	RootDirs      []string      `toml:"root_dirs"`
	JarDirs       []string      `toml:"jar_dirs"`
	JavaHome      string        `toml:"java_home"`
	Exclude       Exclude       `toml:"exclude"`
	Cache         Cache         `toml:"cache"`
	Scan          Scan          `toml:"scan"`
	Policy        Policy        `toml:"policy"`
	Conflicts     Conflicts     `toml:"conflicts"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
	Watch         Watch         `toml:"watch"`
}

type Exclude struct {
	// Dirs are glob patterns matched against directory base names while
	// scanning root_dirs and jar_dirs for archives.
	Dirs []string `toml:"dirs"`
}

type Cache struct {
	Descriptors int `toml:"descriptors"`
}

type Scan struct {
	Workers int `toml:"workers"`
}

type Policy struct {
	StrictPermissions bool `toml:"strict_permissions"`
}

type Conflicts struct {
	LegacyFilter bool `toml:"legacy_filter"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
