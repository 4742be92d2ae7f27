package config

import (
	"path/filepath"
	"strings"
)

// ResolveRelative joins path onto base unless it is already absolute.
func ResolveRelative(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

// ResolvePaths rewrites every path-valued setting of cfg relative to base.
func ResolvePaths(cfg *Config, base string) {
	resolveAll(cfg.Classpath, base)
	resolveAll(cfg.RootDirs, base)
	resolveAll(cfg.JarDirs, base)
	cfg.JavaHome = ResolveRelative(base, cfg.JavaHome)
	cfg.History.Path = ResolveRelative(base, cfg.History.Path)
}

func resolveAll(paths []string, base string) {
	for i, p := range paths {
		paths[i] = ResolveRelative(base, p)
	}
}
