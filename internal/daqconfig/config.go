// Package daqconfig loads streamcore's daemon configuration from a
// JWCC (JSON-with-comments) file: a layered precedence of built-in
// defaults, a global per-user file, then a project file. It applies no
// command-line flag overrides itself. It lives at the cmd/ layer, not
// inside pkg/slotpool, pkg/ringlog, or pkg/distributor — configuration
// surfaces belong to the outer application, not the core.
package daqconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	ifs "github.com/calvinalkan/streamcore/internal/fs"
)

// ConfigFileName is the file name looked for in the global config
// directory and in a project directory.
const ConfigFileName = "streamcore.json"

// TapConfig describes a tap to register at startup.
type TapConfig struct {
	ID       string `json:"id"`
	NthFrame int    `json:"nth_frame"`
}

// Config holds every parameter the daemon passes to the core: pool size,
// ring path/capacity, distributor capacity, and static tap definitions.
type Config struct {
	PoolSize            int         `json:"pool_size"`
	RingPath            string      `json:"ring_path"`
	RingCapacityMB      int         `json:"ring_capacity_mb"`
	DistributorCapacity int         `json:"distributor_capacity"`
	Taps                []TapConfig `json:"taps"`
}

// DefaultConfig returns the built-in baseline, the bottom of the
// precedence chain.
func DefaultConfig() Config {
	return Config{
		PoolSize:            4,
		RingPath:            "streamcore.ring",
		RingCapacityMB:      64,
		DistributorCapacity: 16,
	}
}

// GlobalPath returns the per-user config file path: $XDG_CONFIG_HOME/
// streamcore/streamcore.json, falling back to $HOME/.config/streamcore
// when XDG_CONFIG_HOME is unset.
func GlobalPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "streamcore", ConfigFileName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("daqconfig: GlobalPath: %w", err)
	}

	return filepath.Join(home, ".config", "streamcore", ConfigFileName), nil
}

// Load builds a Config by layering, in order: DefaultConfig, the global
// config file (if present), and projectPath (if non-empty and present).
// Each layer overwrites only the fields it sets, via successive JSON
// decodes into the same struct. Load applies no command-line flag
// overrides of individual fields.
func Load(projectPath string) (Config, error) {
	cfg := DefaultConfig()

	globalPath, err := GlobalPath()
	if err != nil {
		return Config{}, err
	}

	for _, path := range []string{globalPath, projectPath} {
		if path == "" {
			continue
		}

		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// mergeFile decodes path's JWCC contents over cfg. A missing file is not
// an error: both the global and project layers are optional.
func mergeFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("daqconfig: read %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return fmt.Errorf("daqconfig: parse %s: %w", path, err)
	}

	if err := json.Unmarshal(standardized, cfg); err != nil {
		return fmt.Errorf("daqconfig: decode %s: %w", path, err)
	}

	return nil
}

// Save writes cfg to path atomically (temp file + rename), so a crash
// mid-write never leaves a truncated config file behind.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("daqconfig: Save: marshal: %w", err)
	}

	if err := ifs.NewReal().WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("daqconfig: Save: %w", err)
	}

	return nil
}
