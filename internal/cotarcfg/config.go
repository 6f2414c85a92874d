// Package cotarcfg loads COTAR's small JSONC configuration file with
// hujson-based parsing and a global-then-project precedence chain.
package cotarcfg

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// ConfigFileName is the default project config file name.
const ConfigFileName = ".cotar.json"

// Defaults, per the auto-tune contract in pkg/cotaridx.
const (
	DefaultMaxProbe          = 100
	DefaultPackingFactorStep = 0.022
	DefaultDedup             = true
)

// ErrConfigFileNotFound indicates an explicit --config path does not exist.
var ErrConfigFileNotFound = errors.New("cotarcfg: config file not found")

// ErrConfigInvalid indicates a config file failed to parse or validate.
var ErrConfigInvalid = errors.New("cotarcfg: invalid config file")

// Config holds the tunables read from .cotar.json.
type Config struct {
	MaxProbe          int     `json:"max_probe"`
	PackingFactorStep float64 `json:"packing_factor_step"`
	Dedup             bool    `json:"dedup"`

	// Sources tracks which files contributed to the merged config, for
	// diagnostics (e.g. `cotar info --config`-style output).
	Sources Sources `json:"-"`
}

// Sources records which config files were loaded, if any.
type Sources struct {
	Global  string
	Project string
}

// Default returns the built-in defaults, used before any file is merged in.
func Default() Config {
	return Config{
		MaxProbe:          DefaultMaxProbe,
		PackingFactorStep: DefaultPackingFactorStep,
		Dedup:             DefaultDedup,
	}
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDir    string            // defaults to os.Getwd() if empty
	ConfigPath string            // explicit --config flag value; must exist if set
	Env        map[string]string
}

// Load resolves configuration with precedence (lowest to highest):
// built-in defaults -> global user config -> project .cotar.json (or an
// explicit --config file) -> caller-applied CLI overrides.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDir
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cotarcfg: getwd: %w", err)
		}
	}

	cfg := Default()

	globalCfg, globalPath, err := loadGlobal(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = merge(cfg, globalCfg)

	projectCfg, projectPath, err := loadProject(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = merge(cfg, projectCfg)

	if cfg.MaxProbe <= 0 {
		return Config{}, fmt.Errorf("%w: max_probe must be positive", ErrConfigInvalid)
	}

	if cfg.PackingFactorStep <= 0 {
		return Config{}, fmt.Errorf("%w: packing_factor_step must be positive", ErrConfigInvalid)
	}

	return cfg, nil
}

func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "cotar", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "cotar", "config.json")
	}

	return ""
}

// overlay mirrors Config with pointer fields so "absent from the file" and
// "explicitly set to the zero value" (notably dedup=false) stay distinct
// through merge.
type overlay struct {
	MaxProbe          *int     `json:"max_probe"`
	PackingFactorStep *float64 `json:"packing_factor_step"`
	Dedup             *bool    `json:"dedup"`
}

func loadGlobal(env map[string]string) (overlay, string, error) {
	path := globalConfigPath(env)
	if path == "" {
		return overlay{}, "", nil
	}

	ov, loaded, err := readConfigFile(path, false)
	if err != nil {
		return overlay{}, "", err
	}

	if !loaded {
		return overlay{}, "", nil
	}

	return ov, path, nil
}

func loadProject(workDir, explicitPath string) (overlay, string, error) {
	path := explicitPath
	mustExist := explicitPath != ""

	if path == "" {
		path = filepath.Join(workDir, ConfigFileName)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	if mustExist {
		if _, err := os.Stat(path); err != nil {
			return overlay{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, explicitPath)
		}
	}

	ov, loaded, err := readConfigFile(path, mustExist)
	if err != nil {
		return overlay{}, "", err
	}

	if !loaded {
		return overlay{}, "", nil
	}

	return ov, path, nil
}

// readConfigFile reads and parses a JSONC config file. A missing optional
// file is not an error; a missing mandatory one already failed in the
// caller's Stat check, so any read error here is unexpected.
func readConfigFile(path string, mustExist bool) (overlay, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return overlay{}, false, nil
		}

		return overlay{}, false, fmt.Errorf("%w: %s: %w", ErrConfigInvalid, path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return overlay{}, false, fmt.Errorf("%w: %s: invalid JSONC: %w", ErrConfigInvalid, path, err)
	}

	var ov overlay

	if err := json.Unmarshal(standardized, &ov); err != nil {
		return overlay{}, false, fmt.Errorf("%w: %s: %w", ErrConfigInvalid, path, err)
	}

	return ov, true, nil
}

// merge overlays any field explicitly present in ov over base.
func merge(base Config, ov overlay) Config {
	if ov.MaxProbe != nil {
		base.MaxProbe = *ov.MaxProbe
	}

	if ov.PackingFactorStep != nil {
		base.PackingFactorStep = *ov.PackingFactorStep
	}

	if ov.Dedup != nil {
		base.Dedup = *ov.Dedup
	}

	return base
}
