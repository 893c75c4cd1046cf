// Package config loads direttasyncd's configuration: a YAML file read with
// gopkg.in/yaml.v3, overridable by pflag command-line flags, following the
// teacher's two-layer configuration pattern (a parsed file plus flag
// overrides applied on top) from cmd/samoyed-direwolf/main.go.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/silvertone-audio/direttasync/internal/engine"
	"github.com/silvertone-audio/direttasync/internal/transport"
)

// StandbyGPIO configures the optional standby-release trigger line.
type StandbyGPIO struct {
	Enabled bool   `yaml:"enabled"`
	Chip    string `yaml:"chip"`
	Line    int    `yaml:"line"`
}

// Monitor configures the host-audio listening tap.
type Monitor struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the full configuration surface the renderer recognizes,
// including its ambient supplements (standby_gpio, monitor).
type Config struct {
	Name                string `yaml:"name"`
	TargetIndex         int    `yaml:"target_index"`
	CycleTimeUs         uint32 `yaml:"cycle_time_us"`
	CycleTimeAuto       bool   `yaml:"cycle_time_auto"`
	MTU                 uint32 `yaml:"mtu"`
	MTUFallback         uint32 `yaml:"mtu_fallback"`
	ThreadMode          int    `yaml:"thread_mode"`
	TransferMode        string `yaml:"transfer_mode"`
	OnlineWaitMs        int    `yaml:"online_wait_ms"`
	FormatSwitchDelayMs int    `yaml:"format_switch_delay_ms"`
	StandbyGPIO         StandbyGPIO `yaml:"standby_gpio"`
	Monitor             Monitor     `yaml:"monitor"`
	LogLevel            string      `yaml:"log_level"`
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		Name:                "DirettaRenderer",
		CycleTimeUs:         1000,
		CycleTimeAuto:       true,
		MTUFallback:         1500,
		TransferMode:        "auto",
		OnlineWaitMs:        2000,
		FormatSwitchDelayMs: 1000,
		StandbyGPIO:         StandbyGPIO{Chip: "gpiochip0", Line: 17},
		LogLevel:            "info",
	}
}

// Load reads path (if non-empty and it exists) over the defaults, then
// applies any flags the caller registered on fs that were actually set.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if fs != nil {
		applyFlagOverrides(&cfg, fs)
	}

	return cfg, nil
}

func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) {
	if fs.Changed("name") {
		cfg.Name, _ = fs.GetString("name")
	}

	if fs.Changed("target-index") {
		cfg.TargetIndex, _ = fs.GetInt("target-index")
	}

	if fs.Changed("cycle-time-us") {
		v, _ := fs.GetUint32("cycle-time-us")
		cfg.CycleTimeUs = v
	}

	if fs.Changed("mtu") {
		v, _ := fs.GetUint32("mtu")
		cfg.MTU = v
	}

	if fs.Changed("transfer-mode") {
		cfg.TransferMode, _ = fs.GetString("transfer-mode")
	}

	if fs.Changed("log-level") {
		cfg.LogLevel, _ = fs.GetString("log-level")
	}

	if fs.Changed("monitor") {
		cfg.Monitor.Enabled, _ = fs.GetBool("monitor")
	}
}

// RegisterFlags registers the subset of Config fields meant to be
// overridable from the command line.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("name", "", "renderer name presented to the transport")
	fs.Int("target-index", -1, "target index to select when multiple sinks are found")
	fs.Uint32("cycle-time-us", 0, "protocol cycle period in microseconds (0 = use config/default)")
	fs.Uint32("mtu", 0, "path MTU override (0 = measure)")
	fs.String("transfer-mode", "", "auto | fix_auto | var_auto | var_max")
	fs.String("log-level", "", "debug | info | warn | error")
	fs.Bool("monitor", false, "play the negotiated wire format out the host sound card")
}

// transferModeOverride parses TransferMode into an *transport.TransferMode,
// or nil for "auto" (let the engine's transfer-mode selection policy decide).
func (c Config) transferModeOverride() (*transport.TransferMode, error) {
	var mode transport.TransferMode

	switch c.TransferMode {
	case "", "auto":
		return nil, nil
	case "fix_auto":
		mode = transport.TransferFixAuto
	case "var_auto":
		mode = transport.TransferVarAuto
	case "var_max":
		mode = transport.TransferVarMax
	default:
		return nil, fmt.Errorf("config: unknown transfer_mode %q", c.TransferMode)
	}

	return &mode, nil
}

// EngineOptions translates Config into engine.Options.
func (c Config) EngineOptions() (engine.Options, error) {
	override, err := c.transferModeOverride()
	if err != nil {
		return engine.Options{}, err
	}

	return engine.Options{
		Name:                     c.Name,
		TargetIndex:              c.TargetIndex,
		CycleTimeUs:              c.CycleTimeUs,
		CycleTimeAuto:            c.CycleTimeAuto,
		MTU:                      c.MTU,
		MTUFallback:              c.MTUFallback,
		ThreadMode:               transport.ThreadMode(c.ThreadMode),
		TransferModeOverride:     override,
		OnlineWaitMs:             c.OnlineWaitMs,
		FormatSwitchDelayMs:      c.FormatSwitchDelayMs,
	}, nil
}
