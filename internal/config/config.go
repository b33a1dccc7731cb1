package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/samber/lo"

	"github.com/janekbaraniewski/codexusage/internal/analytics"
	"github.com/janekbaraniewski/codexusage/internal/core"
	"github.com/janekbaraniewski/codexusage/internal/discovery"
	"github.com/janekbaraniewski/codexusage/internal/live"
)

// EnvConfigDir holds comma separated Codex base directories.
const EnvConfigDir = "CODEX_CONFIG_DIR"

type BlockConfig struct {
	WindowHours       int    `json:"window_hours"`
	TokenLimit        int    `json:"token_limit"`
	BurnWindowMinutes int    `json:"burn_window_minutes"`
	Anchor            string `json:"anchor"`
}

type TailConfig struct {
	Minutes int `json:"minutes"`
	Max     int `json:"max"`
}

type LiveConfig struct {
	Mode                string `json:"mode"`
	DebounceMs          int    `json:"debounce_ms"`
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
}

type Config struct {
	Roots []string `json:"roots,omitempty"`
	// Profiles are alternative root sets, each a comma separated list.
	Profiles []string    `json:"profiles,omitempty"`
	Limit    int         `json:"limit"`
	Block    BlockConfig `json:"block"`
	Tail     TailConfig  `json:"tail"`
	Live     LiveConfig  `json:"live"`
	Theme    string      `json:"theme"`
}

func DefaultConfig() Config {
	return Config{
		Limit: discovery.DefaultLimit,
		Block: BlockConfig{
			WindowHours:       analytics.DefaultWindowHours,
			BurnWindowMinutes: analytics.DefaultBurnWindowMinutes,
			Anchor:            string(core.AnchorRolling),
		},
		Tail: TailConfig{
			Minutes: analytics.DefaultTailMinutes,
			Max:     analytics.DefaultTailMax,
		},
		Live: LiveConfig{
			Mode:                string(live.ModeWatch),
			DebounceMs:          int(live.DefaultDebounce / time.Millisecond),
			PollIntervalSeconds: int(live.DefaultPollInterval / time.Second),
		},
		Theme: "default",
	}
}

func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "codexusage")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize repairs values that would otherwise disable a feature.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Limit <= 0 {
		c.Limit = def.Limit
	}
	if c.Block.WindowHours <= 0 {
		c.Block.WindowHours = def.Block.WindowHours
	}
	if c.Block.TokenLimit < 0 {
		c.Block.TokenLimit = 0
	}
	if c.Block.BurnWindowMinutes <= 0 {
		c.Block.BurnWindowMinutes = def.Block.BurnWindowMinutes
	}
	c.Block.Anchor = string(core.ParseAnchor(c.Block.Anchor))
	if c.Tail.Minutes <= 0 {
		c.Tail.Minutes = def.Tail.Minutes
	}
	if c.Tail.Max <= 0 {
		c.Tail.Max = def.Tail.Max
	}
	c.Live.Mode = string(live.ParseMode(c.Live.Mode))
	if c.Live.DebounceMs <= 0 {
		c.Live.DebounceMs = def.Live.DebounceMs
	}
	if c.Live.PollIntervalSeconds <= 0 {
		c.Live.PollIntervalSeconds = def.Live.PollIntervalSeconds
	}
	if c.Theme == "" {
		c.Theme = def.Theme
	}
}

// saveMu guards read-modify-write cycles on the config file.
var saveMu sync.Mutex

func SaveTo(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SaveThemeTo persists a theme name into the config file (read-modify-write).
func SaveThemeTo(path string, theme string) error {
	saveMu.Lock()
	defer saveMu.Unlock()

	cfg, err := LoadFrom(path)
	if err != nil {
		cfg = DefaultConfig()
	}
	cfg.Theme = theme
	return SaveTo(path, cfg)
}

// ResolveRoots picks the Codex base directories, in order of precedence:
// explicit flag roots, the selected profile (profile < 0 selects none), the
// CODEX_CONFIG_DIR value, roots from the file, then the default locations.
func (c Config) ResolveRoots(flagRoots []string, profile int, envValue string) []string {
	var roots []string
	switch {
	case len(flagRoots) > 0:
		roots = flagRoots
	case profile >= 0 && len(c.Profiles) > 0:
		roots = splitList(c.Profiles[profile%len(c.Profiles)])
	case strings.TrimSpace(envValue) != "":
		roots = splitList(envValue)
	case len(c.Roots) > 0:
		roots = c.Roots
	default:
		roots = DefaultRoots()
	}

	roots = lo.FilterMap(roots, func(r string, _ int) (string, bool) {
		r = strings.TrimSpace(r)
		if r == "" {
			return "", false
		}
		return filepath.Clean(ExpandHome(r)), true
	})
	return lo.Uniq(roots)
}

func DefaultRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".config", "codex"),
		filepath.Join(home, ".codex"),
	}
}

func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func splitList(s string) []string {
	return strings.Split(s, ",")
}

// EngineOptions converts the file settings plus resolved roots into the
// explicit options the analytics engine consumes.
func (c Config) EngineOptions(roots []string) analytics.Options {
	opts := analytics.DefaultOptions()
	opts.Roots = roots
	opts.Limit = c.Limit
	opts.WindowHours = c.Block.WindowHours
	opts.TokenLimit = c.Block.TokenLimit
	opts.BurnWindowMinutes = c.Block.BurnWindowMinutes
	opts.Anchor = core.ParseAnchor(c.Block.Anchor)
	opts.TailMinutes = c.Tail.Minutes
	opts.TailMax = c.Tail.Max
	return opts
}

func (c Config) LiveOptions() live.Options {
	return live.Options{
		Mode:         live.ParseMode(c.Live.Mode),
		Debounce:     time.Duration(c.Live.DebounceMs) * time.Millisecond,
		PollInterval: time.Duration(c.Live.PollIntervalSeconds) * time.Second,
	}
}
