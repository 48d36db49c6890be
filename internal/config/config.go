package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type GlobalFlags struct {
	ConfigPath     string
	JSON           bool
	Plain          bool
	Select         string
	ResultsOnly    bool
	EnableCommands string
	Strict         bool
	Timeout        string
	Retries        int
	MaxStale       string
	NoStale        bool
	NoCache        bool
	Network        string
	RPCURL         string
	L1RPCURL       string
}

type Settings struct {
	OutputMode     string
	SelectFields   []string
	ResultsOnly    bool
	EnableCommands []string
	Strict         bool
	Timeout        time.Duration
	Retries        int
	MaxStale       time.Duration
	NoStale        bool
	CacheEnabled   bool
	CachePath      string
	CacheLockPath  string
	WatchStorePath string
	WatchLockPath  string
	WatchInterval  time.Duration
	WatchWindow    int64

	Network  string
	RPCURL   string
	L1RPCURL string

	ScrollscanAPIKey     string
	ScrollscanBaseURL    string
	RollupAPIBaseURL     string
	BridgeHistoryBaseURL string
	SubgraphURL          string
	BundlerURL           string
}

type fileConfig struct {
	Output  string `yaml:"output"`
	Strict  *bool  `yaml:"strict"`
	Timeout string `yaml:"timeout"`
	Retries *int   `yaml:"retries"`
	Network string `yaml:"network"`
	RPC     struct {
		URL   string `yaml:"url"`
		L1URL string `yaml:"l1_url"`
	} `yaml:"rpc"`
	Cache struct {
		Enabled  *bool  `yaml:"enabled"`
		MaxStale string `yaml:"max_stale"`
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"cache"`
	Watch struct {
		StorePath string `yaml:"store_path"`
		LockPath  string `yaml:"lock_path"`
		Interval  string `yaml:"interval"`
		Window    *int64 `yaml:"window"`
	} `yaml:"watch"`
	Providers struct {
		Scrollscan struct {
			APIKey    string `yaml:"api_key"`
			APIKeyEnv string `yaml:"api_key_env"`
			BaseURL   string `yaml:"base_url"`
		} `yaml:"scrollscan"`
		Rollup struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"rollup"`
		BridgeHistory struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"bridge_history"`
		Subgraph struct {
			URL string `yaml:"url"`
		} `yaml:"subgraph"`
		Bundler struct {
			URL string `yaml:"url"`
		} `yaml:"bundler"`
	} `yaml:"providers"`
}

func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}

	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 15 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.MaxStale < 0 {
		settings.MaxStale = 5 * time.Minute
	}
	if settings.WatchInterval <= 0 {
		settings.WatchInterval = 15 * time.Second
	}
	if settings.WatchWindow <= 0 {
		settings.WatchWindow = 1000
	}
	if settings.Network == "" {
		settings.Network = "scroll"
	}

	return settings, nil
}

func defaultSettings() (Settings, error) {
	cachePath, lockPath, err := defaultCachePaths()
	if err != nil {
		return Settings{}, err
	}
	cacheDir := filepath.Dir(cachePath)
	return Settings{
		OutputMode:     "json",
		Timeout:        15 * time.Second,
		Retries:        2,
		MaxStale:       5 * time.Minute,
		CacheEnabled:   true,
		CachePath:      cachePath,
		CacheLockPath:  lockPath,
		WatchStorePath: filepath.Join(cacheDir, "watch.db"),
		WatchLockPath:  filepath.Join(cacheDir, "watch.lock"),
		WatchInterval:  15 * time.Second,
		WatchWindow:    1000,
		Network:        "scroll",
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "scroll", "config.yaml"), nil
}

func defaultCachePaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "scroll")
	return filepath.Join(dir, "cache.db"), filepath.Join(dir, "cache.lock"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Output != "" {
		settings.OutputMode = strings.ToLower(cfg.Output)
	}
	if cfg.Strict != nil {
		settings.Strict = *cfg.Strict
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.Network != "" {
		settings.Network = strings.ToLower(strings.TrimSpace(cfg.Network))
	}
	if cfg.RPC.URL != "" {
		settings.RPCURL = cfg.RPC.URL
	}
	if cfg.RPC.L1URL != "" {
		settings.L1RPCURL = cfg.RPC.L1URL
	}
	if cfg.Cache.Enabled != nil {
		settings.CacheEnabled = *cfg.Cache.Enabled
	}
	if cfg.Cache.MaxStale != "" {
		d, err := time.ParseDuration(cfg.Cache.MaxStale)
		if err != nil {
			return fmt.Errorf("config cache.max_stale: %w", err)
		}
		settings.MaxStale = d
	}
	if cfg.Cache.Path != "" {
		settings.CachePath = cfg.Cache.Path
	}
	if cfg.Cache.LockPath != "" {
		settings.CacheLockPath = cfg.Cache.LockPath
	}
	if cfg.Watch.StorePath != "" {
		settings.WatchStorePath = cfg.Watch.StorePath
	}
	if cfg.Watch.LockPath != "" {
		settings.WatchLockPath = cfg.Watch.LockPath
	}
	if cfg.Watch.Interval != "" {
		d, err := time.ParseDuration(cfg.Watch.Interval)
		if err != nil {
			return fmt.Errorf("config watch.interval: %w", err)
		}
		settings.WatchInterval = d
	}
	if cfg.Watch.Window != nil {
		settings.WatchWindow = *cfg.Watch.Window
	}
	if cfg.Providers.Scrollscan.APIKey != "" {
		settings.ScrollscanAPIKey = cfg.Providers.Scrollscan.APIKey
	}
	if cfg.Providers.Scrollscan.APIKeyEnv != "" {
		settings.ScrollscanAPIKey = os.Getenv(cfg.Providers.Scrollscan.APIKeyEnv)
	}
	if cfg.Providers.Scrollscan.BaseURL != "" {
		settings.ScrollscanBaseURL = cfg.Providers.Scrollscan.BaseURL
	}
	if cfg.Providers.Rollup.BaseURL != "" {
		settings.RollupAPIBaseURL = cfg.Providers.Rollup.BaseURL
	}
	if cfg.Providers.BridgeHistory.BaseURL != "" {
		settings.BridgeHistoryBaseURL = cfg.Providers.BridgeHistory.BaseURL
	}
	if cfg.Providers.Subgraph.URL != "" {
		settings.SubgraphURL = cfg.Providers.Subgraph.URL
	}
	if cfg.Providers.Bundler.URL != "" {
		settings.BundlerURL = cfg.Providers.Bundler.URL
	}

	return nil
}

func applyEnv(settings *Settings) {
	if v := os.Getenv("SCROLL_OUTPUT"); v != "" {
		settings.OutputMode = strings.ToLower(v)
	}
	if v := os.Getenv("SCROLL_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.Strict = b
		}
	}
	if v := os.Getenv("SCROLL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := os.Getenv("SCROLL_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Retries = n
		}
	}
	if v := os.Getenv("SCROLL_MAX_STALE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.MaxStale = d
		}
	}
	if v := os.Getenv("SCROLL_NO_STALE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.NoStale = b
		}
	}
	if v := os.Getenv("SCROLL_NO_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.CacheEnabled = !b
		}
	}
	if v := os.Getenv("SCROLL_CACHE_PATH"); v != "" {
		settings.CachePath = v
	}
	if v := os.Getenv("SCROLL_CACHE_LOCK_PATH"); v != "" {
		settings.CacheLockPath = v
	}
	if v := os.Getenv("SCROLL_WATCH_STORE_PATH"); v != "" {
		settings.WatchStorePath = v
	}
	if v := os.Getenv("SCROLL_WATCH_LOCK_PATH"); v != "" {
		settings.WatchLockPath = v
	}
	if v := os.Getenv("SCROLL_WATCH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.WatchInterval = d
		}
	}
	if v := os.Getenv("SCROLL_NETWORK"); v != "" {
		settings.Network = strings.ToLower(v)
	}
	if v := os.Getenv("SCROLL_RPC_URL"); v != "" {
		settings.RPCURL = v
	}
	if v := os.Getenv("SCROLL_L1_RPC_URL"); v != "" {
		settings.L1RPCURL = v
	}
	if v := os.Getenv("SCROLLSCAN_API_KEY"); v != "" {
		settings.ScrollscanAPIKey = v
	}
	if v := os.Getenv("SCROLL_SCROLLSCAN_URL"); v != "" {
		settings.ScrollscanBaseURL = v
	}
	if v := os.Getenv("SCROLL_ROLLUP_API_URL"); v != "" {
		settings.RollupAPIBaseURL = v
	}
	if v := os.Getenv("SCROLL_BRIDGE_API_URL"); v != "" {
		settings.BridgeHistoryBaseURL = v
	}
	if v := os.Getenv("SCROLL_SUBGRAPH_URL"); v != "" {
		settings.SubgraphURL = v
	}
	if v := os.Getenv("SCROLL_BUNDLER_URL"); v != "" {
		settings.BundlerURL = v
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return fmt.Errorf("cannot use --json and --plain together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if strings.TrimSpace(flags.Select) != "" {
		parts := strings.Split(flags.Select, ",")
		fields := make([]string, 0, len(parts))
		for _, part := range parts {
			f := strings.TrimSpace(part)
			if f != "" {
				fields = append(fields, f)
			}
		}
		settings.SelectFields = fields
	}
	settings.ResultsOnly = flags.ResultsOnly

	if strings.TrimSpace(flags.EnableCommands) != "" {
		parts := strings.Split(flags.EnableCommands, ",")
		allowed := make([]string, 0, len(parts))
		for _, part := range parts {
			v := strings.TrimSpace(part)
			if v != "" {
				allowed = append(allowed, v)
			}
		}
		settings.EnableCommands = allowed
	}

	if flags.Strict {
		settings.Strict = true
	}
	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if flags.MaxStale != "" {
		d, err := time.ParseDuration(flags.MaxStale)
		if err != nil {
			return fmt.Errorf("parse --max-stale: %w", err)
		}
		settings.MaxStale = d
	}
	if flags.NoStale {
		settings.NoStale = true
	}
	if flags.NoCache {
		settings.CacheEnabled = false
	}
	if strings.TrimSpace(flags.Network) != "" {
		settings.Network = strings.ToLower(strings.TrimSpace(flags.Network))
	}
	if strings.TrimSpace(flags.RPCURL) != "" {
		settings.RPCURL = strings.TrimSpace(flags.RPCURL)
	}
	if strings.TrimSpace(flags.L1RPCURL) != "" {
		settings.L1RPCURL = strings.TrimSpace(flags.L1RPCURL)
	}

	if settings.OutputMode != "json" && settings.OutputMode != "plain" {
		return fmt.Errorf("output must be json or plain")
	}

	return nil
}
