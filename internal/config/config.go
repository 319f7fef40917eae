// Package config loads this module's layered configuration: defaults,
// then a YAML file, then environment variables — the teacher's fs/config
// + configstruct layering (confirmed by the `configstruct` import in
// backend/local/local.go and backend/sftp/sftp.go), rendered with
// gopkg.in/yaml.v3 instead of a hand-rolled options registry. CLI flags
// do not override Options; the front-end's only config flag names the
// YAML file.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Options holds every tunable the core subsystems read at construction.
type Options struct {
	// Scheduler (§4.3)
	FileWorkers    int `yaml:"file_workers" env:"DIRSAIL_FILE_WORKERS"`
	PluginWorkers  int `yaml:"plugin_workers" env:"DIRSAIL_PLUGIN_WORKERS"`
	ProcessWorkers int `yaml:"process_workers" env:"DIRSAIL_PROCESS_WORKERS"`
	QueueDepth     int `yaml:"queue_depth" env:"DIRSAIL_QUEUE_DEPTH"`
	ProgressPeriod time.Duration `yaml:"progress_period" env:"DIRSAIL_PROGRESS_PERIOD"`

	// Preview / preload (§4.5)
	CacheRoot   string `yaml:"cache_root" env:"DIRSAIL_CACHE_ROOT"`
	PreloadLRU  int    `yaml:"preload_lru" env:"DIRSAIL_PRELOAD_LRU"`
	PreviewLRU  int    `yaml:"preview_lru" env:"DIRSAIL_PREVIEW_LRU"`

	// Watcher (§4.6)
	WatchDebounce  time.Duration `yaml:"watch_debounce" env:"DIRSAIL_WATCH_DEBOUNCE"`
	WatchBurstSize int           `yaml:"watch_burst_size" env:"DIRSAIL_WATCH_BURST_SIZE"`

	// SFTP (§4.2)
	SftpPoolSize int `yaml:"sftp_pool_size" env:"DIRSAIL_SFTP_POOL_SIZE"`

	// State/DDS (§6)
	StateDir string `yaml:"state_dir" env:"DIRSAIL_STATE_DIR"`
}

// Default returns the built-in defaults, matching the magnitudes named
// throughout spec.md (50ms progress period, 250ms/1000-path debounce,
// 4096-entry preload LRU).
func Default() Options {
	return Options{
		FileWorkers:    4,
		PluginWorkers:  2,
		ProcessWorkers: 2,
		QueueDepth:     256,
		ProgressPeriod: 50 * time.Millisecond,
		CacheRoot:      xdgCacheHome() + "/dirsail",
		PreloadLRU:     4096,
		PreviewLRU:     256,
		WatchDebounce:  250 * time.Millisecond,
		WatchBurstSize: 1000,
		SftpPoolSize:   4,
		StateDir:       xdgStateHome() + "/dirsail",
	}
}

func xdgCacheHome() string {
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return home + "/.cache"
}

func xdgStateHome() string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return home + "/.local/state"
}

// Load reads defaults, overlays a YAML file at path (if it exists), then
// overlays the environment variables applyEnv reads.
func Load(path string) (Options, error) {
	opt := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(b, &opt); err != nil {
				return opt, err
			}
		} else if !os.IsNotExist(err) {
			return opt, err
		}
	}
	applyEnv(&opt)
	return opt, nil
}

// applyEnv overlays the worker counts, QueueDepth, CacheRoot and StateDir
// from their `env`-tagged variables. The `env` tags on ProgressPeriod,
// PreloadLRU, PreviewLRU, WatchDebounce, WatchBurstSize and SftpPoolSize
// are not read; those fields keep their default or YAML value. Hand-rolled rather than a reflection-heavy envconfig-style library
// since the struct is small and fixed; kept reflection-free to match the
// cost/benefit the teacher itself applies (rclone's own configstruct does
// use reflection, but over a much larger, runtime-registered option set —
// this module's Options is closed and compile-time known).
func applyEnv(o *Options) {
	if v, ok := lookupInt("DIRSAIL_FILE_WORKERS"); ok {
		o.FileWorkers = v
	}
	if v, ok := lookupInt("DIRSAIL_PLUGIN_WORKERS"); ok {
		o.PluginWorkers = v
	}
	if v, ok := lookupInt("DIRSAIL_PROCESS_WORKERS"); ok {
		o.ProcessWorkers = v
	}
	if v, ok := lookupInt("DIRSAIL_QUEUE_DEPTH"); ok {
		o.QueueDepth = v
	}
	if v := os.Getenv("DIRSAIL_CACHE_ROOT"); v != "" {
		o.CacheRoot = v
	}
	if v := os.Getenv("DIRSAIL_STATE_DIR"); v != "" {
		o.StateDir = v
	}
}

func lookupInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
