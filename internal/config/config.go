// Package config binds the daemon's tunables (spec §6) through viper: a
// codegraphd.config.{json,yaml,toml} file merges with CODEGRAPHD_-prefixed
// environment variables, viper resolving precedence. Flags are not bound
// here; cmd/root.go overlays --root/--out onto the loaded Config.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds every recognized option from spec §6 plus the root/output
// flags the teacher's CLI already exposes.
type Config struct {
	Root string `mapstructure:"root"`
	Out  string `mapstructure:"out"`

	GraphDir string `mapstructure:"graph_dir"`

	TargetReduction       int     `mapstructure:"target_reduction"`
	MinClusterSize        int     `mapstructure:"min_cluster_size"`
	MaxClusters           int     `mapstructure:"max_clusters"`
	SmallProjectThreshold int     `mapstructure:"small_project_threshold"`
	Resolution            float64 `mapstructure:"resolution"`

	QuiescenceDelayMS int `mapstructure:"quiescence_delay_ms"`
	BatchSize         int `mapstructure:"batch_size"`
	ExtractTimeoutS   int `mapstructure:"extract_timeout_s"`
	MemoryWarnMB      int `mapstructure:"memory_warn_mb"`
	WorkerParallelism int `mapstructure:"worker_parallelism"`

	IgnorePatterns []string `mapstructure:"ignore_patterns"`
}

// QuiescenceDelay is QuiescenceDelayMS as a time.Duration.
func (c Config) QuiescenceDelay() time.Duration {
	return time.Duration(c.QuiescenceDelayMS) * time.Millisecond
}

// ExtractTimeout is ExtractTimeoutS as a time.Duration.
func (c Config) ExtractTimeout() time.Duration {
	return time.Duration(c.ExtractTimeoutS) * time.Second
}

// Defaults returns the spec §6 default configuration.
func Defaults() Config {
	return Config{
		Root:                  ".",
		GraphDir:              ".graph",
		TargetReduction:       100,
		MinClusterSize:        2,
		MaxClusters:           50,
		SmallProjectThreshold: 20,
		Resolution:            1.0,
		QuiescenceDelayMS:     500,
		BatchSize:             10,
		ExtractTimeoutS:       30,
		MemoryWarnMB:          500,
		WorkerParallelism:     runtime.NumCPU(),
	}
}

// Load reads codegraphd.config.{json,yaml,toml} (or the explicit path in
// cfgFile) from the current directory, merges CODEGRAPHD_-prefixed
// environment variables, and overlays onto the spec defaults. When cfgFile
// is empty, a missing codegraphd.config file is not an error —
// viper.ReadInConfig's "not found" case is swallowed. An explicit cfgFile
// that cannot be read is returned as an error.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	for k, val := range defaultsMap() {
		v.SetDefault(k, val)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("codegraphd.config")
	}

	v.SetEnvPrefix("CODEGRAPHD")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

func defaultsMap() map[string]any {
	d := Defaults()
	return map[string]any{
		"root":                    d.Root,
		"graph_dir":               d.GraphDir,
		"target_reduction":        d.TargetReduction,
		"min_cluster_size":        d.MinClusterSize,
		"max_clusters":            d.MaxClusters,
		"small_project_threshold": d.SmallProjectThreshold,
		"resolution":              d.Resolution,
		"quiescence_delay_ms":     d.QuiescenceDelayMS,
		"batch_size":              d.BatchSize,
		"extract_timeout_s":       d.ExtractTimeoutS,
		"memory_warn_mb":          d.MemoryWarnMB,
		"worker_parallelism":      d.WorkerParallelism,
	}
}
