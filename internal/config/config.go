package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Temporal TemporalConfig `mapstructure:"temporal"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Log      LogConfig      `mapstructure:"log"`
}

// AnalysisConfig carries the thresholds and entry-point settings consumed
// by the analyses.
type AnalysisConfig struct {
	// MaxLines is a strict greater-than bound for oversized modules.
	MaxLines     int `mapstructure:"max_lines"`
	MaxClasses   int `mapstructure:"max_classes"`
	MaxFunctions int `mapstructure:"max_functions"`
	// MaxDepth bounds reported cycle length; 0 means unbounded.
	MaxDepth int `mapstructure:"max_depth"`

	// EntryPoints lists explicit root-relative entry files. When empty,
	// EntryPatterns (module base names) decide instead.
	EntryPoints   []string `mapstructure:"entry_points"`
	EntryPatterns []string `mapstructure:"entry_patterns"`
}

// ScanConfig controls source enumeration.
type ScanConfig struct {
	// SourceRoots are searched in order for absolute imports; an empty
	// entry means the project root.
	SourceRoots []string `mapstructure:"source_roots"`
	ExcludeDirs []string `mapstructure:"exclude_dirs"`
	Workers     int      `mapstructure:"workers"`
}

type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	// HealthAddr is the worker's health/metrics listen address.
	HealthAddr string `mapstructure:"health_addr"`
}

type TracingConfig struct {
	// OTLPEndpoint enables tracing when set, e.g. "localhost:4317".
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Environment  string  `mapstructure:"environment"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks configuration for issues and returns warnings. Nothing
// here is fatal; the analyzer prefers running with odd settings over
// refusing to run.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Analysis.MaxLines < 0 {
		warnings = append(warnings, fmt.Sprintf("analysis max_lines %d is negative, the default will be used", c.Analysis.MaxLines))
	}
	if c.Analysis.MaxClasses < 0 {
		warnings = append(warnings, fmt.Sprintf("analysis max_classes %d is negative, the default will be used", c.Analysis.MaxClasses))
	}
	if c.Analysis.MaxFunctions < 0 {
		warnings = append(warnings, fmt.Sprintf("analysis max_functions %d is negative, the default will be used", c.Analysis.MaxFunctions))
	}
	if c.Scan.Workers < 0 {
		warnings = append(warnings, fmt.Sprintf("scan workers %d is negative, the default pool size will be used", c.Scan.Workers))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}
	if c.Graph.URI != "" && c.Graph.Username == "" {
		warnings = append(warnings, "graph uri is configured but username is empty")
	}

	return warnings
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MaxLines:     500,
			MaxClasses:   5,
			MaxFunctions: 20,
		},
		Scan: ScanConfig{
			SourceRoots: []string{"", "src"},
			Workers:     4,
		},
		Temporal: TemporalConfig{
			Host:       "localhost:7233",
			Namespace:  "default",
			TaskQueue:  "depscope-analysis",
			HealthAddr: ":8090",
		},
		Tracing: TracingConfig{
			SampleRate:  1.0,
			Environment: "development",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from file and environment. An empty path loads
// defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DEPSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("analysis.max_lines", def.Analysis.MaxLines)
	v.SetDefault("analysis.max_classes", def.Analysis.MaxClasses)
	v.SetDefault("analysis.max_functions", def.Analysis.MaxFunctions)
	v.SetDefault("scan.source_roots", def.Scan.SourceRoots)
	v.SetDefault("scan.workers", def.Scan.Workers)
	v.SetDefault("temporal.host", def.Temporal.Host)
	v.SetDefault("temporal.namespace", def.Temporal.Namespace)
	v.SetDefault("temporal.task_queue", def.Temporal.TaskQueue)
	v.SetDefault("temporal.health_addr", def.Temporal.HealthAddr)
	v.SetDefault("tracing.sample_rate", def.Tracing.SampleRate)
	v.SetDefault("tracing.environment", def.Tracing.Environment)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
