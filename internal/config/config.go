// Package config provides the configuration schema and loader for phonoise.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// ProviderKind selects the homophone lookup backend.
type ProviderKind string

const (
	// ProviderDictionary looks homophones up in local word files.
	ProviderDictionary ProviderKind = "dictionary"

	// ProviderDatamuse queries the Datamuse word API.
	ProviderDatamuse ProviderKind = "datamuse"

	// ProviderNone disables homophone swaps.
	ProviderNone ProviderKind = "none"
)

// IsValid reports whether k is a recognised provider kind.
func (k ProviderKind) IsValid() bool {
	switch k {
	case ProviderDictionary, ProviderDatamuse, ProviderNone:
		return true
	}
	return false
}

// Format selects the dataset output encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatTSV      Format = "tsv"
	FormatJSON     Format = "json"
	FormatXLSX     Format = "xlsx"
	FormatPostgres Format = "postgres"
)

// IsValid reports whether f is a recognised output format.
func (f Format) IsValid() bool {
	switch f {
	case FormatCSV, FormatTSV, FormatJSON, FormatXLSX, FormatPostgres:
		return true
	}
	return false
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// Seed seeds the noising RNG. Zero seeds from the clock.
	Seed uint64 `yaml:"seed"`

	Noise     NoiseConfig     `yaml:"noise"`
	Homophone HomophoneConfig `yaml:"homophone"`
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// NoiseConfig tunes the noising engine.
type NoiseConfig struct {
	// Percent is the fraction of a line's tokens spent as corruption budget.
	Percent float64 `yaml:"percent"`

	// MaxStalls bounds consecutive failed edit attempts per line.
	MaxStalls int `yaml:"max_stalls"`

	// Guidebook maps operation names to their budget cost. Empty means the
	// built-in costs.
	Guidebook map[string]float64 `yaml:"guidebook"`
}

// HomophoneConfig selects and tunes the homophone lookup backends.
type HomophoneConfig struct {
	Provider ProviderKind `yaml:"provider"`

	// DictionaryFiles are YAML or TSV files of explicit homophone groups.
	DictionaryFiles []string `yaml:"dictionary_files"`

	// WordLists are plain word lists from which phonetic neighbours are
	// derived.
	WordLists []string `yaml:"word_lists"`

	// Similarity is the minimum Jaro-Winkler score for derived homophones.
	Similarity float64 `yaml:"similarity"`

	// BaseURL overrides the Datamuse endpoint.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each lookup.
	Timeout time.Duration `yaml:"timeout"`

	// Fallback puts the dictionary behind the remote provider when both are
	// configured.
	Fallback bool `yaml:"fallback"`

	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig tunes the breaker guarding each lookup backend.
type CircuitBreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// InputConfig locates the transcript file.
type InputConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig controls where and how noised pairs are written.
type OutputConfig struct {
	// Dir is the directory the output file is created in.
	Dir string `yaml:"dir"`

	// Name is the user-chosen part of the output file name.
	Name string `yaml:"name"`

	Format Format `yaml:"format"`

	// PostgresDSN is required when Format is postgres.
	PostgresDSN string `yaml:"postgres_dsn"`

	// Table is the Postgres table receiving pairs.
	Table string `yaml:"table"`
}

// TelemetryConfig controls the metrics endpoint.
type TelemetryConfig struct {
	// MetricsAddr, when set, serves Prometheus metrics on /metrics for the
	// duration of the run (e.g. ":9090").
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns a [Config] populated with the built-in defaults.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Noise: NoiseConfig{
			Percent:   0.3,
			MaxStalls: 64,
		},
		Homophone: HomophoneConfig{
			Provider:   ProviderDictionary,
			Similarity: 0.80,
			Timeout:    2 * time.Second,
			Fallback:   true,
			CircuitBreaker: CircuitBreakerConfig{
				MaxFailures:  5,
				ResetTimeout: 30 * time.Second,
			},
		},
		Output: OutputConfig{
			Dir:    ".",
			Format: FormatCSV,
			Table:  "noised_pairs",
		},
	}
}
