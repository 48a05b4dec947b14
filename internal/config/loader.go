package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rcoulter13/phonoise/internal/noise"
)

// Environment variables read by [ApplyEnv].
const (
	EnvLogLevel     = "PHONOISE_LOG_LEVEL"
	EnvSeed         = "PHONOISE_SEED"
	EnvPercent      = "PHONOISE_PERCENT"
	EnvProvider     = "PHONOISE_HOMOPHONE_PROVIDER"
	EnvBaseURL      = "PHONOISE_HOMOPHONE_BASE_URL"
	EnvTimeout      = "PHONOISE_HOMOPHONE_TIMEOUT"
	EnvOutputFormat = "PHONOISE_OUTPUT_FORMAT"
	EnvPostgresDSN  = "PHONOISE_POSTGRES_DSN"
	EnvMetricsAddr  = "PHONOISE_METRICS_ADDR"
)

// tablePattern restricts table names to plain SQL identifiers.
var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Load reads the YAML configuration file at path over [Default] and returns
// a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over [Default] and validates
// the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any PHONOISE_* variables present in the
// environment. Call it after loading .env files and before [Validate].
func ApplyEnv(cfg *Config) error {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup(EnvLogLevel); ok {
		cfg.LogLevel = LogLevel(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup(EnvSeed); ok {
		seed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvSeed, err))
		} else {
			cfg.Seed = seed
		}
	}
	if v, ok := lookup(EnvPercent); ok {
		p, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvPercent, err))
		} else {
			cfg.Noise.Percent = p
		}
	}
	if v, ok := lookup(EnvProvider); ok {
		cfg.Homophone.Provider = ProviderKind(strings.TrimSpace(v))
	}
	str(EnvBaseURL, &cfg.Homophone.BaseURL)
	if v, ok := lookup(EnvTimeout); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvTimeout, err))
		} else {
			cfg.Homophone.Timeout = d
		}
	}
	if v, ok := lookup(EnvOutputFormat); ok {
		cfg.Output.Format = Format(strings.TrimSpace(v))
	}
	str(EnvPostgresDSN, &cfg.Output.PostgresDSN)
	str(EnvMetricsAddr, &cfg.Telemetry.MetricsAddr)

	if len(errs) > 0 {
		return fmt.Errorf("config: environment: %w", errors.Join(errs...))
	}
	return nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	// Noise
	if cfg.Noise.Percent < 0 || cfg.Noise.Percent > 1 {
		errs = append(errs, fmt.Errorf("noise.percent %.3f is out of range [0, 1]", cfg.Noise.Percent))
	}
	if cfg.Noise.MaxStalls < 0 {
		errs = append(errs, fmt.Errorf("noise.max_stalls %d must not be negative", cfg.Noise.MaxStalls))
	}
	for name, cost := range cfg.Noise.Guidebook {
		if !noise.OpName(name).IsValid() {
			errs = append(errs, fmt.Errorf("noise.guidebook: unknown operation %q; valid values: assimilation, homophone, manner", name))
		}
		if cost <= 0 {
			errs = append(errs, fmt.Errorf("noise.guidebook.%s cost %.3f must be positive", name, cost))
		}
	}

	// Homophone
	h := cfg.Homophone
	if h.Provider != "" && !h.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("homophone.provider %q is invalid; valid values: dictionary, datamuse, none", h.Provider))
	}
	if h.Provider == ProviderDictionary && len(h.DictionaryFiles) == 0 && len(h.WordLists) == 0 {
		slog.Warn("homophone.provider is dictionary but no dictionary_files or word_lists are set; homophone swaps will always fail")
	}
	if h.Similarity < 0 || h.Similarity > 1 {
		errs = append(errs, fmt.Errorf("homophone.similarity %.3f is out of range [0, 1]", h.Similarity))
	}
	if h.Timeout < 0 {
		errs = append(errs, fmt.Errorf("homophone.timeout %v must not be negative", h.Timeout))
	}
	if h.CircuitBreaker.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("homophone.circuit_breaker.max_failures %d must not be negative", h.CircuitBreaker.MaxFailures))
	}

	// Output
	o := cfg.Output
	if o.Format != "" && !o.Format.IsValid() {
		errs = append(errs, fmt.Errorf("output.format %q is invalid; valid values: csv, tsv, json, xlsx, postgres", o.Format))
	}
	if o.Format == FormatPostgres {
		if o.PostgresDSN == "" {
			errs = append(errs, errors.New("output.postgres_dsn is required when output.format is postgres"))
		}
		if !tablePattern.MatchString(o.Table) {
			errs = append(errs, fmt.Errorf("output.table %q is not a valid identifier", o.Table))
		}
	}
	if strings.ContainsAny(o.Name, `/\`) {
		errs = append(errs, fmt.Errorf("output.name %q must not contain path separators", o.Name))
	}

	return errors.Join(errs...)
}

// Guidebook converts the configured costs into a [noise.Guidebook]. An empty
// table yields [noise.DefaultGuidebook].
func (c *Config) Guidebook() (noise.Guidebook, error) {
	if len(c.Noise.Guidebook) == 0 {
		return noise.DefaultGuidebook(), nil
	}
	costs := make(map[noise.OpName]float64, len(c.Noise.Guidebook))
	for name, cost := range c.Noise.Guidebook {
		costs[noise.OpName(name)] = cost
	}
	g, err := noise.NewGuidebook(costs)
	if err != nil {
		return noise.Guidebook{}, fmt.Errorf("config: guidebook: %w", err)
	}
	return g, nil
}
