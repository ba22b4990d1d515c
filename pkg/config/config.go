package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	ktoml "github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pelletier/go-toml"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/panbanda/jsflow/pkg/linter"
	"github.com/panbanda/jsflow/pkg/rules"
)

// Config holds all configuration options for jsflow.
type Config struct {
	// Rules maps rule ids to a severity or to [severity, options...].
	Rules map[string]any `koanf:"rules" toml:"rules" json:"rules"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" json:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache" json:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" json:"output"`

	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis" json:"analysis"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns" json:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs" json:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" json:"gitignore"`
}

// CacheConfig controls result caching.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled" json:"enabled"`
	Dir     string `koanf:"dir" toml:"dir" json:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl" json:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" json:"format"` // text, table, json, yaml, toon
	Color  bool   `koanf:"color" toml:"color" json:"color"`
}

// AnalysisConfig controls how files are processed.
type AnalysisConfig struct {
	Workers     int   `koanf:"workers" toml:"workers" json:"workers"` // 0 means one per CPU
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size" json:"max_file_size"`
	Trace       bool  `koanf:"trace" toml:"trace" json:"trace"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	recommended := make(map[string]any)
	for id, rc := range rules.Recommended() {
		recommended[id] = rc.Severity.String()
	}

	return &Config{
		Rules: recommended,
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.d.ts",
				"*.bundle.js",
			},
			Dirs: []string{
				"node_modules",
				".git",
				".jsflow",
				"dist",
				"build",
				"coverage",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".jsflow/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Analysis: AnalysisConfig{
			MaxFileSize: 1 << 20,
		},
	}
}

// parserFor picks a koanf parser from the file extension.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return kjson.Parser()
	default:
		return ktoml.Parser()
	}
}

func loadKoanf(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return k, nil
}

// Load loads configuration from a file on top of the defaults. Rules from
// the file are merged into the recommended set.
func Load(path string) (*Config, error) {
	k, err := loadKoanf(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cfg, nil
}

// FileNames are the config file names searched for, in order.
var FileNames = []string{
	"jsflow.toml",
	"jsflow.yaml",
	"jsflow.yml",
	"jsflow.json",
	".jsflow.toml",
	".jsflow.yaml",
	".jsflow.yml",
	".jsflow.json",
}

// Find returns the first config file found in dir or dir/.jsflow.
func Find(dir string) (string, bool) {
	for _, d := range []string{dir, filepath.Join(dir, ".jsflow")} {
		for _, name := range FileNames {
			path := filepath.Join(d, name)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}
	}
	return "", false
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	if path, ok := Find("."); ok {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// LoadResult is a loaded config and the file it came from. Source is empty
// when the defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path string
	dir  string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads a specific file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// WithDir searches dir instead of the working directory.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) { o.dir = dir }
}

// LoadConfig loads and validates configuration. Unlike LoadOrDefault it
// reports errors in the file it finds.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dir: "."}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		found, ok := Find(o.dir)
		if !ok {
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		path = found
	}

	if err := Validate(path); err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if _, err := cfg.RuleConfigs(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

//go:embed schema.json
var schemaJSON []byte

var schema = func() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("jsflow.schema.json", doc); err != nil {
		panic(err)
	}
	return c.MustCompile("jsflow.schema.json")
}()

// Validate checks a config file against the jsflow schema.
func Validate(path string) error {
	k, err := loadKoanf(path)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(k.Raw())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// RuleConfigs converts the rules section for the linter.
func (c *Config) RuleConfigs() (map[string]linter.RuleConfig, error) {
	out := make(map[string]linter.RuleConfig, len(c.Rules))
	for _, id := range slices.Sorted(maps.Keys(c.Rules)) {
		rc, err := parseRule(c.Rules[id])
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", id, err)
		}
		out[id] = rc
	}
	return out, nil
}

func parseRule(v any) (linter.RuleConfig, error) {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return linter.RuleConfig{}, fmt.Errorf("empty rule configuration")
		}
		sev, err := linter.ParseSeverity(list[0])
		if err != nil {
			return linter.RuleConfig{}, err
		}
		return linter.RuleConfig{Severity: sev, Options: list[1:]}, nil
	}

	sev, err := linter.ParseSeverity(v)
	if err != nil {
		return linter.RuleConfig{}, err
	}
	return linter.RuleConfig{Severity: sev}, nil
}

// Marshal renders cfg as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	out, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	sep := string(filepath.Separator)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, sep+dir+sep) || strings.HasPrefix(path, dir+sep) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
