// Package config loads owlite settings from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/owlite"
	"github.com/hupe1980/owlite/image"
	"github.com/hupe1980/owlite/reason"
	"github.com/hupe1980/owlite/resource"
)

// Config is the complete owlite configuration.
type Config struct {
	Reasoner  ReasonerConfig  `yaml:"reasoner"`
	Interner  InternerConfig  `yaml:"interner"`
	Resources ResourcesConfig `yaml:"resources"`
	Image     ImageConfig     `yaml:"image"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Axioms    []AxiomConfig   `yaml:"axioms"`
}

// ReasonerConfig configures materialization.
type ReasonerConfig struct {
	// MaxIterations bounds each transitive closure (default: 32).
	MaxIterations int `yaml:"max_iterations"`
	// Workers bounds concurrent closure computation (default: 1).
	Workers int `yaml:"workers"`
	// FunctionalPolicy is "keep-first" (default) or "report-only".
	FunctionalPolicy string `yaml:"functional_policy"`
	// TypePredicate is the predicate asserted by domain and range axioms.
	TypePredicate string `yaml:"type_predicate"`
}

// InternerConfig configures the string table.
type InternerConfig struct {
	Capacity   int  `yaml:"capacity"`
	Fixed      bool `yaml:"fixed"`
	MaxEntries int  `yaml:"max_entries"`
}

// ResourcesConfig bounds memory and I/O. Zero means unlimited.
type ResourcesConfig struct {
	MemoryLimitBytes   int64 `yaml:"memory_limit_bytes"`
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec"`
	MaxWorkers         int64 `yaml:"max_workers"`
}

// ImageConfig configures image I/O.
type ImageConfig struct {
	VerifyChecksum bool `yaml:"verify_checksum"`
	// Compression is the codec of published images: "none", "lz4" or "zstd".
	Compression string `yaml:"compression"`
}

// StorageConfig selects where images are published.
type StorageConfig struct {
	// Kind is "local", "s3" or "minio".
	Kind  string      `yaml:"kind"`
	Local LocalConfig `yaml:"local"`
	S3    S3Config    `yaml:"s3"`
	MinIO MinIOConfig `yaml:"minio"`
	// CacheBytes enables an in-memory read cache of fetched blobs.
	CacheBytes int64 `yaml:"cache_bytes"`
}

// LocalConfig configures a directory blob store.
type LocalConfig struct {
	Root string `yaml:"root"`
}

// S3Config configures an S3 blob store. Credentials come from the default
// AWS credential chain.
type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// MinIOConfig configures a MinIO blob store.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// AxiomConfig declares an axiom by name.
type AxiomConfig struct {
	Kind     string `yaml:"kind"`
	Property string `yaml:"property"`
	Class    string `yaml:"class,omitempty"`
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig() *Config {
	return &Config{
		Reasoner: ReasonerConfig{
			MaxIterations:    reason.DefaultMaxIterations,
			Workers:          1,
			FunctionalPolicy: "keep-first",
			TypePredicate:    owlite.DefaultTypeName,
		},
		Interner: InternerConfig{
			Capacity: 1024,
		},
		Image: ImageConfig{
			VerifyChecksum: true,
			Compression:    "zstd",
		},
		Storage: StorageConfig{
			Kind:  "local",
			Local: LocalConfig{Root: "."},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Reasoner.MaxIterations <= 0 {
		errs = append(errs, errors.New("reasoner.max_iterations must be positive"))
	}
	if c.Reasoner.Workers < 0 {
		errs = append(errs, errors.New("reasoner.workers must not be negative"))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, err)
	}
	if c.Reasoner.TypePredicate == "" {
		errs = append(errs, errors.New("reasoner.type_predicate is required"))
	}
	if c.Interner.Capacity <= 0 {
		errs = append(errs, errors.New("interner.capacity must be positive"))
	}
	if c.Resources.MemoryLimitBytes < 0 || c.Resources.IOLimitBytesPerSec < 0 || c.Resources.MaxWorkers < 0 {
		errs = append(errs, errors.New("resources limits must not be negative"))
	}
	if _, err := image.ParseCompression(c.Image.Compression); err != nil {
		errs = append(errs, fmt.Errorf("image.compression: %w", err))
	}

	switch c.Storage.Kind {
	case "local":
		if c.Storage.Local.Root == "" {
			errs = append(errs, errors.New("storage.local.root is required"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.bucket is required"))
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			errs = append(errs, errors.New("storage.minio.endpoint and storage.minio.bucket are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.kind %q must be local, s3 or minio", c.Storage.Kind))
	}
	if c.Storage.CacheBytes < 0 {
		errs = append(errs, errors.New("storage.cache_bytes must not be negative"))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}

	for i, a := range c.Axioms {
		kind, err := reason.ParseKind(a.Kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("axioms[%d]: %w", i, err))
			continue
		}
		if a.Property == "" {
			errs = append(errs, fmt.Errorf("axioms[%d]: property is required", i))
		}
		needsClass := kind == reason.KindDomain || kind == reason.KindRange
		if needsClass && a.Class == "" {
			errs = append(errs, fmt.Errorf("axioms[%d]: %s needs a class", i, kind))
		}
		if !needsClass && a.Class != "" {
			errs = append(errs, fmt.Errorf("axioms[%d]: %s takes no class", i, kind))
		}
	}

	return errors.Join(errs...)
}

// Policy returns the functional-property policy.
func (c *Config) Policy() (reason.Policy, error) {
	switch strings.ToLower(c.Reasoner.FunctionalPolicy) {
	case "", "keep-first":
		return reason.PolicyKeepFirst, nil
	case "report-only":
		return reason.PolicyReportOnly, nil
	default:
		return 0, fmt.Errorf("reasoner.functional_policy %q must be keep-first or report-only", c.Reasoner.FunctionalPolicy)
	}
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Logger builds the configured logger.
func (c *Config) Logger() *owlite.Logger {
	level, err := c.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	if c.Log.Format == "json" {
		return owlite.NewJSONLogger(level)
	}
	return owlite.NewTextLogger(level)
}

// Compression returns the configured codec.
func (c *Config) Compression() image.Compression {
	comp, err := image.ParseCompression(c.Image.Compression)
	if err != nil {
		return image.CompressionZSTD
	}
	return comp
}

// ResourceController builds a controller, or nil when no limit is set.
func (c *Config) ResourceController() *resource.Controller {
	r := c.Resources
	if r.MemoryLimitBytes == 0 && r.IOLimitBytesPerSec == 0 && r.MaxWorkers == 0 {
		return nil
	}
	return resource.NewController(resource.Config{
		MemoryLimitBytes:   r.MemoryLimitBytes,
		IOLimitBytesPerSec: r.IOLimitBytesPerSec,
		MaxWorkers:         r.MaxWorkers,
	})
}

// Options converts the configuration to Graph options.
func (c *Config) Options() []owlite.Option {
	policy, _ := c.Policy()
	opts := []owlite.Option{
		owlite.WithMaxIterations(c.Reasoner.MaxIterations),
		owlite.WithWorkers(c.Reasoner.Workers),
		owlite.WithFunctionalPolicy(policy),
		owlite.WithTypeName(c.Reasoner.TypePredicate),
		owlite.WithLogger(c.Logger()),
		owlite.WithMaxEntries(c.Interner.MaxEntries),
	}
	if c.Interner.Fixed {
		opts = append(opts, owlite.WithFixedInternerCapacity(c.Interner.Capacity))
	} else {
		opts = append(opts, owlite.WithInternerCapacity(c.Interner.Capacity))
	}
	if rc := c.ResourceController(); rc != nil {
		opts = append(opts, owlite.WithResourceController(rc))
	}
	return opts
}

// DeclareAxioms declares every configured axiom on g, in order.
func (c *Config) DeclareAxioms(g *owlite.Graph) error {
	for i, a := range c.Axioms {
		kind, err := reason.ParseKind(a.Kind)
		if err != nil {
			return fmt.Errorf("axioms[%d]: %w", i, err)
		}
		if err := g.DeclareAxiom(kind, a.Property, a.Class); err != nil {
			return fmt.Errorf("axioms[%d]: %w", i, err)
		}
	}
	return nil
}

// LoadFromFile loads a YAML file over DefaultConfig.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge merges other into c. Non-zero values in other take precedence and
// its axioms are appended.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Reasoner.MaxIterations != 0 {
		c.Reasoner.MaxIterations = other.Reasoner.MaxIterations
	}
	if other.Reasoner.Workers != 0 {
		c.Reasoner.Workers = other.Reasoner.Workers
	}
	if other.Reasoner.FunctionalPolicy != "" {
		c.Reasoner.FunctionalPolicy = other.Reasoner.FunctionalPolicy
	}
	if other.Reasoner.TypePredicate != "" {
		c.Reasoner.TypePredicate = other.Reasoner.TypePredicate
	}

	if other.Interner.Capacity != 0 {
		c.Interner.Capacity = other.Interner.Capacity
	}
	if other.Interner.Fixed {
		c.Interner.Fixed = true
	}
	if other.Interner.MaxEntries != 0 {
		c.Interner.MaxEntries = other.Interner.MaxEntries
	}

	if other.Resources.MemoryLimitBytes != 0 {
		c.Resources.MemoryLimitBytes = other.Resources.MemoryLimitBytes
	}
	if other.Resources.IOLimitBytesPerSec != 0 {
		c.Resources.IOLimitBytesPerSec = other.Resources.IOLimitBytesPerSec
	}
	if other.Resources.MaxWorkers != 0 {
		c.Resources.MaxWorkers = other.Resources.MaxWorkers
	}

	if other.Image.Compression != "" {
		c.Image.Compression = other.Image.Compression
	}

	if other.Storage.Kind != "" {
		c.Storage.Kind = other.Storage.Kind
	}
	if other.Storage.Local.Root != "" {
		c.Storage.Local = other.Storage.Local
	}
	if other.Storage.S3.Bucket != "" {
		c.Storage.S3 = other.Storage.S3
	}
	if other.Storage.MinIO.Endpoint != "" {
		c.Storage.MinIO = other.Storage.MinIO
	}
	if other.Storage.CacheBytes != 0 {
		c.Storage.CacheBytes = other.Storage.CacheBytes
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}

	c.Axioms = append(c.Axioms, other.Axioms...)
}
