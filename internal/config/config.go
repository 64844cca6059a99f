package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/mitchell0000/boottrace/internal/trace"
)

//go:embed schema.cue
var schemaCUE string

// DefaultListen is the default administrative endpoint address.
const DefaultListen = ":9474"

// Config holds the tracing tunables.
type Config struct {
	// Table capacities in entries, clamped to trace.MinTableSize.
	BootTableSize     int `yaml:"boot_table_size"`
	RunTableSize      int `yaml:"run_table_size"`
	ShutdownTableSize int `yaml:"shutdown_table_size"`

	// ShutdownTrace enables the console dump on shutdown or panic;
	// ShutdownTraceThresholdMS filters that dump by event delta.
	ShutdownTrace            bool   `yaml:"shutdown_trace"`
	ShutdownTraceThresholdMS uint64 `yaml:"shutdown_trace_threshold_ms"`

	// PrintRecords logs every record call to stderr.
	PrintRecords bool `yaml:"print_records"`

	// Listen is the administrative endpoint address.
	Listen string `yaml:"listen"`
}

// Default returns the built-in tunables.
func Default() Config {
	return Config{
		BootTableSize:     trace.DefaultBootTableSize,
		RunTableSize:      trace.DefaultRunTableSize,
		ShutdownTableSize: trace.DefaultShutdownTableSize,
		Listen:            DefaultListen,
	}
}

// Load assembles the effective configuration: defaults, then the YAML
// file at path (skipped when path is empty), then environment overrides,
// then the size floor. File errors and schema violations are returned;
// a missing override variable is simply not an override.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := validate(path, data); err != nil {
			return Config{}, fmt.Errorf("validate config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.clampSizes()
	return cfg, nil
}

// validate unifies the YAML document with the embedded #Config schema.
// CUE reports unknown fields (the schema struct is closed) and value
// constraint violations in one pass.
func validate(path string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup schema: %w", err)
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return err
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return err
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("%s", cueerrors.Details(err, nil))
	}
	return nil
}

// Environment variable names, mirroring the YAML keys.
const (
	envBootTableSize     = "BOOTTRACE_BOOT_TABLE_SIZE"
	envRunTableSize      = "BOOTTRACE_RUN_TABLE_SIZE"
	envShutdownTableSize = "BOOTTRACE_SHUTDOWN_TABLE_SIZE"
	envShutdownTrace     = "BOOTTRACE_SHUTDOWN_TRACE"
	envShutdownThreshold = "BOOTTRACE_SHUTDOWN_TRACE_THRESHOLD_MS"
	envPrintRecords      = "BOOTTRACE_PRINT_RECORDS"
	envListen            = "BOOTTRACE_LISTEN"
)

func applyEnv(cfg *Config) error {
	if err := envInt(envBootTableSize, &cfg.BootTableSize); err != nil {
		return err
	}
	if err := envInt(envRunTableSize, &cfg.RunTableSize); err != nil {
		return err
	}
	if err := envInt(envShutdownTableSize, &cfg.ShutdownTableSize); err != nil {
		return err
	}
	if err := envBool(envShutdownTrace, &cfg.ShutdownTrace); err != nil {
		return err
	}
	if err := envUint64(envShutdownThreshold, &cfg.ShutdownTraceThresholdMS); err != nil {
		return err
	}
	if err := envBool(envPrintRecords, &cfg.PrintRecords); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(envListen); ok {
		cfg.Listen = v
	}
	return nil
}

func envInt(name string, dst *int) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("%s: %q is not a positive integer", name, v)
	}
	*dst = n
	return nil
}

func envUint64(name string, dst *uint64) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %q is not a non-negative integer", name, v)
	}
	*dst = n
	return nil
}

func envBool(name string, dst *bool) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not a boolean", name, v)
	}
	*dst = b
	return nil
}

// clampSizes applies the minimum capacity floor.
func (c *Config) clampSizes() {
	if c.BootTableSize < trace.MinTableSize {
		c.BootTableSize = trace.MinTableSize
	}
	if c.RunTableSize < trace.MinTableSize {
		c.RunTableSize = trace.MinTableSize
	}
	if c.ShutdownTableSize < trace.MinTableSize {
		c.ShutdownTableSize = trace.MinTableSize
	}
}
