// Package simconfig aggregates the parameters needed to reproduce a vcgame
// run: graph shape, algorithm selection, iteration budget, and the optional
// matching-market/event-log/graph-file overrides, loadable from an HCL file
// or built from CLI flags.
package simconfig

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// CapacityMode selects which vendor capacity regime the matching market
// runs under.
type CapacityMode string

const (
	CapacityInfinite CapacityMode = "infinite"
	CapacityLimited  CapacityMode = "limited"
	CapacityBoth     CapacityMode = "both"
)

// GeneratorKind names the graph family C11 should build when no graph file
// is supplied.
type GeneratorKind string

const (
	GeneratorRegular   GeneratorKind = "regular"
	GeneratorErdos     GeneratorKind = "erdos"
	GeneratorBarabasi  GeneratorKind = "barabasi"
)

// RunConfig is the full parameter set for one simulation.
type RunConfig struct {
	N             int           `hcl:"n,optional"`
	K             int           `hcl:"k,optional"`
	Generator     GeneratorKind `hcl:"generator,optional"`
	Algorithm     string        `hcl:"algorithm,optional"`
	ShapleyVersion int          `hcl:"shapley_version,optional"`
	MaxIterations int           `hcl:"max_iterations,optional"`
	Capacity      CapacityMode  `hcl:"capacity,optional"`
	GraphFile     string        `hcl:"graph_file,optional"`
	EventLogFile  string        `hcl:"event_log_file,optional"`
	Seed          int64         `hcl:"seed,optional"`
}

// DefaultRunConfig returns the reference tool's defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		N:              10000,
		K:              4,
		Generator:      GeneratorRegular,
		Algorithm:      "fp",
		ShapleyVersion: 1,
		MaxIterations:  100000,
		Capacity:       CapacityBoth,
		Seed:           1,
	}
}

// Validate rejects the malformed configurations named in §7: non-positive
// node counts, a degree that cannot be realised (k>=n or k*n odd for the
// regular generator), an unrecognised algorithm or generator name, and a
// non-positive iteration budget.
func (c RunConfig) Validate() error {
	if c.N <= 0 {
		return fmt.Errorf("simconfig: n must be > 0, got %d", c.N)
	}
	if c.K < 0 {
		return fmt.Errorf("simconfig: k must be >= 0, got %d", c.K)
	}
	switch c.Generator {
	case GeneratorRegular:
		if c.K >= c.N {
			return fmt.Errorf("simconfig: k (%d) must be < n (%d) for a regular graph", c.K, c.N)
		}
		if (c.K*c.N)%2 != 0 {
			return fmt.Errorf("simconfig: k*n must be even for a %d-regular graph on %d vertices", c.K, c.N)
		}
	case GeneratorErdos, GeneratorBarabasi:
	default:
		return fmt.Errorf("simconfig: unknown generator %q", c.Generator)
	}
	switch c.Algorithm {
	case "brd", "rm", "fp", "fp-async", "shapley":
	default:
		return fmt.Errorf("simconfig: unknown algorithm %q", c.Algorithm)
	}
	if c.ShapleyVersion < 1 || c.ShapleyVersion > 3 {
		return fmt.Errorf("simconfig: shapley version must be 1, 2 or 3, got %d", c.ShapleyVersion)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("simconfig: max iterations must be > 0, got %d", c.MaxIterations)
	}
	switch c.Capacity {
	case CapacityInfinite, CapacityLimited, CapacityBoth:
	default:
		return fmt.Errorf("simconfig: unknown capacity mode %q", c.Capacity)
	}
	return nil
}

// Load reads an HCL configuration file. A missing file is not an error: it
// silently yields DefaultRunConfig, per §4.16 — the file is declared
// optional.
func Load(path string) (RunConfig, error) {
	def := DefaultRunConfig()
	if path == "" {
		return def, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return def, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return RunConfig{}, fmt.Errorf("simconfig: parse %s: %s", path, diags.Error())
	}
	var cfg RunConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return RunConfig{}, fmt.Errorf("simconfig: decode %s: %s", path, diags.Error())
	}

	if cfg.N == 0 {
		cfg.N = def.N
	}
	if cfg.K == 0 {
		cfg.K = def.K
	}
	if cfg.Generator == "" {
		cfg.Generator = def.Generator
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = def.Algorithm
	}
	if cfg.ShapleyVersion == 0 {
		cfg.ShapleyVersion = def.ShapleyVersion
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.Capacity == "" {
		cfg.Capacity = def.Capacity
	}
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}
	return cfg, nil
}
