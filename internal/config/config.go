/*-------------------------------------------------------------------------
 *
 * config.go
 *    YAML-backed configuration for the coupling runtime
 *
 * XML configuration parsing (the original project's format) is out of
 * scope per spec.md; this is a from-scratch YAML schema covering the same
 * configure() inputs: participants, their used meshes, data read/write
 * contexts, M2N wiring, and the coupling scheme.
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/config/config.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/precice-go/precice/internal/cerr"
)

/* Config is the root of a coupling configuration document */
type Config struct {
	Meshes       []MeshConfig       `yaml:"meshes"`
	Participants []ParticipantConfig `yaml:"participants"`
	Scheme       SchemeConfig       `yaml:"coupling-scheme"`
	Logging      LoggingConfig      `yaml:"logging"`
	Export       ExportConfig       `yaml:"export"`
}

/* MeshConfig declares a mesh's name, dimensionality, and data arrays */
type MeshConfig struct {
	Name     string       `yaml:"name"`
	SpaceDim int          `yaml:"dimensions"`
	Data     []DataConfig `yaml:"data"`
}

/* DataConfig declares one named data array on a mesh */
type DataConfig struct {
	Name      string `yaml:"name"`
	Dimension int    `yaml:"dimension"` /* 1 = scalar, spaceDim = vector */
}

/* ParticipantConfig describes one solver's use of meshes and data */
type ParticipantConfig struct {
	Name       string          `yaml:"name"`
	Address    string          `yaml:"address"` /* host:port this participant listens on for its M2N master channel */
	UsesMeshes []MeshUse       `yaml:"use-mesh"`
	Reads      []DataContext   `yaml:"read-data"`
	Writes     []DataContext   `yaml:"write-data"`
	Watchpoints []Watchpoint   `yaml:"watchpoints"`
}

/* MeshUse is one participant's relationship to one mesh */
type MeshUse struct {
	Mesh         string  `yaml:"mesh"`
	Provide      bool    `yaml:"provide"`
	From         string  `yaml:"from"` /* participant this mesh is received from, if not provided */
	SafetyFactor float64 `yaml:"safety-factor"`
	FilterMode   string  `yaml:"filter-on"` /* "master", "slaves", "none" */
}

/* DataContext names one data array on one mesh. It names no target data; MappingTiming and
 * Initial are parsed but not read anywhere else in the module. */
type DataContext struct {
	Data          string `yaml:"data"`
	Mesh          string `yaml:"mesh"`
	MappingTiming string `yaml:"mapping-timing"` /* "initial", "on-advance", or "" for no mapping */
	Initial       bool   `yaml:"initial"`         /* this write-data has a declared initial value */
}

/* Watchpoint names a mesh vertex position to export every call to advance() */
type Watchpoint struct {
	Name     string    `yaml:"name"`
	Mesh     string    `yaml:"mesh"`
	Position []float64 `yaml:"position"`
}

/* SchemeConfig configures the CouplingScheme */
type SchemeConfig struct {
	Kind              string             `yaml:"type"` /* "serial", "parallel", "multi" */
	Mode              string             `yaml:"mode"` /* "explicit", "implicit" */
	FirstParticipant  string             `yaml:"first-participant"`
	SecondParticipant string             `yaml:"second-participant"`
	ControllerParticipant string         `yaml:"controller-participant"`
	TimeWindowSize    float64            `yaml:"time-window-size"`
	MaxTime           float64            `yaml:"max-time"`
	MaxTimeWindows    int                `yaml:"max-time-windows"`
	MaxIterations     int                `yaml:"max-iterations"`
	ValidDigits       int                `yaml:"valid-digits"`
	Exchanges         []ExchangeConfig   `yaml:"exchange"`
	ConvergenceMeasures []ConvergenceMeasureConfig `yaml:"convergence-measure"`
	Accelerator       AcceleratorConfig  `yaml:"acceleration"`
}

/* ExchangeConfig declares one data array flowing from one participant to another */
type ExchangeConfig struct {
	Data string `yaml:"data"`
	Mesh string `yaml:"mesh"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

/* ConvergenceMeasureConfig configures one relative-L2 convergence measure */
type ConvergenceMeasureConfig struct {
	Data      string  `yaml:"data"`
	Mesh      string  `yaml:"mesh"`
	Tolerance float64 `yaml:"relative-tolerance"`
	Suffices  bool    `yaml:"suffices"`
}

/* AcceleratorConfig configures the implicit-iteration accelerator */
type AcceleratorConfig struct {
	Kind         string  `yaml:"type"` /* "constant", "aitken", "quasi-newton" */
	Omega        float64 `yaml:"initial-relaxation"`
	MaxHistory   int     `yaml:"max-used-iterations"`
}

/* LoggingConfig configures the process-global logger */
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

/* ExportConfig configures periodic geometry+data exports */
type ExportConfig struct {
	Directory string        `yaml:"directory"`
	Every     int           `yaml:"every-n-timesteps"`
	Timeout   time.Duration `yaml:"timeout"`
}

/* Load reads and parses a YAML configuration document from path */
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerr.ConfigErrorf(err, "read config %q failed", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, cerr.ConfigErrorf(err, "parse config %q failed", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Participants) == 0 {
		return cerr.ConfigError("configuration declares no participants")
	}
	switch c.Scheme.Kind {
	case "serial":
		if c.Scheme.FirstParticipant == "" || c.Scheme.SecondParticipant == "" {
			return cerr.ConfigError("serial coupling-scheme requires first-participant and second-participant")
		}
	case "parallel":
		if c.Scheme.FirstParticipant == "" || c.Scheme.SecondParticipant == "" {
			return cerr.ConfigError("parallel coupling-scheme requires first-participant and second-participant")
		}
	case "multi":
		if c.Scheme.ControllerParticipant == "" {
			return cerr.ConfigError("multi coupling-scheme requires a controller-participant")
		}
	default:
		return cerr.ConfigError("coupling-scheme type %q is not one of serial, parallel, multi", c.Scheme.Kind)
	}
	return nil
}

/* Participant looks up a participant's declaration by name */
func (c *Config) Participant(name string) (*ParticipantConfig, error) {
	for i := range c.Participants {
		if c.Participants[i].Name == name {
			return &c.Participants[i], nil
		}
	}
	return nil, cerr.ConfigError("participant %q is not declared in configuration", name)
}

/* Mesh looks up a mesh's declaration by name */
func (c *Config) Mesh(name string) (*MeshConfig, error) {
	for i := range c.Meshes {
		if c.Meshes[i].Name == name {
			return &c.Meshes[i], nil
		}
	}
	return nil, cerr.ConfigError("mesh %q is not declared in configuration", name)
}

/* getEnv returns the environment variable's value or a default, following the teacher's convention */
func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

/* ApplyEnvOverrides lets PRECICE_LOG_LEVEL / PRECICE_EXPORT_DIR override the parsed document */
func (c *Config) ApplyEnvOverrides() {
	c.Logging.Level = getEnv("PRECICE_LOG_LEVEL", c.Logging.Level)
	c.Export.Directory = getEnv("PRECICE_EXPORT_DIR", c.Export.Directory)
}
