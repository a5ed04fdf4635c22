// Package config defines the data structures related to configuration and
// includes functions for loading the config and turning it into solver input.
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/mauriciotejada/labor-economics/pkg/distribution"
	"github.com/mauriciotejada/labor-economics/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for labor-equilibrium.
type Configuration struct {
	Common    Common
	Scenarios []Scenario
	Solver    SolverConfig  `yaml:"solver,omitempty"`
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// SolverConfig tunes the equilibrium solver. Zero values fall back to the
// package defaults.
type SolverConfig struct {
	Tolerance          float64       `yaml:"tolerance,omitempty"`
	Step               float64       `yaml:"step,omitempty"`
	MaxIterations      int           `yaml:"maxIterations,omitempty"`
	InitialTightness   float64       `yaml:"initialTightness,omitempty"`
	InitialReservation float64       `yaml:"initialReservation,omitempty"`
	Timeout            time.Duration `yaml:"timeout,omitempty"`     // per scenario, 0 for none
	Parallelism        int           `yaml:"parallelism,omitempty"` // concurrent scenario solves
}

// ModelParameters holds the scalar structural parameters of the model.
type ModelParameters struct {
	UnemploymentIncome float64 `yaml:"unemploymentIncome"`
	SeparationRate     float64 `yaml:"separationRate"`
	MatchingScale      float64 `yaml:"matchingScale"`
	MatchingElasticity float64 `yaml:"matchingElasticity"`
	BargainingPower    float64 `yaml:"bargainingPower"`
	DiscountRate       float64 `yaml:"discountRate"`
	VacancyCost        float64 `yaml:"vacancyCost"`
}

// Common holds the parameters shared between all scenarios.
type Common struct {
	Parameters   ModelParameters
	Productivity distribution.Config
}

// Scenario holds the overrides for a given scenario. Unset fields inherit
// from Common.
type Scenario struct {
	Name         string
	Active       bool
	Parameters   ParameterOverrides
	Productivity *distribution.Config `yaml:"productivity,omitempty"`
	Calibration  *Calibration         `yaml:"calibration,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// ActiveScenarios returns the scenarios flagged active, in configuration order.
func (c *Configuration) ActiveScenarios() []Scenario {
	var active []Scenario
	for _, scenario := range c.Scenarios {
		if scenario.Active {
			active = append(active, scenario)
		}
	}
	return active
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	opts := c.SolverOptions()
	cv := validation.ConfigValidator{
		Solver: validation.SolverValues{
			Tolerance:     opts.Tolerance,
			Step:          opts.Step,
			MaxIterations: opts.MaxIterations,
		},
	}

	for _, scenario := range c.Scenarios {
		merged := scenario.Parameters.Apply(c.Common.Parameters)
		cv.Scenarios = append(cv.Scenarios, validation.ScenarioConfig{
			Name:   scenario.Name,
			Active: scenario.Active,
			Parameters: validation.ParameterValues{
				UnemploymentIncome: merged.UnemploymentIncome,
				SeparationRate:     merged.SeparationRate,
				BargainingPower:    merged.BargainingPower,
			},
		})
	}

	return cv.ValidateAll()
}
