package config

import (
	"fmt"

	"github.com/mauriciotejada/labor-economics/pkg/constants"
	"github.com/mauriciotejada/labor-economics/pkg/distribution"
	"github.com/mauriciotejada/labor-economics/pkg/equilibrium"
)

// ParameterOverrides replaces individual common parameters for one scenario.
type ParameterOverrides struct {
	UnemploymentIncome *float64 `yaml:"unemploymentIncome,omitempty"`
	SeparationRate     *float64 `yaml:"separationRate,omitempty"`
	MatchingScale      *float64 `yaml:"matchingScale,omitempty"`
	MatchingElasticity *float64 `yaml:"matchingElasticity,omitempty"`
	BargainingPower    *float64 `yaml:"bargainingPower,omitempty"`
	DiscountRate       *float64 `yaml:"discountRate,omitempty"`
	VacancyCost        *float64 `yaml:"vacancyCost,omitempty"`
}

// Apply returns base with every set override substituted.
func (o ParameterOverrides) Apply(base ModelParameters) ModelParameters {
	merged := base
	override := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	override(&merged.UnemploymentIncome, o.UnemploymentIncome)
	override(&merged.SeparationRate, o.SeparationRate)
	override(&merged.MatchingScale, o.MatchingScale)
	override(&merged.MatchingElasticity, o.MatchingElasticity)
	override(&merged.BargainingPower, o.BargainingPower)
	override(&merged.DiscountRate, o.DiscountRate)
	override(&merged.VacancyCost, o.VacancyCost)
	return merged
}

// ProductivityConfig returns the distribution in effect for scenario.
func (c *Configuration) ProductivityConfig(scenario Scenario) distribution.Config {
	if scenario.Productivity != nil {
		return *scenario.Productivity
	}
	return c.Common.Productivity
}

// ScenarioParameters builds the solver parameters for scenario from the
// common values and the scenario overrides. Each call constructs a fresh
// distribution so the result shares nothing with other scenarios.
func (c *Configuration) ScenarioParameters(scenario Scenario) (equilibrium.Parameters, error) {
	merged := scenario.Parameters.Apply(c.Common.Parameters)

	productivity, err := distribution.New(c.ProductivityConfig(scenario))
	if err != nil {
		return equilibrium.Parameters{}, fmt.Errorf("scenario %s: productivity: %w", scenario.Name, err)
	}

	params := equilibrium.Parameters{
		UnemploymentIncome: merged.UnemploymentIncome,
		SeparationRate:     merged.SeparationRate,
		MatchingScale:      merged.MatchingScale,
		MatchingElasticity: merged.MatchingElasticity,
		BargainingPower:    merged.BargainingPower,
		DiscountRate:       merged.DiscountRate,
		VacancyCost:        merged.VacancyCost,
		Productivity:       productivity,
	}
	if err := params.Validate(); err != nil {
		return equilibrium.Parameters{}, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	return params, nil
}

// SolverOptions returns the solver options with unset values defaulted.
// The observer is left for the caller to attach.
func (c *Configuration) SolverOptions() equilibrium.Options {
	opts := equilibrium.DefaultOptions()
	s := c.Solver
	if s.Tolerance != 0 {
		opts.Tolerance = s.Tolerance
	}
	if s.Step != 0 {
		opts.Step = s.Step
	}
	if s.MaxIterations != 0 {
		opts.MaxIterations = s.MaxIterations
	}
	if s.InitialTightness != 0 {
		opts.InitialTightness = s.InitialTightness
	}
	if s.InitialReservation != 0 {
		opts.InitialReservation = s.InitialReservation
	}
	return opts
}

// ParallelismOrDefault returns the number of scenarios to solve at once.
func (s SolverConfig) ParallelismOrDefault() int {
	if s.Parallelism > 0 {
		return s.Parallelism
	}
	return constants.DefaultParallelism
}
