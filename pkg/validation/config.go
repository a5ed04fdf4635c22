package validation

import (
	"fmt"
)

// Thresholds used for plausibility warnings.
const (
	coarseTolerance    = 1e-3
	fewIterations      = 50
	highSeparationRate = 1.0
)

// ParameterValues holds the scalar model parameters of one scenario.
type ParameterValues struct {
	UnemploymentIncome float64
	SeparationRate     float64
	BargainingPower    float64
}

// SolverValues holds the solver tuning values.
type SolverValues struct {
	Tolerance     float64
	Step          float64
	MaxIterations int
}

// ScenarioConfig is the validation view of a scenario.
type ScenarioConfig struct {
	Name       string
	Active     bool
	Parameters ParameterValues
}

// ConfigValidator collects plausibility warnings for a whole configuration.
// Hard errors are reported when parameters are built; these are the
// configurations that are valid but likely unintended.
type ConfigValidator struct {
	Solver    SolverValues
	Scenarios []ScenarioConfig
}

// ValidateSolver warns about solver settings that are legal but risky.
func ValidateSolver(s SolverValues) []string {
	var warnings []string

	if s.Step == 1 {
		warnings = append(warnings, "Solver step of 1 disables damping - the reservation fixed point may oscillate without converging")
	}
	if s.Tolerance > coarseTolerance {
		warnings = append(warnings, fmt.Sprintf("Solver tolerance %g is coarse (> %g) - reported equilibrium may be imprecise",
			s.Tolerance, coarseTolerance))
	}
	if s.MaxIterations > 0 && s.MaxIterations < fewIterations {
		warnings = append(warnings, fmt.Sprintf("Solver maxIterations %d is low (< %d) - convergence errors are likely",
			s.MaxIterations, fewIterations))
	}

	return warnings
}

// ValidateParameters warns about parameter values at the edge of the
// economically meaningful range.
func ValidateParameters(scope string, p ParameterValues) []string {
	var warnings []string

	if p.BargainingPower == 0 {
		warnings = append(warnings, fmt.Sprintf("%s has bargaining power 0 - workers accept any match above the income floor", scope))
	}
	if p.BargainingPower == 1 {
		warnings = append(warnings, fmt.Sprintf("%s has bargaining power 1 - firms earn no surplus and no tightness satisfies job creation", scope))
	}
	if p.UnemploymentIncome < 0 {
		warnings = append(warnings, fmt.Sprintf("%s has a negative unemployment income (%g)", scope, p.UnemploymentIncome))
	}
	if p.SeparationRate > highSeparationRate {
		warnings = append(warnings, fmt.Sprintf("%s has separation rate %g above %g per period", scope, p.SeparationRate, highSeparationRate))
	}

	return warnings
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	warnings := ValidateSolver(cv.Solver)

	seen := make(map[string]bool)
	active := 0
	for _, scenario := range cv.Scenarios {
		if seen[scenario.Name] {
			warnings = append(warnings, fmt.Sprintf("Scenario name '%s' is used more than once", scenario.Name))
		}
		seen[scenario.Name] = true

		if !scenario.Active {
			continue
		}
		active++
		warnings = append(warnings, ValidateParameters(fmt.Sprintf("Scenario '%s'", scenario.Name), scenario.Parameters)...)
	}

	if active == 0 {
		warnings = append(warnings, "No active scenarios - nothing will be solved")
	}

	return warnings
}
