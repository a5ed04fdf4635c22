package validation

import (
	"strings"
	"testing"
)

func containsWarning(warnings []string, fragment string) bool {
	for _, w := range warnings {
		if strings.Contains(w, fragment) {
			return true
		}
	}
	return false
}

func TestValidateSolver(t *testing.T) {
	tests := []struct {
		name     string
		solver   SolverValues
		expected []string
	}{
		{
			name:     "Default settings",
			solver:   SolverValues{Tolerance: 1e-6, Step: 0.5, MaxIterations: 1000},
			expected: nil,
		},
		{
			name:     "Undamped step",
			solver:   SolverValues{Tolerance: 1e-6, Step: 1, MaxIterations: 1000},
			expected: []string{"disables damping"},
		},
		{
			name:     "Coarse tolerance",
			solver:   SolverValues{Tolerance: 0.01, Step: 0.5, MaxIterations: 1000},
			expected: []string{"coarse"},
		},
		{
			name:     "Few iterations",
			solver:   SolverValues{Tolerance: 1e-6, Step: 0.5, MaxIterations: 10},
			expected: []string{"is low"},
		},
		{
			name:     "Zero iterations left to defaults",
			solver:   SolverValues{Tolerance: 1e-6, Step: 0.5},
			expected: nil,
		},
		{
			name:     "Everything risky",
			solver:   SolverValues{Tolerance: 0.1, Step: 1, MaxIterations: 5},
			expected: []string{"disables damping", "coarse", "is low"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidateSolver(tt.solver)
			if len(warnings) != len(tt.expected) {
				t.Fatalf("ValidateSolver() returned %d warnings, want %d: %v", len(warnings), len(tt.expected), warnings)
			}
			for _, fragment := range tt.expected {
				if !containsWarning(warnings, fragment) {
					t.Errorf("ValidateSolver() missing warning containing %q: %v", fragment, warnings)
				}
			}
		})
	}
}

func TestValidateParameters(t *testing.T) {
	tests := []struct {
		name     string
		params   ParameterValues
		expected []string
	}{
		{
			name:     "Baseline",
			params:   ParameterValues{UnemploymentIncome: 1, SeparationRate: 0.05, BargainingPower: 0.5},
			expected: nil,
		},
		{
			name:     "Workers without bargaining power",
			params:   ParameterValues{UnemploymentIncome: 1, SeparationRate: 0.05, BargainingPower: 0},
			expected: []string{"bargaining power 0"},
		},
		{
			name:     "Workers with full bargaining power",
			params:   ParameterValues{UnemploymentIncome: 1, SeparationRate: 0.05, BargainingPower: 1},
			expected: []string{"bargaining power 1"},
		},
		{
			name:     "Negative unemployment income",
			params:   ParameterValues{UnemploymentIncome: -0.5, SeparationRate: 0.05, BargainingPower: 0.5},
			expected: []string{"negative unemployment income"},
		},
		{
			name:     "High separation rate",
			params:   ParameterValues{UnemploymentIncome: 1, SeparationRate: 2, BargainingPower: 0.5},
			expected: []string{"separation rate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidateParameters("Scenario 'test'", tt.params)
			if len(warnings) != len(tt.expected) {
				t.Fatalf("ValidateParameters() returned %d warnings, want %d: %v", len(warnings), len(tt.expected), warnings)
			}
			for _, fragment := range tt.expected {
				if !containsWarning(warnings, fragment) {
					t.Errorf("ValidateParameters() missing warning containing %q: %v", fragment, warnings)
				}
			}
			for _, w := range warnings {
				if !strings.HasPrefix(w, "Scenario 'test'") {
					t.Errorf("warning %q does not name its scope", w)
				}
			}
		})
	}
}

func TestConfigValidatorValidateAll(t *testing.T) {
	baseline := ParameterValues{UnemploymentIncome: 1, SeparationRate: 0.05, BargainingPower: 0.5}
	solver := SolverValues{Tolerance: 1e-6, Step: 0.5, MaxIterations: 1000}

	t.Run("Clean configuration", func(t *testing.T) {
		cv := &ConfigValidator{
			Solver: solver,
			Scenarios: []ScenarioConfig{
				{Name: "baseline", Active: true, Parameters: baseline},
				{Name: "generous", Active: true, Parameters: ParameterValues{UnemploymentIncome: 1.5, SeparationRate: 0.05, BargainingPower: 0.5}},
			},
		}
		if warnings := cv.ValidateAll(); len(warnings) != 0 {
			t.Fatalf("ValidateAll() = %v, want no warnings", warnings)
		}
	})

	t.Run("Duplicate names", func(t *testing.T) {
		cv := &ConfigValidator{
			Solver: solver,
			Scenarios: []ScenarioConfig{
				{Name: "baseline", Active: true, Parameters: baseline},
				{Name: "baseline", Active: false, Parameters: baseline},
			},
		}
		warnings := cv.ValidateAll()
		if !containsWarning(warnings, "used more than once") {
			t.Fatalf("ValidateAll() = %v, want duplicate name warning", warnings)
		}
	})

	t.Run("No active scenarios", func(t *testing.T) {
		cv := &ConfigValidator{
			Solver: solver,
			Scenarios: []ScenarioConfig{
				{Name: "baseline", Active: false, Parameters: baseline},
			},
		}
		warnings := cv.ValidateAll()
		if !containsWarning(warnings, "No active scenarios") {
			t.Fatalf("ValidateAll() = %v, want no active scenarios warning", warnings)
		}
	})

	t.Run("Inactive scenarios are not checked", func(t *testing.T) {
		cv := &ConfigValidator{
			Solver: solver,
			Scenarios: []ScenarioConfig{
				{Name: "baseline", Active: true, Parameters: baseline},
				{Name: "extreme", Active: false, Parameters: ParameterValues{BargainingPower: 1}},
			},
		}
		if warnings := cv.ValidateAll(); len(warnings) != 0 {
			t.Fatalf("ValidateAll() = %v, want no warnings", warnings)
		}
	})

	t.Run("Solver warnings come first", func(t *testing.T) {
		cv := &ConfigValidator{
			Solver: SolverValues{Tolerance: 1e-6, Step: 1, MaxIterations: 1000},
			Scenarios: []ScenarioConfig{
				{Name: "rigid", Active: true, Parameters: ParameterValues{UnemploymentIncome: 1, SeparationRate: 0.05, BargainingPower: 0}},
			},
		}
		warnings := cv.ValidateAll()
		if len(warnings) != 2 {
			t.Fatalf("ValidateAll() returned %d warnings, want 2: %v", len(warnings), warnings)
		}
		if !strings.Contains(warnings[0], "disables damping") {
			t.Errorf("first warning = %q, want solver warning", warnings[0])
		}
		if !strings.Contains(warnings[1], "Scenario 'rigid'") {
			t.Errorf("second warning = %q, want scenario warning", warnings[1])
		}
	})
}
