package testutil

import (
	"testing"

	"github.com/mauriciotejada/labor-economics/internal/market"
)

func TestFindScenario(t *testing.T) {
	results := []market.Equilibrium{
		{Name: "Scenario A", Unemployment: 0.10},
		{Name: "Scenario B", Unemployment: 0.12},
		{Name: "Another Scenario", Unemployment: 0.08},
	}

	tests := []struct {
		name         string
		searchName   string
		expectFound  bool
		expectedRate float64
	}{
		{
			name:         "Find existing scenario A",
			searchName:   "Scenario A",
			expectFound:  true,
			expectedRate: 0.10,
		},
		{
			name:         "Find existing scenario B",
			searchName:   "Scenario B",
			expectFound:  true,
			expectedRate: 0.12,
		},
		{
			name:         "Find scenario with longer name",
			searchName:   "Another Scenario",
			expectFound:  true,
			expectedRate: 0.08,
		},
		{
			name:        "Search for non-existent scenario",
			searchName:  "Non-existent",
			expectFound: false,
		},
		{
			name:        "Names are case sensitive",
			searchName:  "scenario a",
			expectFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindScenario(results, tt.searchName)

			if !tt.expectFound {
				if result != nil {
					t.Errorf("expected no scenario for %q, got %s", tt.searchName, result.Name)
				}
				return
			}
			if result == nil {
				t.Fatalf("expected to find scenario %q", tt.searchName)
			}
			if result.Unemployment != tt.expectedRate {
				t.Errorf("expected unemployment %v, got %v", tt.expectedRate, result.Unemployment)
			}
		})
	}
}

func TestFindScenarioReturnsElement(t *testing.T) {
	results := []market.Equilibrium{{Name: "baseline"}}

	found := FindScenario(results, "baseline")
	if found == nil {
		t.Fatal("expected to find baseline")
	}
	found.Unemployment = 0.5
	if results[0].Unemployment != 0.5 {
		t.Errorf("FindScenario should point into the results slice")
	}
}

func TestFindScenarioEmpty(t *testing.T) {
	if FindScenario(nil, "baseline") != nil {
		t.Errorf("expected nil for empty results")
	}
}

func TestSolveFile(t *testing.T) {
	results := SolveFile(t, "../../test/test_config.yaml")

	if len(results) != 3 {
		t.Fatalf("expected 3 active scenarios, got %d", len(results))
	}
	if FindScenario(results, "baseline") == nil {
		t.Errorf("expected baseline among the results")
	}
}
