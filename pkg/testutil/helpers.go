// Package testutil provides common utility functions for testing.
package testutil

import (
	"context"
	"testing"

	"github.com/mauriciotejada/labor-economics/internal/config"
	"github.com/mauriciotejada/labor-economics/internal/market"
	"go.uber.org/zap"
)

// FindScenario finds a scenario by name in the results slice.
// Returns a pointer to the equilibrium if found, nil otherwise.
func FindScenario(results []market.Equilibrium, name string) *market.Equilibrium {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// SolveFile loads the configuration at path and solves its active
// scenarios, failing the test on any error.
func SolveFile(t testing.TB, path string) []market.Equilibrium {
	t.Helper()

	conf, err := config.LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration(%s) error = %v", path, err)
	}
	results, err := market.GetEquilibria(context.Background(), zap.NewNop(), *conf)
	if err != nil {
		t.Fatalf("GetEquilibria(%s) error = %v", path, err)
	}
	return results
}
