// Package constants provides shared constants for the labor-economics application.
package constants

import "time"

// Solver defaults
const (
	// DefaultTolerance is the absolute convergence tolerance used by both
	// the reservation and the tightness loops.
	DefaultTolerance = 1e-6

	// DefaultStep is the relaxation factor applied to each proposed update.
	DefaultStep = 0.5

	// DefaultMaxIterations caps each loop of the equilibrium solver.
	DefaultMaxIterations = 1000

	// DefaultInitialTightness is the starting guess for market tightness.
	DefaultInitialTightness = 1.0

	// DefaultInitialReservation is the starting guess for the reservation
	// productivity.
	DefaultInitialReservation = 1.0

	// DefaultParallelism is the number of scenarios solved concurrently.
	DefaultParallelism = 4
)

// Numerical routine defaults
const (
	// DefaultQuadraturePoints is the number of Gauss-Legendre nodes per panel.
	DefaultQuadraturePoints = 16

	// DefaultQuadratureRelTolerance is the relative error accepted for a
	// tail integral evaluated outside a solve.
	DefaultQuadratureRelTolerance = 1e-9

	// DefaultQuadratureAbsTolerance is the absolute error accepted for a
	// tail integral evaluated outside a solve.
	DefaultQuadratureAbsTolerance = 1e-10

	// DefaultQuadratureMaxPanels caps the adaptive subdivision of a tail
	// integral.
	DefaultQuadratureMaxPanels = 200

	// QuadratureToleranceRatio scales the solver tolerance into the error
	// accepted for each tail integral during a solve.
	QuadratureToleranceRatio = 1e-3

	// DefaultRootTolerance is the bracket width at which Brent's method stops.
	DefaultRootTolerance = 1e-12

	// DefaultRootMaxIterations caps Brent's method.
	DefaultRootMaxIterations = 200

	// DefaultBracketExpansions caps the number of bracket expansions around
	// the initial guess.
	DefaultBracketExpansions = 60

	// DefaultBracketFactor is the multiplicative bracket growth per expansion.
	DefaultBracketFactor = 2.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultMaxScenarios caps the active scenarios accepted per request
	DefaultMaxScenarios = 32

	// DefaultSolveTimeout bounds the solves of a single request
	DefaultSolveTimeout = 60 * time.Second
)
