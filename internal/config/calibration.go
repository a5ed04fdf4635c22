package config

import (
	"fmt"
	"math"
	"sort"
)

// Calibration asks for the value of one parameter, searched within
// [Min, Max], at which an equilibrium outcome reaches Target.
type Calibration struct {
	Parameter string  `yaml:"parameter"`
	Outcome   string  `yaml:"outcome"`
	Target    float64 `yaml:"target"`
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
}

// Calibration outcomes.
const (
	OutcomeReservationProductivity = "reservationProductivity"
	OutcomeTightness               = "tightness"
	OutcomeUnemployment            = "unemployment"
	OutcomeVacancies               = "vacancies"
)

// parameterFields maps configuration names to the fields of ModelParameters
// and ParameterOverrides.
var parameterFields = map[string]struct {
	get      func(*ModelParameters) *float64
	override func(*ParameterOverrides) **float64
}{
	"unemploymentIncome": {
		func(m *ModelParameters) *float64 { return &m.UnemploymentIncome },
		func(o *ParameterOverrides) **float64 { return &o.UnemploymentIncome },
	},
	"separationRate": {
		func(m *ModelParameters) *float64 { return &m.SeparationRate },
		func(o *ParameterOverrides) **float64 { return &o.SeparationRate },
	},
	"matchingScale": {
		func(m *ModelParameters) *float64 { return &m.MatchingScale },
		func(o *ParameterOverrides) **float64 { return &o.MatchingScale },
	},
	"matchingElasticity": {
		func(m *ModelParameters) *float64 { return &m.MatchingElasticity },
		func(o *ParameterOverrides) **float64 { return &o.MatchingElasticity },
	},
	"bargainingPower": {
		func(m *ModelParameters) *float64 { return &m.BargainingPower },
		func(o *ParameterOverrides) **float64 { return &o.BargainingPower },
	},
	"discountRate": {
		func(m *ModelParameters) *float64 { return &m.DiscountRate },
		func(o *ParameterOverrides) **float64 { return &o.DiscountRate },
	},
	"vacancyCost": {
		func(m *ModelParameters) *float64 { return &m.VacancyCost },
		func(o *ParameterOverrides) **float64 { return &o.VacancyCost },
	},
}

// ParameterNames returns the configurable parameter names in sorted order.
func ParameterNames() []string {
	names := make([]string, 0, len(parameterFields))
	for name := range parameterFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value returns the named parameter.
func (m ModelParameters) Value(name string) (float64, error) {
	field, ok := parameterFields[name]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", name)
	}
	return *field.get(&m), nil
}

// Set overrides the named parameter with v. The previous override, if any,
// is replaced rather than written through.
func (o *ParameterOverrides) Set(name string, v float64) error {
	field, ok := parameterFields[name]
	if !ok {
		return fmt.Errorf("unknown parameter %q", name)
	}
	*field.override(o) = &v
	return nil
}

// Validate checks that the calibration names a known parameter and outcome
// and describes a usable search interval.
func (c Calibration) Validate() error {
	if _, ok := parameterFields[c.Parameter]; !ok {
		return fmt.Errorf("calibration parameter %q is not one of %v", c.Parameter, ParameterNames())
	}
	switch c.Outcome {
	case OutcomeReservationProductivity, OutcomeTightness, OutcomeUnemployment, OutcomeVacancies:
	default:
		return fmt.Errorf("calibration outcome %q is not one of %s, %s, %s, %s", c.Outcome,
			OutcomeReservationProductivity, OutcomeTightness, OutcomeUnemployment, OutcomeVacancies)
	}
	if math.IsNaN(c.Target) || math.IsInf(c.Target, 0) {
		return fmt.Errorf("calibration target must be finite")
	}
	if !(c.Min < c.Max) || math.IsInf(c.Min, 0) || math.IsInf(c.Max, 0) {
		return fmt.Errorf("calibration interval [%v, %v] must be finite with min < max", c.Min, c.Max)
	}
	return nil
}
