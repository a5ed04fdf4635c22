// Package distribution defines the productivity distribution capability used
// by the equilibrium solver and provides concrete distributions backed by
// gonum's stat/distuv.
package distribution

import (
	"fmt"
	"math"
	"strings"

	"github.com/mauriciotejada/labor-economics/pkg/mathutil"
	"gonum.org/v1/gonum/stat/distuv"
)

// Supported distribution kinds.
const (
	KindLogNormal   = "lognormal"
	KindExponential = "exponential"
	KindPareto      = "pareto"
	KindWeibull     = "weibull"
)

// Provider evaluates the density and cumulative distribution of productivity.
// Any gonum distuv distribution satisfies it directly.
type Provider interface {
	Prob(y float64) float64
	CDF(y float64) float64
}

// Meaner is implemented by providers that know their mean. An infinite mean
// means the tail integral used by the solver diverges.
type Meaner interface {
	Mean() float64
}

// LowerBounder is implemented by providers whose support is bounded below.
type LowerBounder interface {
	LowerBound() float64
}

// continuous is the subset of a distuv distribution wrapped by Distribution.
type continuous interface {
	Provider
	Meaner
}

// Distribution is a Provider with a known support lower bound. Below the
// bound both density and CDF are zero, which keeps evaluation well defined
// for arguments where the underlying formulas produce NaN (log of a
// non-positive number, for example). The zero value evaluates to NaN
// everywhere and is rejected by Check.
type Distribution struct {
	kind  string
	desc  string
	lower float64
	dist  continuous
}

// Prob returns the density at y.
func (d Distribution) Prob(y float64) float64 {
	if d.dist == nil {
		return math.NaN()
	}
	if y <= d.lower {
		return 0
	}
	return d.dist.Prob(y)
}

// CDF returns the cumulative probability at y.
func (d Distribution) CDF(y float64) float64 {
	if d.dist == nil {
		return math.NaN()
	}
	if y <= d.lower {
		return 0
	}
	return d.dist.CDF(y)
}

// Mean returns the mean of the distribution.
func (d Distribution) Mean() float64 {
	if d.dist == nil {
		return math.NaN()
	}
	return d.dist.Mean()
}

// LowerBound returns the lower end of the support.
func (d Distribution) LowerBound() float64 {
	return d.lower
}

// Kind returns the distribution family name.
func (d Distribution) Kind() string {
	return d.kind
}

func (d Distribution) String() string {
	return d.desc
}

// LogNormal returns a log-normal distribution with log-mean mu and log
// standard deviation sigma.
func LogNormal(mu, sigma float64) (Distribution, error) {
	if !mathutil.IsFinite(mu) {
		return Distribution{}, fmt.Errorf("lognormal mu must be finite, got %v", mu)
	}
	if !(sigma > 0) || !mathutil.IsFinite(sigma) {
		return Distribution{}, fmt.Errorf("lognormal sigma must be positive, got %v", sigma)
	}
	return Distribution{
		kind:  KindLogNormal,
		desc:  fmt.Sprintf("lognormal(mu=%g, sigma=%g)", mu, sigma),
		lower: 0,
		dist:  distuv.LogNormal{Mu: mu, Sigma: sigma},
	}, nil
}

// Exponential returns an exponential distribution with the given rate.
func Exponential(rate float64) (Distribution, error) {
	if !(rate > 0) || !mathutil.IsFinite(rate) {
		return Distribution{}, fmt.Errorf("exponential rate must be positive, got %v", rate)
	}
	return Distribution{
		kind:  KindExponential,
		desc:  fmt.Sprintf("exponential(rate=%g)", rate),
		lower: 0,
		dist:  distuv.Exponential{Rate: rate},
	}, nil
}

// Pareto returns a Pareto distribution with minimum value scale and tail
// index shape. The mean is infinite when shape <= 1.
func Pareto(scale, shape float64) (Distribution, error) {
	if !(scale > 0) || !mathutil.IsFinite(scale) {
		return Distribution{}, fmt.Errorf("pareto scale must be positive, got %v", scale)
	}
	if !(shape > 0) || !mathutil.IsFinite(shape) {
		return Distribution{}, fmt.Errorf("pareto shape must be positive, got %v", shape)
	}
	return Distribution{
		kind:  KindPareto,
		desc:  fmt.Sprintf("pareto(scale=%g, shape=%g)", scale, shape),
		lower: scale,
		dist:  distuv.Pareto{Xm: scale, Alpha: shape},
	}, nil
}

// Weibull returns a Weibull distribution with scale lambda and shape k.
func Weibull(scale, shape float64) (Distribution, error) {
	if !(scale > 0) || !mathutil.IsFinite(scale) {
		return Distribution{}, fmt.Errorf("weibull scale must be positive, got %v", scale)
	}
	if !(shape > 0) || !mathutil.IsFinite(shape) {
		return Distribution{}, fmt.Errorf("weibull shape must be positive, got %v", shape)
	}
	return Distribution{
		kind:  KindWeibull,
		desc:  fmt.Sprintf("weibull(scale=%g, shape=%g)", scale, shape),
		lower: 0,
		dist:  distuv.Weibull{Lambda: scale, K: shape},
	}, nil
}

// Config selects and parameterizes a distribution.
type Config struct {
	Kind  string  `yaml:"kind" mapstructure:"kind"`
	Mu    float64 `yaml:"mu,omitempty" mapstructure:"mu"`
	Sigma float64 `yaml:"sigma,omitempty" mapstructure:"sigma"`
	Rate  float64 `yaml:"rate,omitempty" mapstructure:"rate"`
	Scale float64 `yaml:"scale,omitempty" mapstructure:"scale"`
	Shape float64 `yaml:"shape,omitempty" mapstructure:"shape"`
}

// CanonicalKind normalizes a distribution kind name.
func CanonicalKind(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "lognormal", "log-normal", "log_normal":
		return KindLogNormal
	case "exponential", "exp":
		return KindExponential
	case "pareto":
		return KindPareto
	case "weibull":
		return KindWeibull
	default:
		return strings.ToLower(strings.TrimSpace(kind))
	}
}

// New builds the distribution described by cfg.
func New(cfg Config) (Distribution, error) {
	switch CanonicalKind(cfg.Kind) {
	case KindLogNormal:
		return LogNormal(cfg.Mu, cfg.Sigma)
	case KindExponential:
		return Exponential(cfg.Rate)
	case KindPareto:
		return Pareto(cfg.Scale, cfg.Shape)
	case KindWeibull:
		return Weibull(cfg.Scale, cfg.Shape)
	case "":
		return Distribution{}, fmt.Errorf("distribution kind is required")
	default:
		return Distribution{}, fmt.Errorf("distribution kind %q is not supported", cfg.Kind)
	}
}

// Check probes p at y and reports a malformed provider: a nil provider, a
// negative or non-finite density, or a CDF outside [0, 1].
func Check(p Provider, y float64) error {
	if p == nil {
		return fmt.Errorf("distribution provider is nil")
	}
	density := p.Prob(y)
	if !mathutil.IsFinite(density) || density < 0 {
		return fmt.Errorf("density at %v is %v, expected a finite non-negative value", y, density)
	}
	cum := p.CDF(y)
	if !mathutil.IsFinite(cum) || cum < 0 || cum > 1 {
		return fmt.Errorf("cdf at %v is %v, expected a value in [0, 1]", y, cum)
	}
	return nil
}
