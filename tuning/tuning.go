// Package tuning searches for a proposal spread that gives a chain a target
// acceptance rate.
package tuning

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/pinning/density"
	"github.com/pthm-cable/pinning/mcmc"
	"github.com/pthm-cable/pinning/random"
)

// Spread bounds searched, in units of the field width.
const (
	MinStdDev = 1e-4
	MaxStdDev = 1.0
)

// Params configures a search.
type Params struct {
	Options  mcmc.Options // StdDev is the starting point
	Target   float64      // desired acceptance rate in (0,1)
	Steps    int          // Metropolis steps per evaluation
	Seed     uint64       // every evaluation replays this stream
	MaxEvals int
}

// Eval records one objective evaluation.
type Eval struct {
	StdDev         float64
	AcceptanceRate float64
	Loss           float64
}

// Result is the best spread found.
type Result struct {
	Eval
	Evaluations int
	History     []Eval
}

// TuneStdDev minimizes (rate - target)^2 over log(stddev) with Nelder-Mead.
// Each evaluation runs a fresh chain from the same seed so the objective is
// deterministic.
func TuneStdDev(field density.Field, p Params) (Result, error) {
	if !(p.Target > 0 && p.Target < 1) {
		return Result{}, fmt.Errorf("%w: target %v must be in (0,1)", mcmc.ErrInvalidParameter, p.Target)
	}
	if p.Steps < 1 || p.MaxEvals < 1 {
		return Result{}, fmt.Errorf("%w: steps and max evals must be positive", mcmc.ErrInvalidParameter)
	}
	// Fail fast on bad options before the optimizer swallows the error.
	if _, err := mcmc.New(field, random.New(p.Seed), p.Options); err != nil {
		return Result{}, err
	}

	var res Result
	res.Loss = math.Inf(1)
	var evalErr error

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			sd := clampStdDev(math.Exp(x[0]))
			rate, err := acceptanceRate(field, p, sd)
			if err != nil {
				evalErr = err
				return math.Inf(1)
			}
			e := Eval{StdDev: sd, AcceptanceRate: rate, Loss: (rate - p.Target) * (rate - p.Target)}
			res.History = append(res.History, e)
			if e.Loss < res.Loss {
				res.Eval = e
			}
			return e.Loss
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: p.MaxEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-6,
			Iterations: 10,
		},
	}
	method := &optimize.NelderMead{SimplexSize: 1}

	initX := []float64{math.Log(clampStdDev(p.Options.StdDev))}
	// Evaluation is sequential; the best point is tracked in Func.
	_, err := optimize.Minimize(problem, initX, settings, method)
	if evalErr != nil {
		return Result{}, evalErr
	}
	if len(res.History) == 0 {
		if err == nil {
			err = errors.New("tuning: no evaluations")
		}
		return Result{}, err
	}
	res.Evaluations = len(res.History)
	return res, nil
}

func acceptanceRate(field density.Field, p Params, sd float64) (float64, error) {
	opts := p.Options
	opts.StdDev = sd
	s, err := mcmc.New(field, random.New(p.Seed), opts)
	if err != nil {
		return 0, err
	}
	s.Reset()
	for range p.Steps {
		s.Step()
	}
	return s.Counters().AcceptanceRate(), nil
}

func clampStdDev(sd float64) float64 {
	if math.IsNaN(sd) {
		return MinStdDev
	}
	return math.Max(MinStdDev, math.Min(MaxStdDev, sd))
}
