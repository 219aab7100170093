// Package grade maps aggregate deviation statistics to a letter grade
// and a numerical score using an ordered threshold table. The scoring
// policy (band interpolation, max-deviation penalties) reproduces the
// grading scheme this system has always used; the constants are tunable
// policy, not structural invariants.
package grade

import (
	"fmt"
	"math"

	"github.com/chazu/calipers/pkg/distance"
)

// Letter is a letter grade.
type Letter string

// Band pairs a grade with the largest mean deviation it accepts.
type Band struct {
	Grade     Letter  `yaml:"grade"`
	Threshold float64 `yaml:"max_mean_deviation"`
}

// Table is an ordered threshold table. Thresholds must be strictly
// increasing and the final entry is the catch-all grade with an
// unbounded threshold. Grading walks the table in order and picks the
// first entry whose threshold covers the mean deviation; the explicit
// ordering is load-bearing, never an incidental map iteration order.
type Table []Band

// DefaultTable returns the standard grading scale in model-space units
// after normalization.
func DefaultTable() Table {
	return Table{
		{Grade: "A", Threshold: 0.1},
		{Grade: "B", Threshold: 0.5},
		{Grade: "C", Threshold: 1.0},
		{Grade: "D", Threshold: 2.0},
		{Grade: "F", Threshold: math.Inf(1)},
	}
}

// Validate checks the table invariants: at least one entry, strictly
// increasing thresholds, unbounded catch-all last.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("grade: threshold table is empty")
	}
	for i := 1; i < len(t); i++ {
		if !(t[i].Threshold > t[i-1].Threshold) {
			return fmt.Errorf("grade: thresholds must be strictly increasing (%q=%v then %q=%v)",
				t[i-1].Grade, t[i-1].Threshold, t[i].Grade, t[i].Threshold)
		}
	}
	if !math.IsInf(t[len(t)-1].Threshold, 1) {
		return fmt.Errorf("grade: last table entry %q must have an unbounded threshold", t[len(t)-1].Grade)
	}
	return nil
}

// Threshold returns the mean-deviation bound for a grade, or NaN if the
// grade is not in the table.
func (t Table) Threshold(g Letter) float64 {
	for _, b := range t {
		if b.Grade == g {
			return b.Threshold
		}
	}
	return math.NaN()
}

// ScoreBand is the numerical score range a letter grade maps onto.
type ScoreBand struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Policy bundles everything the calculator needs: the threshold table,
// the per-grade score bands and the secondary penalty constants.
type Policy struct {
	Table Table
	Bands map[Letter]ScoreBand

	// Penalties for localized severe errors that a mean cannot see.
	SevereMaxCutoff   float64 // max deviation above this loses SeverePenalty
	SeverePenalty     float64
	ModerateMaxCutoff float64 // else above this loses ModeratePenalty
	ModeratePenalty   float64

	// CatchAllDecay is the per-unit-deviation score loss below the
	// catch-all band minimum.
	CatchAllDecay float64
}

// DefaultPolicy returns the standard scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		Table: DefaultTable(),
		Bands: map[Letter]ScoreBand{
			"A": {Min: 95, Max: 100},
			"B": {Min: 85, Max: 94},
			"C": {Min: 75, Max: 84},
			"D": {Min: 65, Max: 74},
			"F": {Min: 0, Max: 64},
		},
		SevereMaxCutoff:   5.0,
		SeverePenalty:     10,
		ModerateMaxCutoff: 3.0,
		ModeratePenalty:   5,
		CatchAllDecay:     10,
	}
}

// Result is the terminal grading artifact: the letter grade, the score
// in [0,100] and the deviation metrics carried through from the report.
type Result struct {
	Letter Letter
	Score  float64

	MeanDeviation float64
	MaxDeviation  float64
	StdDeviation  float64
	P95           float64
	Hausdorff     float64
}

// Calculate derives the grade and score for a distance report.
//
// The letter is the first table entry whose threshold covers the mean
// deviation. The score lands in the grade's band: the top grade decays
// linearly from the band maximum as deviation approaches its threshold;
// the catch-all grade decays below its band minimum with no floor other
// than zero; every intermediate grade interpolates the deviation between
// the previous (stricter) threshold and its own onto the band. A max
// deviation past the penalty cutoffs subtracts a flat amount, and the
// final score is clamped to [0,100].
func Calculate(rep *distance.Report, p Policy) (Result, error) {
	if err := p.Table.Validate(); err != nil {
		return Result{}, err
	}

	idx := len(p.Table) - 1
	for i, b := range p.Table {
		if rep.Mean <= b.Threshold {
			idx = i
			break
		}
	}
	letter := p.Table[idx].Grade
	band, ok := p.Bands[letter]
	if !ok {
		return Result{}, fmt.Errorf("grade: no score band for grade %q", letter)
	}

	var score float64
	switch {
	case idx == len(p.Table)-1:
		// Catch-all: decay below the band minimum as deviation grows.
		score = math.Max(0, band.Min-rep.Mean*p.CatchAllDecay)
	case idx == 0:
		// Top grade: linear decay from band max toward band min.
		factor := math.Max(0, 1-rep.Mean/p.Table[0].Threshold)
		score = band.Min + (band.Max-band.Min)*factor
	default:
		// Intermediate: previous threshold maps to band max, own
		// threshold maps to band min.
		prev := p.Table[idx-1].Threshold
		curr := p.Table[idx].Threshold
		factor := (curr - rep.Mean) / (curr - prev)
		score = band.Min + (band.Max-band.Min)*factor
	}

	if rep.Max > p.SevereMaxCutoff {
		score -= p.SeverePenalty
	} else if rep.Max > p.ModerateMaxCutoff {
		score -= p.ModeratePenalty
	}

	score = math.Max(0, math.Min(100, score))

	return Result{
		Letter:        letter,
		Score:         math.Round(score*10) / 10,
		MeanDeviation: rep.Mean,
		MaxDeviation:  rep.Max,
		StdDeviation:  rep.Std,
		P95:           rep.P95,
		Hausdorff:     rep.Hausdorff,
	}, nil
}
