package grade

import (
	"math"
	"math/rand"
	"testing"

	"github.com/chazu/calipers/pkg/distance"
	"github.com/chazu/calipers/pkg/sample"
)

func report(mean, max float64) *distance.Report {
	return &distance.Report{Mean: mean, Max: max}
}

func TestCalculateLetters(t *testing.T) {
	tests := []struct {
		name string
		mean float64
		want Letter
	}{
		{"well under A", 0.01, "A"},
		{"A boundary", 0.1, "A"},
		{"just past A", 0.10001, "B"},
		{"B", 0.3, "B"},
		{"C", 0.75, "C"},
		{"D", 1.5, "D"},
		{"F", 5, "F"},
	}
	p := DefaultPolicy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Calculate(report(tt.mean, tt.mean), p)
			if err != nil {
				t.Fatalf("Calculate: %v", err)
			}
			if res.Letter != tt.want {
				t.Errorf("Letter = %q, want %q", res.Letter, tt.want)
			}
		})
	}
}

func TestCalculateScores(t *testing.T) {
	tests := []struct {
		name      string
		mean, max float64
		want      float64
	}{
		// Top grade decays from 100 toward 95 across [0, 0.1].
		{"perfect", 0, 0, 100},
		{"half of A threshold", 0.05, 0.05, 97.5},
		// B interpolates [0.1, 0.5] onto [85, 94].
		{"B midpoint", 0.3, 0.3, 89.5},
		{"B at previous threshold", 0.1000001, 0.1, 94},
		// Catch-all decays below its band minimum: 0 - 10*mean.
		{"F", 3, 2, 0},
		// Penalties for localized severe errors.
		{"moderate max penalty", 0.05, 3.5, 92.5},
		{"severe max penalty", 0.05, 5.5, 87.5},
	}
	p := DefaultPolicy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Calculate(report(tt.mean, tt.max), p)
			if err != nil {
				t.Fatalf("Calculate: %v", err)
			}
			if math.Abs(res.Score-tt.want) > 0.05 {
				t.Errorf("Score = %v, want %v", res.Score, tt.want)
			}
		})
	}
}

func TestCalculateMonotonicity(t *testing.T) {
	// A lower mean deviation never grades worse, max held fixed.
	p := DefaultPolicy()
	rank := func(l Letter) int {
		for i, b := range p.Table {
			if b.Grade == l {
				return i
			}
		}
		t.Fatalf("unknown letter %q", l)
		return -1
	}

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		d1 := rng.Float64() * 4
		d2 := d1 + rng.Float64()*4
		max := math.Max(d1, d2)

		r1, err := Calculate(report(d1, max), p)
		if err != nil {
			t.Fatal(err)
		}
		r2, err := Calculate(report(d2, max), p)
		if err != nil {
			t.Fatal(err)
		}
		if rank(r1.Letter) > rank(r2.Letter) {
			t.Fatalf("mean %v graded %q but larger mean %v graded %q", d1, r1.Letter, d2, r2.Letter)
		}
	}
}

func TestCalculateScoreBounded(t *testing.T) {
	p := DefaultPolicy()
	rng := rand.New(rand.NewSource(12))
	for i := 0; i < 1000; i++ {
		mean := rng.Float64() * 20
		max := mean + rng.Float64()*20
		res, err := Calculate(report(mean, max), p)
		if err != nil {
			t.Fatal(err)
		}
		if res.Score < 0 || res.Score > 100 {
			t.Fatalf("Score = %v out of [0,100] for mean %v max %v", res.Score, mean, max)
		}
	}
}

func TestCalculateCatchAllOnlyTable(t *testing.T) {
	p := DefaultPolicy()
	p.Table = Table{{Grade: "F", Threshold: math.Inf(1)}}

	tests := []struct {
		mean float64
		want float64
	}{
		{0, 0},   // band min is 0, so the F formula caps at 0
		{0.5, 0}, // 0 - 10*0.5 clamps to 0
		{9, 0},
	}
	for _, tt := range tests {
		res, err := Calculate(report(tt.mean, tt.mean), p)
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		if res.Letter != "F" {
			t.Errorf("Letter = %q, want F", res.Letter)
		}
		if res.Score != tt.want {
			t.Errorf("Score = %v, want %v", res.Score, tt.want)
		}
	}
}

func TestCatchAllFormulaWithRaisedBand(t *testing.T) {
	// With a non-zero band minimum the decay below it is visible.
	p := DefaultPolicy()
	p.Table = Table{{Grade: "F", Threshold: math.Inf(1)}}
	p.Bands["F"] = ScoreBand{Min: 50, Max: 64}

	res, err := Calculate(report(2, 2), p)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if want := 30.0; res.Score != want { // 50 - 10*2
		t.Errorf("Score = %v, want %v", res.Score, want)
	}
}

func TestCalculateCarriesMetrics(t *testing.T) {
	rep := &distance.Report{Mean: 0.2, Max: 1.1, Std: 0.3, P95: 0.9, Hausdorff: 1.2}
	res, err := Calculate(rep, DefaultPolicy())
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.MeanDeviation != 0.2 || res.MaxDeviation != 1.1 || res.StdDeviation != 0.3 ||
		res.P95 != 0.9 || res.Hausdorff != 1.2 {
		t.Errorf("metrics not carried through: %+v", res)
	}
}

func TestShiftedCubeScenario(t *testing.T) {
	// Unit cube corners against the same corners shifted along X: every
	// nearest neighbor is the shifted twin, so the mean deviation equals
	// the shift. A 0.3 shift lands mid-band in B.
	var ref sample.Cloud
	for _, x := range []float32{-1, 1} {
		for _, y := range []float32{-1, 1} {
			for _, z := range []float32{-1, 1} {
				ref = append(ref, sample.Point{x, y, z})
			}
		}
	}
	sub := make(sample.Cloud, len(ref))
	for i, p := range ref {
		sub[i] = sample.Point{p[0] + 0.3, p[1], p[2]}
	}

	rep, err := distance.Compare(ref, sub)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if math.Abs(rep.Mean-0.3) > 1e-6 {
		t.Fatalf("Mean = %v, want 0.3", rep.Mean)
	}

	res, err := Calculate(rep, DefaultPolicy())
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.Letter != "B" {
		t.Errorf("Letter = %q, want B", res.Letter)
	}
	if res.Score < 85 || res.Score > 94 {
		t.Errorf("Score = %v, want within B band [85,94]", res.Score)
	}
}

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   Table
		wantErr bool
	}{
		{"default", DefaultTable(), false},
		{"empty", Table{}, true},
		{
			"not increasing",
			Table{{Grade: "A", Threshold: 0.5}, {Grade: "B", Threshold: 0.5}, {Grade: "F", Threshold: math.Inf(1)}},
			true,
		},
		{
			"no catch-all",
			Table{{Grade: "A", Threshold: 0.1}, {Grade: "B", Threshold: 0.5}},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.table.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCalculateMissingBand(t *testing.T) {
	p := DefaultPolicy()
	delete(p.Bands, "B")
	if _, err := Calculate(report(0.3, 0.3), p); err == nil {
		t.Error("Calculate succeeded with a grade that has no score band")
	}
}
