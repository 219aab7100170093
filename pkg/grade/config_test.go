package grade

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writePolicy(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPolicy(t *testing.T) {
	path := writePolicy(t, `
thresholds:
  - grade: A
    max_mean_deviation: 0.05
  - grade: B
    max_mean_deviation: 0.2
  - grade: F
    max_mean_deviation: .inf
bands:
  A: {min: 95, max: 100}
  B: {min: 80, max: 94}
  F: {min: 0, max: 79}
penalties:
  severe_penalty: 20
`)
	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if len(p.Table) != 3 {
		t.Fatalf("len(Table) = %d, want 3", len(p.Table))
	}
	if p.Table[1].Grade != "B" || p.Table[1].Threshold != 0.2 {
		t.Errorf("Table[1] = %+v, want B/0.2", p.Table[1])
	}
	if !math.IsInf(p.Table[2].Threshold, 1) {
		t.Errorf("catch-all threshold = %v, want +Inf", p.Table[2].Threshold)
	}
	if p.Bands["B"] != (ScoreBand{Min: 80, Max: 94}) {
		t.Errorf("Bands[B] = %+v", p.Bands["B"])
	}
	if p.SeverePenalty != 20 {
		t.Errorf("SeverePenalty = %v, want 20", p.SeverePenalty)
	}
	// Untouched defaults survive.
	if p.ModeratePenalty != 5 {
		t.Errorf("ModeratePenalty = %v, want default 5", p.ModeratePenalty)
	}
}

func TestLoadPolicyOmittedCatchAllBound(t *testing.T) {
	path := writePolicy(t, `
thresholds:
  - grade: A
    max_mean_deviation: 0.1
  - grade: F
`)
	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if !math.IsInf(p.Table[1].Threshold, 1) {
		t.Errorf("catch-all threshold = %v, want +Inf", p.Table[1].Threshold)
	}
}

func TestLoadPolicyErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			"decreasing thresholds",
			"thresholds:\n  - {grade: A, max_mean_deviation: 0.5}\n  - {grade: B, max_mean_deviation: 0.1}\n  - {grade: F, max_mean_deviation: .inf}\n",
		},
		{
			"grade without band",
			"thresholds:\n  - {grade: S, max_mean_deviation: 0.1}\n  - {grade: F, max_mean_deviation: .inf}\n",
		},
		{
			"malformed yaml",
			"thresholds: [\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadPolicy(writePolicy(t, tt.src)); err == nil {
				t.Error("LoadPolicy succeeded, want error")
			}
		})
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadPolicy succeeded on a missing file")
	}
}
