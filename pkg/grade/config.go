package grade

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk policy format. Every section is optional;
// omitted sections keep their defaults.
type fileConfig struct {
	Thresholds []Band               `yaml:"thresholds"`
	Bands      map[Letter]ScoreBand `yaml:"bands"`
	Penalties  *struct {
		SevereMaxCutoff   *float64 `yaml:"severe_max_cutoff"`
		SeverePenalty     *float64 `yaml:"severe_penalty"`
		ModerateMaxCutoff *float64 `yaml:"moderate_max_cutoff"`
		ModeratePenalty   *float64 `yaml:"moderate_penalty"`
		CatchAllDecay     *float64 `yaml:"catch_all_decay"`
	} `yaml:"penalties"`
}

// LoadPolicy reads a scoring policy from a YAML file, overlaying the
// defaults. A threshold entry with a missing or .inf bound becomes the
// unbounded catch-all.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("grade: reading policy %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Policy{}, fmt.Errorf("grade: parsing policy %s: %w", path, err)
	}

	if len(cfg.Thresholds) > 0 {
		t := Table(cfg.Thresholds)
		// An omitted bound unmarshals to 0; treat a trailing zero as
		// the unbounded catch-all.
		if last := len(t) - 1; t[last].Threshold == 0 {
			t[last].Threshold = math.Inf(1)
		}
		p.Table = t
	}
	if len(cfg.Bands) > 0 {
		p.Bands = cfg.Bands
	}
	if pen := cfg.Penalties; pen != nil {
		if pen.SevereMaxCutoff != nil {
			p.SevereMaxCutoff = *pen.SevereMaxCutoff
		}
		if pen.SeverePenalty != nil {
			p.SeverePenalty = *pen.SeverePenalty
		}
		if pen.ModerateMaxCutoff != nil {
			p.ModerateMaxCutoff = *pen.ModerateMaxCutoff
		}
		if pen.ModeratePenalty != nil {
			p.ModeratePenalty = *pen.ModeratePenalty
		}
		if pen.CatchAllDecay != nil {
			p.CatchAllDecay = *pen.CatchAllDecay
		}
	}

	if err := p.Table.Validate(); err != nil {
		return Policy{}, fmt.Errorf("grade: policy %s: %w", path, err)
	}
	for _, b := range p.Table {
		if _, ok := p.Bands[b.Grade]; !ok {
			return Policy{}, fmt.Errorf("grade: policy %s: no score band for grade %q", path, b.Grade)
		}
	}
	return p, nil
}
