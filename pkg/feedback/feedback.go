// Package feedback renders a deterministic, human-readable evaluation
// report from a grade result and its distance report. Same inputs, same
// text; there is no randomness and no locale dependence beyond
// fixed-point number formatting.
package feedback

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/calipers/pkg/distance"
	"github.com/chazu/calipers/pkg/grade"
)

// Generate produces the narrative report: overall grade and score, the
// aggregate metrics, a grade-specific assessment, conditional
// improvement recommendations and the grading scale in use.
func Generate(res grade.Result, rep *distance.Report, p grade.Policy) string {
	var b strings.Builder

	b.WriteString("CAD MODEL EVALUATION REPORT\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	b.WriteString("OVERALL PERFORMANCE:\n")
	fmt.Fprintf(&b, "Grade: %s (%.1f%%)\n\n", res.Letter, res.Score)

	b.WriteString("GEOMETRIC ACCURACY ANALYSIS:\n")
	fmt.Fprintf(&b, "  Mean Deviation:     %.4f units\n", rep.Mean)
	fmt.Fprintf(&b, "  Maximum Deviation:  %.4f units\n", rep.Max)
	fmt.Fprintf(&b, "  Standard Deviation: %.4f units\n", rep.Std)
	fmt.Fprintf(&b, "  95th Percentile:    %.4f units\n", rep.P95)
	fmt.Fprintf(&b, "  Hausdorff Distance: %.4f units\n\n", rep.Hausdorff)

	b.WriteString("DETAILED ASSESSMENT:\n")
	b.WriteString(assessment(res, rep, p))

	if recs := recommendations(rep, p); len(recs) > 0 {
		b.WriteString("\nIMPROVEMENT RECOMMENDATIONS:\n")
		for _, r := range recs {
			b.WriteString("  - " + r + "\n")
		}
	}

	b.WriteString("\nGRADING SCALE:\n")
	for _, band := range p.Table {
		if math.IsInf(band.Threshold, 1) {
			continue
		}
		fmt.Fprintf(&b, "  %s: <= %.1f units\n", band.Grade, band.Threshold)
	}

	return b.String()
}

// assessment returns the fixed qualitative block for the letter grade.
// Grades outside the standard scale fall through to the failing block.
func assessment(res grade.Result, rep *distance.Report, p grade.Policy) string {
	switch res.Letter {
	case "A":
		return `EXCELLENT WORK.
  - The model shows exceptional accuracy
  - All dimensions are within professional tolerances
  - Geometric precision meets industry standards
  - Continue this level of attention to detail
`
	case "B":
		return fmt.Sprintf(`GOOD WORK with room for improvement:
  - Most dimensions are accurate (within %.1f units)
  - Some areas need refinement
  - Focus on improving precision in critical dimensions
`, p.Table.Threshold("B"))
	case "C":
		return fmt.Sprintf(`ACCEPTABLE but needs significant improvement:
  - Basic geometry is correct but lacks precision
  - Several dimensions exceed acceptable tolerances
  - Mean deviation of %.3f needs to be reduced
  - Review modeling techniques and double-check dimensions
`, rep.Mean)
	case "D":
		return fmt.Sprintf(`NEEDS MAJOR REVISION:
  - Significant geometric inaccuracies detected
  - Multiple dimensions are far from specifications
  - Mean deviation of %.3f is too high
  - Consider starting over with careful attention
`, rep.Mean)
	default:
		return fmt.Sprintf(`UNSATISFACTORY - MAJOR ISSUES:
  - Model has serious geometric problems
  - Mean deviation of %.3f indicates fundamental errors
  - Max deviation of %.3f suggests missing features
  - Please review assignment requirements
`, rep.Mean, rep.Max)
	}
}

// recommendations runs the three independent checks for targeted advice.
func recommendations(rep *distance.Report, p grade.Policy) []string {
	var recs []string
	if rep.Std > 0.5 {
		recs = append(recs, "High variation across the model - focus on consistent precision")
	}
	if rep.Max > 2*rep.Mean {
		recs = append(recs, "Some areas have major localized errors - check individual features")
	}
	if c := p.Table.Threshold("C"); !math.IsNaN(c) && rep.P95 > c {
		recs = append(recs, "95% of points should be more accurate - broad accuracy shortfall")
	}
	return recs
}
