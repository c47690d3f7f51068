package classify

import (
	"math"

	"github.com/clinical-genomics-lund/genmod/internal/model"
)

// Score computes v.Flags.MS, the PHRED-like confidence score (spec.md
// §4.D): -10*log10(1 - min(1, k/K)), where k is the number of affected
// individuals with an informative genotype at v and K is the number of
// affected individuals total, floored/ceilinged into [0, 255]. MS is 0
// when no model matched (GM empty) or when k is 0.
func Score(v *model.Variant, fam *model.Family) {
	if len(v.Flags.GM()) == 0 {
		v.Flags.MS = 0
		return
	}

	affected := fam.Affected()
	K := len(affected)
	if K == 0 {
		v.Flags.MS = 0
		return
	}

	k := 0
	for _, a := range affected {
		if genotypeOf(v, a.IndID).IsInformative() {
			k++
		}
	}
	if k == 0 {
		v.Flags.MS = 0
		return
	}

	ratio := float64(k) / float64(K)
	if ratio > 1 {
		ratio = 1
	}

	var ms float64
	if ratio >= 1 {
		ms = 255
	} else {
		ms = -10 * math.Log10(1-ratio)
	}
	if ms < 0 {
		ms = 0
	}
	if ms > 255 {
		ms = 255
	}
	v.Flags.MS = int(math.Round(ms))
}
