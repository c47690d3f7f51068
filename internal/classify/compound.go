package classify

import "github.com/clinical-genomics-lund/genmod/internal/model"

// Compound runs the AR_compound search (spec.md §4.D) over one gene's
// CompoundEligible variants and writes ARCompound/Comp into each
// variant's Flags. addPartner skips a partner key already in Comp, so a
// pair found in more than one gene of the same batch (when both genes'
// envelopes contain both variants) is recorded once.
func Compound(variants []*model.Variant, eligible map[string]bool, fam *model.Family) {
	var pool []*model.Variant
	for _, v := range variants {
		if eligible[v.Key()] {
			pool = append(pool, v)
		}
	}
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			v1, v2 := pool[i], pool[j]
			if !compoundPair(v1, v2, fam) {
				continue
			}
			addPartner(v1, v2.Key())
			addPartner(v2, v1.Key())
		}
	}
}

func addPartner(v *model.Variant, partnerKey string) {
	v.Flags.ARCompound = true
	for _, existing := range v.Flags.Comp {
		if existing == partnerKey {
			return
		}
	}
	v.Flags.Comp = append(v.Flags.Comp, partnerKey)
}

// compoundPair reports whether v1 and v2 form a valid compound-het pair
// under spec.md §4.D's three conditions.
func compoundPair(v1, v2 *model.Variant, fam *model.Family) bool {
	anyAffectedPasses := false
	for _, a := range fam.Affected() {
		g1 := genotypeOf(v1, a.IndID)
		g2 := genotypeOf(v2, a.IndID)
		if g1.Call != model.Het || g2.Call != model.Het {
			continue
		}

		father := fam.Father(a)
		mother := fam.Mother(a)
		if !parentContributesExactlyOne(father, v1, v2) {
			continue
		}
		if !parentContributesExactlyOne(mother, v1, v2) {
			continue
		}

		if g1.Phased && g2.Phased && g1.Origin != model.OriginUnknown && g2.Origin != model.OriginUnknown {
			if g1.Origin == g2.Origin {
				continue // both alleles from the same parent: not compound
			}
		}

		anyAffectedPasses = true
	}
	if !anyAffectedPasses {
		return false
	}

	// No unaffected individual may be het at both variants simultaneously.
	for _, u := range fam.Unaffected() {
		gu1 := genotypeOf(v1, u.IndID)
		gu2 := genotypeOf(v2, u.IndID)
		if gu1.Call == model.Het && gu2.Call == model.Het {
			return false
		}
	}
	return true
}

// parentContributesExactlyOne reports whether parent is het or missing
// at exactly one of v1, v2 — each parent must carry (or possibly carry)
// precisely one of the pair, so the two alleles trace to different
// parents. A nil parent (absent from the pedigree) is permissive.
func parentContributesExactlyOne(parent *model.Individual, v1, v2 *model.Variant) bool {
	if parent == nil {
		return true
	}
	count := 0
	if c := genotypeOf(v1, parent.IndID).Call; c == model.Het || c == model.Missing {
		count++
	}
	if c := genotypeOf(v2, parent.IndID).Call; c == model.Het || c == model.Missing {
		count++
	}
	return count == 1
}
