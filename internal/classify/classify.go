// Package classify implements the Model Classifier (spec.md §4.D): pure
// functions over internal/model and internal/batch types that assign
// InheritanceFlags to every variant in a batch. Grounded on the worked
// scenarios in spec.md §8 and the assertions in
// original_source/tests/test_recessive.py — this package has no teacher
// analogue (the example pack has no pedigree-genetics code), so it is
// written directly against the spec's own invariants.
package classify

import "github.com/clinical-genomics-lund/genmod/internal/model"

// genotypeOf returns ind's call at v, treating an individual absent from
// the variant's genotype map (e.g. a pedigree member with no VCF sample
// column) as Missing rather than the zero-valued HomRef a bare map
// lookup would silently return.
func genotypeOf(v *model.Variant, indID string) model.Genotype {
	if g, ok := v.Genotypes[indID]; ok {
		return g
	}
	return model.Genotype{Call: model.Missing}
}

// callGetter resolves an individual's effective call at a variant. The
// plain getter is identity; the hemizygous getter (used for XR/XD)
// coerces a male's het call to hom_alt, per spec.md §4.D's "males need
// only one alt copy to be affected under a recessive model".
type callGetter func(ind *model.Individual, v *model.Variant) model.GenotypeCall

func plainCall(ind *model.Individual, v *model.Variant) model.GenotypeCall {
	return genotypeOf(v, ind.IndID).Call
}

func hemiCall(ind *model.Individual, v *model.Variant) model.GenotypeCall {
	c := genotypeOf(v, ind.IndID).Call
	if ind.Sex == model.SexMale && c == model.Het {
		return model.HomAlt
	}
	return c
}

// Variant runs the per-variant simple models (spec.md §4.D) over v and
// writes the result into v.Flags. AR_hom/AD are evaluated on autosomes;
// XR/XD on the sex chromosomes; a variant never sets both families.
func Variant(v *model.Variant, fam *model.Family) {
	chrom := v.NormalizedChrom()
	if model.IsSexChrom(chrom) {
		v.Flags.XR = recessiveHom(fam, v, hemiCall)
		v.Flags.XRDenovo = recessiveHomDenovo(fam, v, hemiCall)
		v.Flags.XD = dominant(fam, v, hemiCall)
		v.Flags.XDDenovo = dominantDenovo(fam, v, hemiCall)
		return
	}
	v.Flags.ARHom = recessiveHom(fam, v, plainCall)
	v.Flags.ARHomDenovo = recessiveHomDenovo(fam, v, plainCall)
	v.Flags.AD = dominant(fam, v, plainCall)
	v.Flags.ADDenovo = dominantDenovo(fam, v, plainCall)
}

// recessiveHom implements AR_hom / XR: a is hom_alt; both present
// parents are het or missing; no unaffected individual is hom_alt. For
// a male affected on X the father is not checked: a son's X comes only
// from his mother.
func recessiveHom(fam *model.Family, v *model.Variant, get callGetter) bool {
	anyConsistent := false
	for _, a := range fam.Affected() {
		if get(a, v) != model.HomAlt {
			continue
		}
		father := fam.Father(a)
		mother := fam.Mother(a)
		if a.Sex == model.SexMale && v.NormalizedChrom() == "X" {
			father = nil
		}
		ok := true
		if father != nil {
			if c := get(father, v); c != model.Het && c != model.Missing {
				ok = false
			}
		}
		if mother != nil {
			if c := get(mother, v); c != model.Het && c != model.Missing {
				ok = false
			}
		}
		if ok {
			anyConsistent = true
		}
	}
	if !anyConsistent {
		return false
	}
	for _, u := range fam.Unaffected() {
		if get(u, v) == model.HomAlt {
			return false
		}
	}
	return true
}

// recessiveHomDenovo implements AR_hom_denovo / XR_denovo: same affected
// and unaffected constraints as recessiveHom, but the parents must NOT
// both be confirmed het — a missing or hom_ref parent is the de-novo
// signal, and a parent call of hom_alt rules the pair out entirely.
func recessiveHomDenovo(fam *model.Family, v *model.Variant, get callGetter) bool {
	anyConsistent := false
	for _, a := range fam.Affected() {
		if get(a, v) != model.HomAlt {
			continue
		}
		father := fam.Father(a)
		mother := fam.Mother(a)

		bothConfirmedHet := true
		illegal := false
		check := func(parent *model.Individual) {
			if parent == nil {
				bothConfirmedHet = false
				return
			}
			switch get(parent, v) {
			case model.Het:
				// confirmed carrier: doesn't break bothConfirmedHet
			case model.Missing, model.HomRef:
				bothConfirmedHet = false
			case model.HomAlt:
				illegal = true
			}
		}
		check(father)
		check(mother)

		if illegal {
			continue
		}
		if !bothConfirmedHet {
			anyConsistent = true
		}
	}
	if !anyConsistent {
		return false
	}
	for _, u := range fam.Unaffected() {
		if get(u, v) == model.HomAlt {
			return false
		}
	}
	return true
}

// dominant implements AD / XD: a is het or hom_alt; every unaffected
// individual is hom_ref or missing.
func dominant(fam *model.Family, v *model.Variant, get callGetter) bool {
	anyConsistent := false
	for _, a := range fam.Affected() {
		if c := get(a, v); c == model.Het || c == model.HomAlt {
			anyConsistent = true
		}
	}
	if !anyConsistent {
		return false
	}
	for _, u := range fam.Unaffected() {
		if c := get(u, v); c != model.HomRef && c != model.Missing {
			return false
		}
	}
	return true
}

// dominantDenovo implements AD_denovo / XD_denovo: AD's affected/
// unaffected constraints, plus both parents hom_ref or missing on at
// most one side (at least one parent must be a confirmed hom_ref for
// the de-novo signal to hold; a het or hom_alt parent means inherited).
func dominantDenovo(fam *model.Family, v *model.Variant, get callGetter) bool {
	anyConsistent := false
	for _, a := range fam.Affected() {
		c := get(a, v)
		if c != model.Het && c != model.HomAlt {
			continue
		}
		father := fam.Father(a)
		mother := fam.Mother(a)

		ok := true
		confirmedHomRef := 0
		missing := 0
		check := func(parent *model.Individual) {
			if parent == nil {
				return
			}
			switch get(parent, v) {
			case model.HomRef:
				confirmedHomRef++
			case model.Missing:
				missing++
			default:
				ok = false
			}
		}
		check(father)
		check(mother)

		if !ok || missing >= 2 || confirmedHomRef == 0 {
			continue
		}
		anyConsistent = true
	}
	if !anyConsistent {
		return false
	}
	for _, u := range fam.Unaffected() {
		if c := get(u, v); c != model.HomRef && c != model.Missing {
			return false
		}
	}
	return true
}
