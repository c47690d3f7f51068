package classify

import (
	"github.com/clinical-genomics-lund/genmod/internal/batch"
	"github.com/clinical-genomics-lund/genmod/internal/model"
)

// Batch classifies every variant in b against fam (spec.md §4.D): simple
// models first (pure per-variant, safe to run once per distinct
// variant_key even though a variant may be filed under several genes),
// then the compound-het search per gene, then the MS score. Mutates
// each *model.Variant in place through batch.Registry — the same
// pointer every caller holding that variant_key observes.
func Batch(b *batch.Batch, fam *model.Family) {
	for _, v := range b.AllVariants() {
		Variant(v, fam)
	}

	for _, geneID := range b.GeneIDs {
		Compound(b.VariantsFor(geneID), b.CompoundEligible, fam)
	}

	for _, v := range b.AllVariants() {
		Score(v, fam)
	}
}
