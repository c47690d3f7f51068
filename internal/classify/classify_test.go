package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-genomics-lund/genmod/internal/model"
)

// newTrio builds the family used throughout spec.md §8: affected son 1,
// unaffected father 2, unaffected mother 3.
func newTrio() *model.Family {
	fam := model.NewFamily("FAM")
	fam.AddIndividual(&model.Individual{IndID: "1", FatherID: "2", MotherID: "3", Sex: model.SexMale, Phenotype: model.PhenotypeAffected})
	fam.AddIndividual(&model.Individual{IndID: "2", Sex: model.SexMale, Phenotype: model.PhenotypeUnaffected})
	fam.AddIndividual(&model.Individual{IndID: "3", Sex: model.SexFemale, Phenotype: model.PhenotypeUnaffected})
	return fam
}

func gt(call model.GenotypeCall) model.Genotype { return model.Genotype{Call: call} }

func TestScenario1_ARHom(t *testing.T) {
	fam := newTrio()
	v := &model.Variant{Chrom: "1", Pos: 5, Ref: "C", Alt: "A", Genotypes: map[string]model.Genotype{
		"1": gt(model.HomAlt), "2": gt(model.Het), "3": gt(model.Het),
	}}
	Variant(v, fam)
	assert.True(t, v.Flags.ARHom)
	assert.False(t, v.Flags.ARHomDenovo)
	assert.False(t, v.Flags.AD)
	assert.False(t, v.Flags.ADDenovo)
}

func TestScenario2_ARHomDenovo(t *testing.T) {
	fam := newTrio()
	v := &model.Variant{Chrom: "1", Pos: 7, Ref: "T", Alt: "G", Genotypes: map[string]model.Genotype{
		"1": gt(model.HomAlt), "2": gt(model.Het), "3": gt(model.HomRef),
	}}
	Variant(v, fam)
	assert.False(t, v.Flags.ARHom)
	assert.True(t, v.Flags.ARHomDenovo)
}

func TestScenario3_BothARHomAndDenovo(t *testing.T) {
	fam := newTrio()
	v := &model.Variant{Chrom: "1", Pos: 10, Ref: "T", Alt: "C", Genotypes: map[string]model.Genotype{
		"1": gt(model.HomAlt), "2": gt(model.Missing), "3": gt(model.Het),
	}}
	Variant(v, fam)
	assert.True(t, v.Flags.ARHom)
	assert.True(t, v.Flags.ARHomDenovo)
}

func TestScenario4_AllFalse(t *testing.T) {
	fam := newTrio()
	v := &model.Variant{Chrom: "1", Pos: 15, Ref: "T", Alt: "C", Genotypes: map[string]model.Genotype{
		"1": gt(model.Het), "2": gt(model.Het), "3": gt(model.Missing),
	}}
	Variant(v, fam)
	assert.False(t, v.Flags.ARHom)
	assert.False(t, v.Flags.ARHomDenovo)
	assert.False(t, v.Flags.AD)
	assert.False(t, v.Flags.ADDenovo)
}

func TestScenario5_CompoundPasses(t *testing.T) {
	fam := newTrio()
	v1 := &model.Variant{Chrom: "1", Pos: 20, Ref: "A", Alt: "T", Genotypes: map[string]model.Genotype{
		"1": gt(model.Het), "2": gt(model.Het), "3": gt(model.HomRef),
	}}
	v2 := &model.Variant{Chrom: "1", Pos: 30, Ref: "G", Alt: "C", Genotypes: map[string]model.Genotype{
		"1": gt(model.Het), "2": gt(model.HomRef), "3": gt(model.Het),
	}}
	eligible := map[string]bool{v1.Key(): true, v2.Key(): true}
	Compound([]*model.Variant{v1, v2}, eligible, fam)

	assert.True(t, v1.Flags.ARCompound)
	assert.True(t, v2.Flags.ARCompound)
	require.Len(t, v1.Flags.Comp, 1)
	require.Len(t, v2.Flags.Comp, 1)
	assert.Equal(t, v2.Key(), v1.Flags.Comp[0])
	assert.Equal(t, v1.Key(), v2.Flags.Comp[0])
}

func TestScenario6_CompoundExcludedMotherHetAtBoth(t *testing.T) {
	fam := newTrio()
	v1 := &model.Variant{Chrom: "1", Pos: 20, Ref: "A", Alt: "T", Genotypes: map[string]model.Genotype{
		"1": gt(model.Het), "2": gt(model.Het), "3": gt(model.Het),
	}}
	v2 := &model.Variant{Chrom: "1", Pos: 30, Ref: "G", Alt: "C", Genotypes: map[string]model.Genotype{
		"1": gt(model.Het), "2": gt(model.HomRef), "3": gt(model.Het),
	}}
	eligible := map[string]bool{v1.Key(): true, v2.Key(): true}
	Compound([]*model.Variant{v1, v2}, eligible, fam)

	assert.False(t, v1.Flags.ARCompound)
	assert.False(t, v2.Flags.ARCompound)
	assert.Empty(t, v1.Flags.Comp)
	assert.Empty(t, v2.Flags.Comp)
}

func TestCompound_IneligibleVariantExcludedFromSearch(t *testing.T) {
	fam := newTrio()
	v1 := &model.Variant{Chrom: "1", Pos: 20, Ref: "A", Alt: "T", Genotypes: map[string]model.Genotype{
		"1": gt(model.Het), "2": gt(model.Het), "3": gt(model.HomRef),
	}}
	v2 := &model.Variant{Chrom: "1", Pos: 30, Ref: "G", Alt: "C", Genotypes: map[string]model.Genotype{
		"1": gt(model.Het), "2": gt(model.HomRef), "3": gt(model.Het),
	}}
	// v2 falls outside any exon: not eligible, per --whole-gene off.
	eligible := map[string]bool{v1.Key(): true, v2.Key(): false}
	Compound([]*model.Variant{v1, v2}, eligible, fam)

	assert.False(t, v1.Flags.ARCompound)
	assert.False(t, v2.Flags.ARCompound)
}

func TestMissingParentGenotype_StillYieldsARHom(t *testing.T) {
	fam := newTrio()
	v := &model.Variant{Chrom: "1", Pos: 5, Ref: "C", Alt: "A", Genotypes: map[string]model.Genotype{
		"1": gt(model.HomAlt), "2": gt(model.Missing), "3": gt(model.Missing),
	}}
	Variant(v, fam)
	assert.True(t, v.Flags.ARHom)
}

func TestXRHemizygousMaleHetCoercedToHomAlt(t *testing.T) {
	fam := newTrio()
	// Son hemizygous het on X: under XR this counts as the single copy
	// of alt needed to be "affected". Father has no X genotype to give
	// (hemizygous himself); mother carrier (het).
	v := &model.Variant{Chrom: "X", Pos: 100, Ref: "G", Alt: "A", Genotypes: map[string]model.Genotype{
		"1": gt(model.Het), "2": gt(model.HomRef), "3": gt(model.Het),
	}}
	Variant(v, fam)
	assert.True(t, v.Flags.XR)
	assert.False(t, v.Flags.ARHom) // autosomal model never set for a sex-chrom variant
}

func TestGMMatchesTrueFlags(t *testing.T) {
	fam := newTrio()
	v := &model.Variant{Chrom: "1", Pos: 5, Ref: "C", Alt: "A", Genotypes: map[string]model.Genotype{
		"1": gt(model.HomAlt), "2": gt(model.Het), "3": gt(model.Het),
	}}
	Variant(v, fam)
	Score(v, fam)
	gm := v.Flags.GM()
	require.Len(t, gm, 1)
	assert.Equal(t, model.ModelARHom, gm[0])
	assert.True(t, v.Flags.MS > 0)
}

func TestScoreZeroWhenNoModelMatched(t *testing.T) {
	fam := newTrio()
	v := &model.Variant{Chrom: "1", Pos: 15, Ref: "T", Alt: "C", Genotypes: map[string]model.Genotype{
		"1": gt(model.Het), "2": gt(model.Het), "3": gt(model.Missing),
	}}
	Variant(v, fam)
	Score(v, fam)
	assert.Equal(t, 0, v.Flags.MS)
}
