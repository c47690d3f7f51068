package batch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clinical-genomics-lund/genmod/internal/model"
)

// fakeIndex maps chrom -> gene features and, separately, chrom -> exon
// features, so tests can control overlap and exon-membership
// independently.
type fakeIndex struct {
	genes map[string][]fakeFeature
	exons map[string][]fakeFeature
}

type fakeFeature struct {
	id         string
	start, end int64
}

func (f *fakeIndex) GenesAt(chrom string, pos int64) []string { return overlapping(f.genes[chrom], pos) }
func (f *fakeIndex) ExonsAt(chrom string, pos int64) []string { return overlapping(f.exons[chrom], pos) }

func overlapping(features []fakeFeature, pos int64) []string {
	var out []string
	for _, ft := range features {
		if pos >= ft.start && pos <= ft.end {
			out = append(out, ft.id)
		}
	}
	return out
}

func variant(chrom string, pos int64, alt string) *model.Variant {
	return &model.Variant{Chrom: chrom, Pos: pos, Ref: "A", Alt: alt, Genotypes: map[string]model.Genotype{}}
}

func runAll(t *testing.T, b *Batcher, variants []*model.Variant) []*Batch {
	t.Helper()
	i := 0
	var batches []*Batch
	err := b.Run(
		func() (*model.Variant, error) {
			if i >= len(variants) {
				return nil, nil
			}
			v := variants[i]
			i++
			return v, nil
		},
		func(batch *Batch) error {
			batches = append(batches, batch)
			return nil
		},
	)
	require.NoError(t, err)
	return batches
}

func TestBatcher_TwoVariantsSameGeneOneBatch(t *testing.T) {
	idx := &fakeIndex{
		genes: map[string][]fakeFeature{"1": {{"GENE1", 100, 200}}},
		exons: map[string][]fakeFeature{"1": {{"GENE1:exon:1", 100, 200}}},
	}
	b := New(idx, false)
	batches := runAll(t, b, []*model.Variant{variant("1", 110, "G"), variant("1", 150, "T")})

	require.Len(t, batches, 1)
	require.ElementsMatch(t, []string{"GENE1"}, batches[0].GeneIDs)
	require.Len(t, batches[0].AllVariants(), 2)
}

func TestBatcher_NonOverlappingGenesSplitIntoSeparateBatches(t *testing.T) {
	idx := &fakeIndex{
		genes: map[string][]fakeFeature{"1": {
			{"GENE1", 100, 200},
			{"GENE2", 1000, 2000},
		}},
		exons: map[string][]fakeFeature{"1": {
			{"GENE1:exon:1", 100, 200},
			{"GENE2:exon:1", 1000, 2000},
		}},
	}
	b := New(idx, false)
	batches := runAll(t, b, []*model.Variant{variant("1", 110, "G"), variant("1", 1500, "T")})

	require.Len(t, batches, 2)
	require.Equal(t, []string{"GENE1"}, batches[0].GeneIDs)
	require.Equal(t, []string{"GENE2"}, batches[1].GeneIDs)
}

func TestBatcher_OverlappingGenesBridgeBridgeIntoOneBatch(t *testing.T) {
	idx := &fakeIndex{
		genes: map[string][]fakeFeature{"1": {
			{"GENE1", 100, 500},
			{"GENE2", 400, 900},
		}},
		exons: map[string][]fakeFeature{"1": {
			{"GENE1:exon:1", 100, 500},
			{"GENE2:exon:1", 400, 900},
		}},
	}
	b := New(idx, false)
	// v1 is GENE1 only; v2 overlaps both GENE1 and GENE2, bridging them
	// into the same open batch; v3 is GENE2 only but must still join
	// because the batch is still open on GENE2.
	batches := runAll(t, b, []*model.Variant{
		variant("1", 150, "G"),
		variant("1", 450, "T"),
		variant("1", 800, "C"),
	})

	require.Len(t, batches, 1)
	require.ElementsMatch(t, []string{"GENE1", "GENE2"}, batches[0].GeneIDs)
	require.Len(t, batches[0].AllVariants(), 3)
}

func TestBatcher_ZeroGeneVariantIsSyntheticSingleton(t *testing.T) {
	idx := &fakeIndex{genes: map[string][]fakeFeature{}, exons: map[string][]fakeFeature{}}
	b := New(idx, false)
	v := variant("1", 10, "G")
	batches := runAll(t, b, []*model.Variant{v})

	require.Len(t, batches, 1)
	require.Len(t, batches[0].GeneIDs, 1)
	require.Contains(t, batches[0].GeneIDs[0], "singleton:")
	require.Equal(t, []*model.Variant{v}, batches[0].AllVariants())
	require.False(t, batches[0].CompoundEligible[v.Key()])
}

func TestBatcher_ZeroGeneVariantClosesPriorOpenBatch(t *testing.T) {
	idx := &fakeIndex{
		genes: map[string][]fakeFeature{"1": {{"GENE1", 100, 200}}},
		exons: map[string][]fakeFeature{"1": {{"GENE1:exon:1", 100, 200}}},
	}
	b := New(idx, false)
	batches := runAll(t, b, []*model.Variant{
		variant("1", 150, "G"), // opens GENE1 batch
		variant("1", 9999, "T"), // no gene overlap: forces GENE1 batch closed, then its own singleton
	})

	require.Len(t, batches, 2)
	require.Equal(t, []string{"GENE1"}, batches[0].GeneIDs)
	require.Contains(t, batches[1].GeneIDs[0], "singleton:")
}

func TestBatcher_CompoundEligibleRequiresExonOverlapUnlessWholeGene(t *testing.T) {
	idx := &fakeIndex{
		genes: map[string][]fakeFeature{"1": {{"GENE1", 100, 900}}},
		exons: map[string][]fakeFeature{"1": {{"GENE1:exon:1", 100, 200}}},
	}

	exonic := variant("1", 150, "G")  // inside the exon
	intronic := variant("1", 500, "T") // inside the gene envelope but not any exon

	t.Run("whole-gene off", func(t *testing.T) {
		b := New(idx, false)
		batches := runAll(t, b, []*model.Variant{exonic, intronic})
		require.Len(t, batches, 1)
		require.True(t, batches[0].CompoundEligible[exonic.Key()])
		require.False(t, batches[0].CompoundEligible[intronic.Key()])
	})

	t.Run("whole-gene on", func(t *testing.T) {
		b := New(idx, true)
		batches := runAll(t, b, []*model.Variant{exonic, intronic})
		require.Len(t, batches, 1)
		require.True(t, batches[0].CompoundEligible[exonic.Key()])
		require.True(t, batches[0].CompoundEligible[intronic.Key()])
	})
}

func TestBatcher_SharedVariantPointerAcrossGenes(t *testing.T) {
	idx := &fakeIndex{
		genes: map[string][]fakeFeature{"1": {
			{"GENE1", 100, 500},
			{"GENE2", 400, 900},
		}},
		exons: map[string][]fakeFeature{"1": {
			{"GENE1:exon:1", 100, 500},
			{"GENE2:exon:1", 400, 900},
		}},
	}
	b := New(idx, false)
	v := variant("1", 450, "T") // overlaps both genes
	batches := runAll(t, b, []*model.Variant{v})

	require.Len(t, batches, 1)
	fromGene1 := batches[0].VariantsFor("GENE1")
	fromGene2 := batches[0].VariantsFor("GENE2")
	require.Len(t, fromGene1, 1)
	require.Len(t, fromGene2, 1)
	require.Same(t, fromGene1[0], fromGene2[0])
	require.ElementsMatch(t, []string{"GENE1", "GENE2"}, fromGene1[0].Genes)
}

func TestBatcher_PropagatesNextError(t *testing.T) {
	idx := &fakeIndex{}
	b := New(idx, false)
	err := b.Run(
		func() (*model.Variant, error) { return nil, errBoom },
		func(*Batch) error { return nil },
	)
	require.Error(t, err)
}

var errBoom = &batcherTestError{"boom"}

type batcherTestError struct{ msg string }

func (e *batcherTestError) Error() string { return e.msg }
