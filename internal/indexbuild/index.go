package indexbuild

import "github.com/clinical-genomics-lund/genmod/internal/model"

// Index is the runtime Interval Index (spec.md §4.B): a per-chromosome
// mapping to immutable gene and exon interval trees. Safe for
// concurrent readers once built or loaded — nothing mutates it
// afterwards.
type Index struct {
	genes map[string]*tree
	exons map[string]*tree
}

func newIndex() *Index {
	return &Index{genes: make(map[string]*tree), exons: make(map[string]*tree)}
}

// GenesAt returns the gene feature ids overlapping a 1-based point.
// An unknown chromosome returns the empty set, not an error.
func (idx *Index) GenesAt(chrom string, pos int64) []string {
	t, ok := idx.genes[chrom]
	if !ok {
		return nil
	}
	return t.pointOverlaps(pos)
}

// ExonsAt returns the exon feature ids overlapping a 1-based point.
func (idx *Index) ExonsAt(chrom string, pos int64) []string {
	t, ok := idx.exons[chrom]
	if !ok {
		return nil
	}
	return t.pointOverlaps(pos)
}

// GenesInRange returns the gene feature ids overlapping a 1-based
// inclusive range.
func (idx *Index) GenesInRange(chrom string, start, end int64) []string {
	t, ok := idx.genes[chrom]
	if !ok {
		return nil
	}
	return t.rangeOverlaps(start, end)
}

// ExonsInRange returns the exon feature ids overlapping a 1-based
// inclusive range.
func (idx *Index) ExonsInRange(chrom string, start, end int64) []string {
	t, ok := idx.exons[chrom]
	if !ok {
		return nil
	}
	return t.rangeOverlaps(start, end)
}

// Chromosomes returns the set of chromosomes with at least one gene
// feature.
func (idx *Index) Chromosomes() []string {
	out := make([]string, 0, len(idx.genes))
	for c := range idx.genes {
		out = append(out, c)
	}
	return out
}

// FromFeatures builds a runtime Index directly from in-memory features,
// bypassing persistence. Used by Load once it has read the blobs, and
// by tests that need an Index without touching disk.
func FromFeatures(genes, exons []model.Feature) *Index {
	idx := newIndex()
	byChromGenes := groupByChrom(genes)
	byChromExons := groupByChrom(exons)
	for chrom, feats := range byChromGenes {
		idx.genes[chrom] = buildTree(feats)
	}
	for chrom, feats := range byChromExons {
		idx.exons[chrom] = buildTree(feats)
	}
	return idx
}

func groupByChrom(features []model.Feature) map[string][]model.Feature {
	out := make(map[string][]model.Feature)
	for _, f := range features {
		out[f.Chrom] = append(out[f.Chrom], f)
	}
	return out
}
