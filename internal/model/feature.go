// Package model defines the domain types shared by every stage of the
// annotation pipeline: genomic features, pedigree individuals and
// families, genotype calls, and the variants that carry them.
package model

// FeatureKind distinguishes gene-level features from exon-level ones.
type FeatureKind uint8

const (
	KindGene FeatureKind = iota
	KindExon
)

func (k FeatureKind) String() string {
	if k == KindExon {
		return "exon"
	}
	return "gene"
}

// Strand is the genomic strand a feature lives on.
type Strand int8

const (
	StrandForward Strand = 1
	StrandReverse Strand = -1
	StrandUnknown Strand = 0
)

// Feature is a single genomic interval: a gene or one of its exons.
// Coordinates are 1-based inclusive, matching spec.md §3; callers that
// need half-open arithmetic (the interval tree) convert at the boundary.
type Feature struct {
	FeatureID  string
	Chrom      string
	Start      int64
	End        int64
	Kind       FeatureKind
	Strand     Strand
	ParentGene string // set for exons, empty for genes
}

// Len returns the 1-based inclusive length of the feature.
func (f Feature) Len() int64 {
	return f.End - f.Start + 1
}
