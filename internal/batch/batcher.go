package batch

import (
	"fmt"

	"github.com/clinical-genomics-lund/genmod/internal/model"
)

// Batcher implements the open-batch state machine of spec.md §4.C.
type Batcher struct {
	idx       Index
	wholeGene bool

	openChrom   string
	openGenes   map[string]bool
	openKeys    map[string][]string // gene_id -> variant_keys in this open batch
	openOrder   []string            // gene_ids in first-seen order
	eligible    map[string]bool
	registry    *Registry
	hasOpen     bool
}

// New creates a Batcher. wholeGene corresponds to the --whole-gene CLI
// flag (spec.md §4.C, §6).
func New(idx Index, wholeGene bool) *Batcher {
	return &Batcher{idx: idx, wholeGene: wholeGene}
}

func (b *Batcher) resetOpen(chrom string) {
	b.openChrom = chrom
	b.openGenes = make(map[string]bool)
	b.openKeys = make(map[string][]string)
	b.openOrder = nil
	b.eligible = make(map[string]bool)
	b.registry = newRegistry()
	b.hasOpen = false
}

// Run consumes variants from next (called until it returns nil, nil)
// in input order and calls emit once per completed Batch, in the order
// batches close. next must return variants already split to one ALT
// allele each. A non-nil error from next or emit aborts the run.
func (b *Batcher) Run(next func() (*model.Variant, error), emit func(*Batch) error) error {
	b.resetOpen("")

	for {
		v, err := next()
		if err != nil {
			return err
		}
		if v == nil {
			break
		}

		if err := b.add(v, emit); err != nil {
			return err
		}
	}

	if b.hasOpen {
		if err := emit(b.close()); err != nil {
			return err
		}
	}
	return nil
}

func (b *Batcher) add(v *model.Variant, emit func(*Batch) error) error {
	chrom := v.NormalizedChrom()
	geneIDs := b.idx.GenesAt(chrom, v.Pos)

	// Zero-gene variants are their own synthetic singleton batch
	// (spec.md §4.C, SPEC_FULL §9 Open Question decision): they never
	// join, extend, or survive as the open batch.
	if len(geneIDs) == 0 {
		if b.hasOpen {
			if err := emit(b.close()); err != nil {
				return err
			}
		}
		b.resetOpen(chrom)

		synthetic := fmt.Sprintf("singleton:%s", v.Key())
		singleRegistry := newRegistry()
		singleRegistry.getOrAdd(v.Key(), v)
		singleton := &Batch{
			GeneIDs:          []string{synthetic},
			variantKeys:      map[string][]string{synthetic: {v.Key()}},
			CompoundEligible: map[string]bool{v.Key(): false},
			Registry:         singleRegistry,
		}
		if err := emit(singleton); err != nil {
			return err
		}
		b.resetOpen("")
		return nil
	}

	if chrom != b.openChrom || !b.overlapsOpen(geneIDs) {
		if b.hasOpen {
			if err := emit(b.close()); err != nil {
				return err
			}
		}
		b.resetOpen(chrom)
	}

	b.hasOpen = true
	registered := b.registry.getOrAdd(v.Key(), v)

	compoundEligible := b.wholeGene
	if !compoundEligible {
		compoundEligible = len(b.idx.ExonsAt(chrom, v.Pos)) > 0
	}
	b.eligible[v.Key()] = compoundEligible

	for _, g := range geneIDs {
		if !b.openGenes[g] {
			b.openGenes[g] = true
			b.openOrder = append(b.openOrder, g)
		}
		b.openKeys[g] = append(b.openKeys[g], registered.Key())
		addGene(registered, g)
	}
	return nil
}

// addGene appends g to v.Genes if not already present. A Variant can be
// filed under several gene_ids when its position overlaps more than one
// gene envelope (spec.md §3's ANN field lists every overlapping gene).
func addGene(v *model.Variant, g string) {
	for _, existing := range v.Genes {
		if existing == g {
			return
		}
	}
	v.Genes = append(v.Genes, g)
}

// overlapsOpen reports whether any id in geneIDs is already in the open
// batch's gene set.
func (b *Batcher) overlapsOpen(geneIDs []string) bool {
	if !b.hasOpen {
		return true // nothing open yet; caller's resetOpen(chrom) already matches
	}
	for _, g := range geneIDs {
		if b.openGenes[g] {
			return true
		}
	}
	return false
}

func (b *Batcher) close() *Batch {
	keys := make(map[string][]string, len(b.openKeys))
	for g, ks := range b.openKeys {
		cp := make([]string, len(ks))
		copy(cp, ks)
		keys[g] = cp
	}
	order := make([]string, len(b.openOrder))
	copy(order, b.openOrder)
	eligible := make(map[string]bool, len(b.eligible))
	for k, v := range b.eligible {
		eligible[k] = v
	}

	return &Batch{
		GeneIDs:          order,
		variantKeys:      keys,
		CompoundEligible: eligible,
		Registry:         b.registry,
	}
}
