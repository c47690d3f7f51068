// Package batch implements the Annotation Batcher (spec.md §4.C): it
// groups consecutive variants that share an overlapping gene into one
// gene-cluster batch, and owns the Registry that lets a single Variant
// be mutated consistently no matter how many gene batches reference it
// (spec.md §9).
package batch

import "github.com/clinical-genomics-lund/genmod/internal/model"

// Index is the subset of indexbuild.Index the Batcher needs. Declared
// locally so this package doesn't have to import indexbuild just for a
// query interface — mirrors the teacher's TranscriptLookup pattern in
// internal/annotate/annotator.go.
type Index interface {
	GenesAt(chrom string, pos int64) []string
	ExonsAt(chrom string, pos int64) []string
}

// Batch is one gene cluster: every gene_id in it shares at least one
// variant (spec.md §3/§4.C). Registry lookups give every consumer the
// same *model.Variant pointer for a given variant_key.
type Batch struct {
	GeneIDs          []string             // first-seen order
	variantKeys      map[string][]string  // gene_id -> variant_keys, in input order
	CompoundEligible map[string]bool      // variant_key -> eligible for AR_compound search
	Registry         *Registry
}

// VariantsFor returns the Variants filed under geneID, in input order.
func (b *Batch) VariantsFor(geneID string) []*model.Variant {
	keys := b.variantKeys[geneID]
	out := make([]*model.Variant, 0, len(keys))
	for _, k := range keys {
		out = append(out, b.Registry.Get(k))
	}
	return out
}

// AllVariants returns every distinct Variant in the batch, regardless
// of how many genes it's filed under.
func (b *Batch) AllVariants() []*model.Variant {
	seen := make(map[string]bool)
	var out []*model.Variant
	for _, geneID := range b.GeneIDs {
		for _, k := range b.variantKeys[geneID] {
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, b.Registry.Get(k))
		}
	}
	return out
}

// Registry is a batch's variant_key -> *model.Variant map (spec.md
// §9): the mechanism by which a Variant filed under several genes of
// its batch is mutated once and observed everywhere. The Batcher
// creates a new Registry for each batch; a Variant is registered only
// in the one batch it joins, and lookups never span batches.
// Population happens single-threaded on the Batcher's main path before
// the batch is dispatched to a worker, and a given Variant's contents are only ever
// mutated by the one worker classifying the one batch containing it
// (spec.md §5's "one worker, one batch" rule) — so no lock is needed
// either for inserts or for the classifier's later mutations.
type Registry struct {
	variants map[string]*model.Variant
}

func newRegistry() *Registry {
	return &Registry{variants: make(map[string]*model.Variant)}
}

// Get returns the Variant for key, or nil if never registered.
func (r *Registry) Get(key string) *model.Variant { return r.variants[key] }

// getOrAdd returns the existing Variant for key, registering v if this
// is the first time key is seen.
func (r *Registry) getOrAdd(key string, v *model.Variant) *model.Variant {
	if existing, ok := r.variants[key]; ok {
		return existing
	}
	r.variants[key] = v
	return v
}

// All returns every registered Variant.
func (r *Registry) All() []*model.Variant {
	out := make([]*model.Variant, 0, len(r.variants))
	for _, v := range r.variants {
		out = append(out, v)
	}
	return out
}
