package model

import (
	"fmt"
	"sort"
)

// Recognized inheritance model names (spec.md §3).
const (
	ModelARHom        = "AR_hom"
	ModelARHomDenovo   = "AR_hom_denovo"
	ModelAD            = "AD"
	ModelADDenovo      = "AD_denovo"
	ModelARCompound    = "AR_compound"
	ModelXR            = "XR"
	ModelXRDenovo      = "XR_denovo"
	ModelXD            = "XD"
	ModelXDDenovo      = "XD_denovo"
)

// AllModels lists every recognized model name; GM walks it to collect
// the models whose flag is true.
var AllModels = []string{
	ModelARHom, ModelARHomDenovo, ModelAD, ModelADDenovo, ModelARCompound,
	ModelXR, ModelXRDenovo, ModelXD, ModelXDDenovo,
}

// InheritanceFlags is the per-variant classification result (spec.md §3).
type InheritanceFlags struct {
	ARHom       bool
	ARHomDenovo bool
	AD          bool
	ADDenovo    bool
	ARCompound  bool
	XR          bool
	XRDenovo    bool
	XD          bool
	XDDenovo    bool

	Comp []string // partner variant_keys, for AR_compound
	MS   int      // PHRED-like confidence score, [0, 255]
}

// Set assigns the named model's flag. Panics on an unrecognized name —
// callers only ever pass names from AllModels.
func (fl *InheritanceFlags) Set(name string, value bool) {
	switch name {
	case ModelARHom:
		fl.ARHom = value
	case ModelARHomDenovo:
		fl.ARHomDenovo = value
	case ModelAD:
		fl.AD = value
	case ModelADDenovo:
		fl.ADDenovo = value
	case ModelARCompound:
		fl.ARCompound = value
	case ModelXR:
		fl.XR = value
	case ModelXRDenovo:
		fl.XRDenovo = value
	case ModelXD:
		fl.XD = value
	case ModelXDDenovo:
		fl.XDDenovo = value
	default:
		panic("model: unrecognized model name " + name)
	}
}

// Get returns the named model's flag.
func (fl *InheritanceFlags) Get(name string) bool {
	switch name {
	case ModelARHom:
		return fl.ARHom
	case ModelARHomDenovo:
		return fl.ARHomDenovo
	case ModelAD:
		return fl.AD
	case ModelADDenovo:
		return fl.ADDenovo
	case ModelARCompound:
		return fl.ARCompound
	case ModelXR:
		return fl.XR
	case ModelXRDenovo:
		return fl.XRDenovo
	case ModelXD:
		return fl.XD
	case ModelXDDenovo:
		return fl.XDDenovo
	default:
		panic("model: unrecognized model name " + name)
	}
}

// GM returns the list of model names whose flag is true, sorted by
// name (spec.md §4.D).
func (fl *InheritanceFlags) GM() []string {
	var out []string
	for _, name := range AllModels {
		if fl.Get(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Variant is a single genomic record plus the genotypes of every
// individual in the active family and its accumulated annotations.
//
// Variant is shared by reference across every gene batch it belongs to
// (spec.md §3, §9): mutating Flags/Genes through one reference must be
// observed through all others. The pipeline guarantees this by storing
// each Variant in the Registry of the one batch it joins
// (internal/batch) and handing out pointers, never copies.
type Variant struct {
	Chrom     string
	Pos       int64
	Ref       string
	Alt       string
	ID        string
	Genotypes map[string]Genotype // ind_id -> call
	Info      map[string]string

	Genes []string // gene symbols this variant overlaps (ANN)
	Flags InheritanceFlags
}

// Key returns the canonical "chrom_pos_alt_ref" variant_key (spec.md §3).
// This exact field order is a stable dictionary key, not a sort key.
func (v *Variant) Key() string {
	return fmt.Sprintf("%s_%d_%s_%s", v.Chrom, v.Pos, v.Alt, v.Ref)
}

// NormalizedChrom strips a leading "chr" prefix, matching the convention
// used throughout the example pack (vcf.Variant.NormalizeChrom).
func (v *Variant) NormalizedChrom() string {
	return NormalizeChrom(v.Chrom)
}

// NormalizeChrom strips a leading "chr" prefix from a chromosome name.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && (chrom[:3] == "chr" || chrom[:3] == "Chr" || chrom[:3] == "CHR") {
		return chrom[3:]
	}
	return chrom
}

// IsSexChrom reports whether the (already normalized) chromosome is a
// human sex chromosome.
func IsSexChrom(normalizedChrom string) bool {
	return normalizedChrom == "X" || normalizedChrom == "Y"
}
