package vcfio

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/clinical-genomics-lund/genmod/internal/model"
)

// HeaderOptions controls which descriptor lines AugmentHeader appends,
// mirroring original_source/scripts/run_genmod.py's add_metadata.
type HeaderOptions struct {
	VEP       bool // suppress ANN descriptor: gene annotation already came from VEP
	CADD      bool
	ThousandG bool
}

// AugmentHeader appends the new INFO descriptor lines spec.md §6
// requires (ANN, Comp, GM, MS, and conditionally CADD / 1000G_freq) to
// the original header lines, returning the full header block ready to
// write before the sorted body.
func AugmentHeader(original []string, opts HeaderOptions) []string {
	out := make([]string, len(original))
	copy(out, original)

	if !opts.VEP {
		out = append(out, `##INFO=<ID=ANN,Number=.,Type=String,Description="Annotates what feature(s) this variant belongs to.">`)
	}
	out = append(out,
		`##INFO=<ID=Comp,Number=.,Type=String,Description=":'-separated list of compound pairs for this variant.">`,
		`##INFO=<ID=GM,Number=.,Type=String,Description=":'-separated list of genetic models for this variant.">`,
		`##INFO=<ID=MS,Number=1,Type=Integer,Description="PHRED score for genotype models.">`,
	)
	if opts.CADD {
		out = append(out, `##INFO=<ID=CADD,Number=1,Type=Float,Description="The CADD relative score for this alternative.">`)
	}
	if opts.ThousandG {
		out = append(out, `##INFO=<ID=1000G_freq,Number=1,Type=Float,Description="Frequency in the 1000G database.">`)
	}
	return out
}

// FormatRow renders one annotated variant as a tab-separated data row.
// sampleOrder fixes the column order for the trailing genotype fields.
func FormatRow(v *model.Variant, columns []string, sampleOrder []string) string {
	var b strings.Builder

	cols := columns
	if len(cols) == 0 {
		cols = defaultColumns(sampleOrder)
	}

	info := renderInfo(v)

	fields := make([]string, 0, len(cols))
	fields = append(fields, v.Chrom, strconv.FormatInt(v.Pos, 10), orDot(v.ID), v.Ref, v.Alt, ".", "PASS", info)
	if len(sampleOrder) > 0 {
		fields = append(fields, "GT")
		for _, sample := range sampleOrder {
			fields = append(fields, formatGT(v.Genotypes[sample]))
		}
	}

	b.WriteString(strings.Join(fields, "\t"))
	return b.String()
}

func defaultColumns(sampleOrder []string) []string {
	cols := []string{"CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}
	if len(sampleOrder) > 0 {
		cols = append(cols, "FORMAT")
		cols = append(cols, sampleOrder...)
	}
	return cols
}

func orDot(s string) string {
	if s == "" {
		return "."
	}
	return s
}

func formatGT(g model.Genotype) string {
	sep := "/"
	if g.Phased {
		sep = "|"
	}
	switch g.Call {
	case model.HomRef:
		return "0" + sep + "0"
	case model.Het:
		return "0" + sep + "1"
	case model.HomAlt:
		return "1" + sep + "1"
	default:
		return "." + sep + "."
	}
}

// renderInfo serializes v.Info plus the annotation fields (ANN, Comp,
// GM, MS) using the "KEY=VAL;" syntax spec.md §6 specifies.
func renderInfo(v *model.Variant) string {
	keys := make([]string, 0, len(v.Info))
	for k := range v.Info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		if v.Info[k] == "" {
			parts = append(parts, k)
		} else {
			parts = append(parts, k+"="+v.Info[k])
		}
	}

	if len(v.Genes) > 0 {
		parts = append(parts, "ANN="+strings.Join(v.Genes, ","))
	}
	if len(v.Flags.Comp) > 0 {
		parts = append(parts, "Comp="+strings.Join(v.Flags.Comp, ":"))
	}
	if gm := v.Flags.GM(); len(gm) > 0 {
		parts = append(parts, "GM="+strings.Join(gm, ":"))
	}
	parts = append(parts, fmt.Sprintf("MS=%d", v.Flags.MS))

	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, ";")
}
