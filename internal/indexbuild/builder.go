package indexbuild

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/clinical-genomics-lund/genmod/internal/model"
)

// Warner receives per-row warnings during a build (spec.md §4.A/§7).
// *zap.SugaredLogger satisfies this via the sugaredLogger adapter in
// cmd/genmod, whose Warn forwards to Warnf; tests can pass a simple
// slice-collecting stub.
type Warner interface {
	Warn(format string, args ...any)
}

// noopWarner discards warnings; used when callers don't care.
type noopWarner struct{}

func (noopWarner) Warn(string, ...any) {}

// BuildResult holds the Features the builder produced, split the way
// the persistence layer wants them.
type BuildResult struct {
	Genes []model.Feature
	Exons []model.Feature
}

// Build streams a feature table and produces the Gene/Exon feature
// sets spec.md §4.A describes. splicePadding is clamped at 0. Malformed
// rows are skipped with a warning; an unrecognized format is the
// caller's responsibility to reject before calling Build (ParseFormat).
func Build(r io.Reader, format Format, splicePadding int64, warn Warner) (*BuildResult, error) {
	if warn == nil {
		warn = noopWarner{}
	}
	if splicePadding < 0 {
		splicePadding = 0
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read feature table: %w", err)
	}

	rawExons, warnings := parseRows(format, lines)
	for _, w := range warnings {
		warn.Warn("skipping malformed feature row: %v", w)
	}

	return assemble(rawExons, splicePadding), nil
}

// BuildFile opens path and delegates to Build.
func BuildFile(path string, format Format, splicePadding int64, warn Warner) (*BuildResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feature file: %w", err)
	}
	defer f.Close()
	return Build(f, format, splicePadding, warn)
}

// geneKey groups transcripts into one gene by (chrom, symbol): spec.md
// §4.A requires merging only within the same chromosome, since the same
// symbol can legitimately appear on two chromosomes in some tables.
type geneKey struct {
	chrom  string
	symbol string
}

// assemble pads each exon, merges same-gene exons across transcripts,
// and computes each gene's min/max envelope (spec.md §3/§4.A).
func assemble(rawExons []rawExon, splicePadding int64) *BuildResult {
	byGene := make(map[geneKey][]rawExon)
	for _, e := range rawExons {
		k := geneKey{chrom: e.chrom, symbol: e.gene}
		byGene[k] = append(byGene[k], e)
	}

	keys := make([]geneKey, 0, len(byGene))
	for k := range byGene {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].chrom != keys[j].chrom {
			return keys[i].chrom < keys[j].chrom
		}
		return keys[i].symbol < keys[j].symbol
	})

	result := &BuildResult{}
	for _, k := range keys {
		group := byGene[k]
		sort.Slice(group, func(i, j int) bool { return group[i].start < group[j].start })

		var geneStart, geneEnd int64
		var strand int8
		exonFeatures := make([]model.Feature, 0, len(group))
		for i, e := range group {
			paddedStart := e.start - splicePadding
			if paddedStart < 1 {
				paddedStart = 1
			}
			paddedEnd := e.end + splicePadding

			if i == 0 || paddedStart < geneStart {
				geneStart = paddedStart
			}
			if i == 0 || paddedEnd > geneEnd {
				geneEnd = paddedEnd
			}
			strand = e.strand

			exonFeatures = append(exonFeatures, model.Feature{
				FeatureID:  fmt.Sprintf("%s:exon:%s:%d-%d", k.symbol, k.chrom, paddedStart, paddedEnd),
				Chrom:      k.chrom,
				Start:      paddedStart,
				End:        paddedEnd,
				Kind:       model.KindExon,
				Strand:     model.Strand(strand),
				ParentGene: k.symbol,
			})
		}

		result.Exons = append(result.Exons, exonFeatures...)
		result.Genes = append(result.Genes, model.Feature{
			FeatureID: k.symbol,
			Chrom:     k.chrom,
			Start:     geneStart,
			End:       geneEnd,
			Kind:      model.KindGene,
			Strand:    model.Strand(strand),
		})
	}
	return result
}
