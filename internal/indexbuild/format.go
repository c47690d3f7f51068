package indexbuild

import (
	"fmt"
	"strconv"
	"strings"
)

// Format is a recognized feature-table shape (spec.md §4.A/§6).
type Format string

const (
	FormatBED      Format = "bed"
	FormatCCDS     Format = "ccds"
	FormatGTF      Format = "gtf"
	FormatGenePred Format = "gene-pred"
)

// ParseFormat validates a --annotation-type flag value. An unknown tag
// is fatal before any output is written (spec.md §4.A Errors).
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatBED, FormatCCDS, FormatGTF, FormatGenePred:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown annotation-type %q (want bed, ccds, gtf, or gene-pred)", s)
	}
}

// rawExon is one exon interval belonging to one transcript, before
// grouping by gene symbol.
type rawExon struct {
	gene   string
	chrom  string
	strand int8
	start  int64 // 1-based inclusive
	end    int64
}

// rowError is a malformed-row warning (spec.md §4.A Errors: skip with a
// warning, never fatal).
type rowError struct {
	line    int
	message string
}

func (e *rowError) Error() string { return fmt.Sprintf("line %d: %s", e.line, e.message) }

// parseRows dispatches to the format-specific row parser and returns
// the exons it produced plus any skipped-row warnings.
func parseRows(format Format, lines []string) ([]rawExon, []error) {
	switch format {
	case FormatBED:
		return parseBED(lines)
	case FormatCCDS:
		return parseCCDS(lines)
	case FormatGTF:
		return parseGTF(lines)
	case FormatGenePred:
		return parseGenePred(lines)
	default:
		return nil, []error{fmt.Errorf("unsupported format %q", format)}
	}
}

func strandOf(s string) int8 {
	if s == "-" {
		return -1
	}
	return 1
}

// parseBED parses BED12 rows: chrom, chromStart(0-based), chromEnd,
// name, score, strand, thickStart, thickEnd, itemRgb, blockCount,
// blockSizes, blockStarts. name is the gene symbol; blocks are exons
// relative to chromStart.
func parseBED(lines []string) ([]rawExon, []error) {
	var exons []rawExon
	var warnings []error
	for i, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "track") {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < 12 {
			warnings = append(warnings, &rowError{i + 1, "bed row has fewer than 12 columns"})
			continue
		}
		chromStart, err1 := strconv.ParseInt(f[1], 10, 64)
		if err1 != nil {
			warnings = append(warnings, &rowError{i + 1, "invalid chromStart"})
			continue
		}
		name := f[3]
		strand := strandOf(f[5])
		blockCount, err2 := strconv.Atoi(f[9])
		sizes := strings.Split(strings.Trim(f[10], ","), ",")
		starts := strings.Split(strings.Trim(f[11], ","), ",")
		if err2 != nil || len(sizes) < blockCount || len(starts) < blockCount {
			warnings = append(warnings, &rowError{i + 1, "invalid bed block columns"})
			continue
		}
		for b := 0; b < blockCount; b++ {
			size, err3 := strconv.ParseInt(strings.TrimSpace(sizes[b]), 10, 64)
			off, err4 := strconv.ParseInt(strings.TrimSpace(starts[b]), 10, 64)
			if err3 != nil || err4 != nil {
				warnings = append(warnings, &rowError{i + 1, "invalid bed block size/start"})
				continue
			}
			start := chromStart + off + 1 // 0-based -> 1-based
			end := start + size - 1
			exons = append(exons, rawExon{gene: name, chrom: f[0], strand: strand, start: start, end: end})
		}
	}
	return exons, warnings
}

// parseCCDS parses the CCDS consensus-coding-sequence table:
// #chromosome, nc_accession, gene, gene_id, ccds_id, ccds_status,
// cds_strand, cds_from, cds_to, cds_locations, match_type. cds_locations
// is "[start-end], [start-end], ..." 0-based with an inclusive end per
// exon.
func parseCCDS(lines []string) ([]rawExon, []error) {
	var exons []rawExon
	var warnings []error
	for i, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < 10 {
			warnings = append(warnings, &rowError{i + 1, "ccds row has fewer than 10 columns"})
			continue
		}
		chrom, gene, strand, locs := f[0], f[2], f[6], f[9]
		if locs == "-" || locs == "" {
			continue // withdrawn/no CDS
		}
		locs = strings.Trim(locs, "[]")
		for _, seg := range strings.Split(locs, ",") {
			seg = strings.TrimSpace(strings.Trim(seg, "[]"))
			if seg == "" {
				continue
			}
			parts := strings.SplitN(seg, "-", 2)
			if len(parts) != 2 {
				warnings = append(warnings, &rowError{i + 1, "invalid ccds cds_locations segment"})
				continue
			}
			start, err1 := strconv.ParseInt(parts[0], 10, 64)
			end, err2 := strconv.ParseInt(parts[1], 10, 64)
			if err1 != nil || err2 != nil {
				warnings = append(warnings, &rowError{i + 1, "invalid ccds cds_locations numbers"})
				continue
			}
			exons = append(exons, rawExon{gene: gene, chrom: chrom, strand: strandOf(strand), start: start + 1, end: end + 1})
		}
	}
	return exons, warnings
}

// parseGTF parses GTF/GFF2 rows: seqname, source, feature, start, end,
// score, strand, frame, attribute. Only "exon" feature rows are used;
// the gene symbol is read from the gene_name (falling back to gene_id)
// attribute.
func parseGTF(lines []string) ([]rawExon, []error) {
	var exons []rawExon
	var warnings []error
	for i, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < 9 {
			warnings = append(warnings, &rowError{i + 1, "gtf row has fewer than 9 columns"})
			continue
		}
		if f[2] != "exon" {
			continue
		}
		start, err1 := strconv.ParseInt(f[3], 10, 64)
		end, err2 := strconv.ParseInt(f[4], 10, 64)
		if err1 != nil || err2 != nil {
			warnings = append(warnings, &rowError{i + 1, "invalid gtf start/end"})
			continue
		}
		gene := gtfAttr(f[8], "gene_name")
		if gene == "" {
			gene = gtfAttr(f[8], "gene_id")
		}
		if gene == "" {
			warnings = append(warnings, &rowError{i + 1, "gtf row missing gene_name/gene_id attribute"})
			continue
		}
		exons = append(exons, rawExon{gene: gene, chrom: f[0], strand: strandOf(f[6]), start: start, end: end})
	}
	return exons, warnings
}

func gtfAttr(attrField, key string) string {
	for _, part := range strings.Split(attrField, ";") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, key) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(part, key))
		rest = strings.Trim(rest, `"`)
		return rest
	}
	return ""
}

// parseGenePred parses UCSC genePred/genePredExt rows: name, chrom,
// strand, txStart, txEnd, cdsStart, cdsEnd, exonCount, exonStarts,
// exonEnds, [score, name2, ...]. name2 (column 12, genePredExt only) is
// preferred as the gene symbol; plain genePred falls back to name.
func parseGenePred(lines []string) ([]rawExon, []error) {
	var exons []rawExon
	var warnings []error
	for i, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < 10 {
			warnings = append(warnings, &rowError{i + 1, "genePred row has fewer than 10 columns"})
			continue
		}
		name, chrom, strand := f[0], f[1], f[2]
		gene := name
		if len(f) >= 12 && f[11] != "" {
			gene = f[11]
		}
		exonCount, err0 := strconv.Atoi(f[7])
		starts := strings.Split(strings.Trim(f[8], ","), ",")
		ends := strings.Split(strings.Trim(f[9], ","), ",")
		if err0 != nil || len(starts) < exonCount || len(ends) < exonCount {
			warnings = append(warnings, &rowError{i + 1, "invalid genePred exon columns"})
			continue
		}
		for e := 0; e < exonCount; e++ {
			start, err1 := strconv.ParseInt(strings.TrimSpace(starts[e]), 10, 64)
			end, err2 := strconv.ParseInt(strings.TrimSpace(ends[e]), 10, 64)
			if err1 != nil || err2 != nil {
				warnings = append(warnings, &rowError{i + 1, "invalid genePred exon start/end"})
				continue
			}
			exons = append(exons, rawExon{gene: gene, chrom: chrom, strand: strandOf(strand), start: start + 1, end: end})
		}
	}
	return exons, warnings
}
