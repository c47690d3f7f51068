// Package vcfio reads and writes the pedigree-aware, multi-sample
// variant stream spec.md §3/§6 describes: a tab-separated file with a
// "#"-prefixed header section, one data row per (chrom, pos, ref, alt)
// with per-individual genotype columns, and an INFO column using
// "KEY=VAL;" syntax.
//
// This is an out-of-core-scope collaborator (spec.md §1/§6) — the
// classifier and batcher only consume the *model.Variant it produces.
package vcfio

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/clinical-genomics-lund/genmod/internal/model"
)

// ParseError reports a malformed data row with its line number. Per
// spec.md §7, the caller skips the row and continues rather than
// aborting the run.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("variant file line %d: %s", e.Line, e.Message)
}

// Parser reads variants from a tab-separated variant file, gzip or
// plain. Grounded on internal/vcf/parser.go's gzip-sniffing open and
// header/body split, generalized to carry every sample column as a
// genotype rather than assuming a fixed tumor/normal pair.
type Parser struct {
	reader     *bufio.Reader
	closer     io.Closer
	lineNumber int

	headerLines []string // raw "##"-prefixed metadata lines, in order
	columns     []string // #CHROM header fields
	sampleNames []string // trailing #CHROM columns, in file order
	phased      bool     // true if any GT seen so far used '|'
}

// NewParser opens path (or stdin for "-") and parses its header.
func NewParser(path string) (*Parser, error) {
	var r io.Reader
	var closer io.Closer

	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open variant file: %w", err)
		}
		closer = f
		r = f
	}

	br := bufio.NewReader(r)
	peek, err := br.Peek(2)
	if err == nil && len(peek) == 2 && peek[0] == 0x1f && peek[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			if closer != nil {
				closer.Close()
			}
			return nil, fmt.Errorf("open gzip variant file: %w", err)
		}
		br = bufio.NewReader(gz)
	}

	p := &Parser{reader: br, closer: closer}
	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read header: %w", err)
		}
		if line == "" && err == io.EOF {
			return fmt.Errorf("variant file has no #CHROM header line")
		}
		p.lineNumber++
		line = strings.TrimRight(line, "\r\n")

		switch {
		case strings.HasPrefix(line, "##"):
			p.headerLines = append(p.headerLines, line)
		case strings.HasPrefix(line, "#"):
			p.columns = strings.Split(strings.TrimPrefix(line, "#"), "\t")
			if len(p.columns) > 9 {
				p.sampleNames = p.columns[9:]
			}
			return nil
		default:
			return fmt.Errorf("expected #CHROM header line at line %d", p.lineNumber)
		}

		if err == io.EOF {
			return fmt.Errorf("variant file has no #CHROM header line")
		}
	}
}

// HeaderLines returns the raw "##"-prefixed metadata lines.
func (p *Parser) HeaderLines() []string { return p.headerLines }

// SampleNames returns the individual ids found in the #CHROM line.
func (p *Parser) SampleNames() []string { return p.sampleNames }

// LineNumber returns the current line being processed (1-based).
func (p *Parser) LineNumber() int { return p.lineNumber }

// Close releases the underlying file handle, if any.
func (p *Parser) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// Next reads and splits the next data row into one *model.Variant per
// ALT allele (spec.md §3's variant_key is per-allele). Returns (nil,
// nil) at EOF. A malformed row is reported as a non-nil err of
// type *ParseError; per spec.md §7 the caller should log and continue
// rather than treat it as fatal.
func (p *Parser) Next() ([]*model.Variant, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read variant file: %w", err)
		}
		if line == "" && err == io.EOF {
			return nil, nil
		}
		p.lineNumber++
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}

		variants, perr := p.parseRow(trimmed)
		if perr != nil {
			return nil, perr
		}
		return variants, nil
	}
}

func (p *Parser) parseRow(line string) ([]*model.Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{Line: p.lineNumber, Message: "fewer than 8 columns"}
	}

	chrom, posField, id, ref, altField, _, _, infoField := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6], fields[7]

	pos, err := strconv.ParseInt(posField, 10, 64)
	if err != nil {
		return nil, &ParseError{Line: p.lineNumber, Message: "invalid POS " + posField}
	}

	info := parseInfo(infoField)

	var formatFields []string
	var sampleFields []string
	if len(fields) > 9 {
		formatFields = strings.Split(fields[8], ":")
		sampleFields = fields[9:]
	}
	gtIdx := indexOf(formatFields, "GT")

	alts := strings.Split(altField, ",")
	variants := make([]*model.Variant, 0, len(alts))
	for altIdx, alt := range alts {
		v := &model.Variant{
			Chrom:     chrom,
			Pos:       pos,
			Ref:       ref,
			Alt:       alt,
			ID:        id,
			Info:      cloneInfo(info),
			Genotypes: make(map[string]model.Genotype, len(p.sampleNames)),
		}

		for i, sampleName := range p.sampleNames {
			if gtIdx < 0 || i >= len(sampleFields) {
				v.Genotypes[sampleName] = model.Genotype{Call: model.Missing}
				continue
			}
			sampleParts := strings.Split(sampleFields[i], ":")
			if gtIdx >= len(sampleParts) {
				v.Genotypes[sampleName] = model.Genotype{Call: model.Missing}
				continue
			}
			gt := parseGT(sampleParts[gtIdx], altIdx+1)
			if gt.Phased {
				p.phased = true
			}
			v.Genotypes[sampleName] = gt
		}

		variants = append(variants, v)
	}
	return variants, nil
}

// parseGT parses a single GT field (e.g. "0/1", "1|0", "./.") relative
// to the 1-based alt index of the allele this split variant represents.
func parseGT(raw string, altNumber int) model.Genotype {
	if raw == "" || raw == "." {
		return model.Genotype{Call: model.Missing}
	}

	sep := "/"
	phased := false
	if strings.Contains(raw, "|") {
		sep = "|"
		phased = true
	}
	alleles := strings.Split(raw, sep)
	if len(alleles) != 2 {
		return model.Genotype{Call: model.Missing}
	}

	codes := make([]int, 2)
	missing := false
	for i, a := range alleles {
		if a == "." {
			missing = true
			continue
		}
		n, err := strconv.Atoi(a)
		if err != nil {
			missing = true
			continue
		}
		codes[i] = n
	}
	if missing {
		return model.Genotype{Call: model.Missing, Phased: phased}
	}

	altCount := 0
	for _, c := range codes {
		if c == altNumber {
			altCount++
		}
	}

	gt := model.Genotype{Phased: phased}
	switch altCount {
	case 0:
		gt.Call = model.HomRef
	case 1:
		gt.Call = model.Het
		if phased {
			// codes[0] is paternal by VCF convention when phased.
			if codes[0] == altNumber {
				gt.Origin = model.OriginFather
			} else {
				gt.Origin = model.OriginMother
			}
		}
	case 2:
		gt.Call = model.HomAlt
	}
	return gt
}

func parseInfo(field string) map[string]string {
	info := make(map[string]string)
	if field == "" || field == "." {
		return info
	}
	for _, part := range strings.Split(field, ";") {
		if part == "" {
			continue
		}
		if i := strings.IndexByte(part, '='); i >= 0 {
			info[part[:i]] = part[i+1:]
		} else {
			info[part] = ""
		}
	}
	return info
}

func cloneInfo(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func indexOf(fields []string, target string) int {
	for i, f := range fields {
		if f == target {
			return i
		}
	}
	return -1
}
