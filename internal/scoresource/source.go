// Package scoresource implements the Score/Frequency Lookup (spec.md
// §4.E) over block-compressed, position-indexed flat files such as CADD
// and 1000 Genomes downloads. Grounded on github.com/biogo/hts/bgzf,
// the real block-gzip reader used for bgzf random access elsewhere in
// the example pack (grailbio-bio/encoding/bam/gindex.go's
// bgzfReader.LastChunk().Begin, and the kortschak-ins go.mod's
// otherwise-unused github.com/biogo/hts dependency). The companion
// position index is a small JSON sidecar this package builds itself —
// not a samtools .tbi clone — because spec.md only requires "random
// access" and "build lazily if missing", not samtools interop.
package scoresource

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/biogo/hts/bgzf"

	"github.com/clinical-genomics-lund/genmod/internal/model"
)

// sampleEvery controls the index's resolution: one sidecar sample per
// this many lines per chromosome. A lookup scans forward from the
// nearest sample at or before the target position.
const sampleEvery = 1024

// readerConcurrency is the decompression worker count passed to
// bgzf.NewReader, matching the value used for query readers in
// other_examples' vcfanno.go.
const readerConcurrency = 2

// Source is one score/frequency file: the path plus its (possibly
// lazily-built) sidecar index. Safe for concurrent Lookup calls — each
// call opens its own bgzf.Reader (spec.md §4.E: "one reader per worker
// is acceptable").
type Source struct {
	path      string
	indexPath string

	once  sync.Once
	index *fileIndex
	err   error
}

// Open returns a Source for path. The sidecar index is built lazily on
// the first Lookup, not at Open time, so opening an optional source
// that's never queried costs nothing.
func Open(path string) *Source {
	return &Source{path: path, indexPath: path + ".gmidx"}
}

// Lookup returns the score at (chrom, pos, ref, alt), or false if the
// file has no matching record. A miss is not an error (spec.md §4.E/§7).
func (s *Source) Lookup(chrom string, pos int64, ref, alt string) (float64, bool, error) {
	s.once.Do(func() { s.index, s.err = loadOrBuildIndex(s.path, s.indexPath) })
	if s.err != nil {
		return 0, false, fmt.Errorf("scoresource %s: %w", s.path, s.err)
	}

	chrom = model.NormalizeChrom(chrom)
	samples := s.index.Chroms[chrom]
	if len(samples) == 0 {
		return 0, false, nil
	}

	start := samples[0]
	for _, sm := range samples {
		if sm.Pos > pos {
			break
		}
		start = sm
	}

	f, err := os.Open(s.path)
	if err != nil {
		return 0, false, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	r, err := bgzf.NewReader(f, readerConcurrency)
	if err != nil {
		return 0, false, fmt.Errorf("open bgzf reader for %s: %w", s.path, err)
	}
	defer r.Close()

	if err := r.Seek(bgzf.Offset{File: start.File, Block: start.Block}); err != nil {
		return 0, false, fmt.Errorf("seek %s: %w", s.path, err)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		rec, ok := parseScoreLine(sc.Text())
		if !ok {
			continue
		}
		if rec.chrom != chrom {
			if rec.chrom > chrom {
				break
			}
			continue
		}
		if rec.pos > pos {
			break
		}
		if rec.pos == pos && rec.ref == ref && rec.alt == alt {
			return rec.score, true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return 0, false, fmt.Errorf("scan %s: %w", s.path, err)
	}
	return 0, false, nil
}

type scoreRecord struct {
	chrom string
	pos   int64
	ref   string
	alt   string
	score float64
}

// parseScoreLine parses "chrom\tpos\tref\talt\t...\tscore", tolerating
// extra columns between alt and score the way CADD's RawScore+PHRED
// pair does — only the last column is used (spec.md §4.E treats the
// lookup as a single float per position).
func parseScoreLine(line string) (scoreRecord, bool) {
	if line == "" || strings.HasPrefix(line, "#") {
		return scoreRecord{}, false
	}
	f := strings.Split(line, "\t")
	if len(f) < 5 {
		return scoreRecord{}, false
	}
	pos, err := strconv.ParseInt(f[1], 10, 64)
	if err != nil {
		return scoreRecord{}, false
	}
	score, err := strconv.ParseFloat(f[len(f)-1], 64)
	if err != nil {
		return scoreRecord{}, false
	}
	return scoreRecord{
		chrom: model.NormalizeChrom(f[0]),
		pos:   pos,
		ref:   f[2],
		alt:   f[3],
		score: score,
	}, true
}
