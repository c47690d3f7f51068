// Package sortemit implements the Sorter/Emitter (spec.md §4.G): an
// external merge sort of one chromosome's annotated variant lines by
// (pos, then ref/alt lexicographically for ties), bounded to O(chunk)
// memory. Per SPEC_FULL.md's Open Question decision, Chromosome is
// called once per chromosome with that chromosome's own spill file and
// chunk files — no state survives between chromosomes, so a malformed
// chromosome's sort can't corrupt another's.
package sortemit

import (
	"bufio"
	"container/heap"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultChunkLines bounds the in-memory sort chunk size (spec.md §4.G
// "chunk size is bounded so memory stays O(chunk)").
const DefaultChunkLines = 50000

// lineKey is the (pos, ref, alt) sort key spec.md §4.G and §8 specify:
// numeric position, then ref/alt lexicographic for ties.
type lineKey struct {
	pos int64
	ref string
	alt string
}

// parseKey extracts the sort key from one rendered variant line, whose
// leading columns are CHROM, POS, ID, REF, ALT (internal/vcfio.FormatRow's
// default column order).
func parseKey(line string) (lineKey, error) {
	var k lineKey
	// Only the first 5 tab-separated fields are needed.
	fields := make([]string, 0, 5)
	start := 0
	for i := 0; i < len(line) && len(fields) < 5; i++ {
		if line[i] == '\t' {
			fields = append(fields, line[start:i])
			start = i + 1
		}
	}
	if len(fields) < 5 {
		fields = append(fields, line[start:])
	}
	if len(fields) < 5 {
		return k, fmt.Errorf("sortemit: line has fewer than 5 columns: %q", line)
	}
	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return k, fmt.Errorf("sortemit: invalid POS column %q: %w", fields[1], err)
	}
	k.pos = pos
	k.ref = fields[3]
	k.alt = fields[4]
	return k, nil
}

func less(a, b lineKey) bool {
	if a.pos != b.pos {
		return a.pos < b.pos
	}
	if a.ref != b.ref {
		return a.ref < b.ref
	}
	return a.alt < b.alt
}

// Chromosome external-merge-sorts spillPath's lines and writes the
// sorted body to w, one line per record, newline-terminated. scratchDir
// holds the intermediate chunk files; they're removed before Chromosome
// returns, success or failure.
func Chromosome(spillPath string, chunkLines int, scratchDir string, w io.Writer) error {
	if chunkLines <= 0 {
		chunkLines = DefaultChunkLines
	}

	chunkPaths, err := splitSortedChunks(spillPath, chunkLines, scratchDir)
	defer func() {
		for _, p := range chunkPaths {
			os.Remove(p)
		}
	}()
	if err != nil {
		return fmt.Errorf("split chunks for %s: %w", spillPath, err)
	}
	if len(chunkPaths) == 0 {
		return nil
	}
	return mergeChunks(chunkPaths, w)
}

// splitSortedChunks reads spillPath in chunkLines-sized batches, sorts
// each batch in memory, and writes it to its own temp file under
// scratchDir. Returns the chunk file paths in creation order.
func splitSortedChunks(spillPath string, chunkLines int, scratchDir string) ([]string, error) {
	f, err := os.Open(spillPath)
	if err != nil {
		return nil, fmt.Errorf("open spill file: %w", err)
	}
	defer f.Close()

	var chunkPaths []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	type keyedLine struct {
		key  lineKey
		line string
	}
	var buf []keyedLine

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		sort.Slice(buf, func(i, j int) bool { return less(buf[i].key, buf[j].key) })

		cf, err := os.CreateTemp(scratchDir, "chunk-*")
		if err != nil {
			return fmt.Errorf("create chunk file: %w", err)
		}
		bw := bufio.NewWriter(cf)
		for _, kl := range buf {
			bw.WriteString(kl.line)
			bw.WriteByte('\n')
		}
		if err := bw.Flush(); err != nil {
			cf.Close()
			return err
		}
		if err := cf.Close(); err != nil {
			return err
		}
		chunkPaths = append(chunkPaths, cf.Name())
		buf = buf[:0]
		return nil
	}

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		key, err := parseKey(line)
		if err != nil {
			return chunkPaths, err
		}
		buf = append(buf, keyedLine{key: key, line: line})
		if len(buf) >= chunkLines {
			if err := flush(); err != nil {
				return chunkPaths, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return chunkPaths, fmt.Errorf("read spill file: %w", err)
	}
	if err := flush(); err != nil {
		return chunkPaths, err
	}
	return chunkPaths, nil
}

// mergeEntry is one chunk reader's current line, tracked in the heap by
// sort key.
type mergeEntry struct {
	key  lineKey
	line string
	idx  int // which chunk this came from
}

type mergeHeap []*mergeEntry

func (h mergeHeap) Len() int           { return len(h) }
func (h mergeHeap) Less(i, j int) bool { return less(h[i].key, h[j].key) }
func (h mergeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)        { *h = append(*h, x.(*mergeEntry)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// mergeChunks k-way merges the sorted chunk files into w in key order.
func mergeChunks(chunkPaths []string, w io.Writer) error {
	scanners := make([]*bufio.Scanner, len(chunkPaths))
	files := make([]*os.File, len(chunkPaths))
	for i, p := range chunkPaths {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open chunk file: %w", err)
		}
		files[i] = f
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
		scanners[i] = sc
	}
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	h := &mergeHeap{}
	heap.Init(h)
	for i, sc := range scanners {
		if sc.Scan() {
			key, err := parseKey(sc.Text())
			if err != nil {
				return err
			}
			heap.Push(h, &mergeEntry{key: key, line: sc.Text(), idx: i})
		}
	}

	bw := bufio.NewWriter(w)
	for h.Len() > 0 {
		top := heap.Pop(h).(*mergeEntry)
		bw.WriteString(top.line)
		bw.WriteByte('\n')

		sc := scanners[top.idx]
		if sc.Scan() {
			key, err := parseKey(sc.Text())
			if err != nil {
				return err
			}
			heap.Push(h, &mergeEntry{key: key, line: sc.Text(), idx: top.idx})
		} else if err := sc.Err(); err != nil {
			return fmt.Errorf("read chunk file: %w", err)
		}
	}
	return bw.Flush()
}

// SpillPath returns the per-chromosome spill file path under
// scratchDir, sanitized so a chromosome name can't escape the directory.
func SpillPath(scratchDir, chrom string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_' || r == '-':
			return r
		default:
			return '_'
		}
	}, chrom)
	return filepath.Join(scratchDir, "spill-"+safe)
}
