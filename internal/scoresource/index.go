package scoresource

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/biogo/hts/bgzf"
)

// indexSchemaVersion gates reloads the same way internal/indexbuild
// gates the genes/exons blobs (spec.md §4.A/§9 "self-describing enough
// to version-gate reloads" — the same rule applies to every persisted
// blob this module writes, not just the interval index).
const indexSchemaVersion = 1

// sample is one sidecar checkpoint: the bgzf virtual offset (file block
// start + within-block offset) of the first byte of a line, and that
// line's position. Exported field names mirror bgzf.Offset's so the
// JSON on disk reads naturally.
type sample struct {
	Pos   int64  `json:"pos"`
	File  int64  `json:"file"`
	Block uint16 `json:"block"`
}

type fileIndex struct {
	Version int                 `json:"version"`
	Chroms  map[string][]sample `json:"chroms"`
}

// loadOrBuildIndex reads path's sidecar index, building and persisting
// it first if missing or stale (spec.md §4.E: "the core ensures an
// index exists, building one lazily if missing").
func loadOrBuildIndex(path, indexPath string) (*fileIndex, error) {
	if idx, err := readIndex(indexPath); err == nil && idx.Version == indexSchemaVersion {
		return idx, nil
	}

	idx, err := buildIndex(path)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if err := writeIndex(indexPath, idx); err != nil {
		return nil, fmt.Errorf("write index %s: %w", indexPath, err)
	}
	return idx, nil
}

func readIndex(path string) (*fileIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var idx fileIndex
	if err := json.NewDecoder(f).Decode(&idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

func writeIndex(path string, idx *fileIndex) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(idx); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// buildIndex decompresses path once from the start, recording a sample
// every sampleEvery lines per chromosome.
func buildIndex(path string) (*fileIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r, err := bgzf.NewReader(f, readerConcurrency)
	if err != nil {
		return nil, fmt.Errorf("open bgzf reader for %s: %w", path, err)
	}
	defer r.Close()

	idx := &fileIndex{Version: indexSchemaVersion, Chroms: make(map[string][]sample)}
	counts := make(map[string]int)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		chunkBegin := r.LastChunk().Begin
		rec, ok := parseScoreLine(sc.Text())
		if !ok {
			continue
		}
		n := counts[rec.chrom]
		counts[rec.chrom] = n + 1
		if n%sampleEvery != 0 {
			continue
		}
		idx.Chroms[rec.chrom] = append(idx.Chroms[rec.chrom], sample{
			Pos:   rec.pos,
			File:  chunkBegin.File,
			Block: chunkBegin.Block,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return idx, nil
}
