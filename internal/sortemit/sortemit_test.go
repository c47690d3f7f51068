package sortemit

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSpill(t *testing.T, dir string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, "spill")
	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func row(chrom string, pos int, ref, alt string) string {
	return strings.Join([]string{chrom, itoa(pos), ".", ref, alt, ".", "PASS", "."}, "\t")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

// TestChromosome_SortsByPosThenRefAlt exercises spec.md §4.G/§8's
// sort-key property across a single in-memory chunk (no chunking
// boundary involved).
func TestChromosome_SortsByPosThenRefAlt(t *testing.T) {
	dir := t.TempDir()
	spill := writeSpill(t, dir, []string{
		row("1", 300, "A", "G"),
		row("1", 100, "C", "T"),
		row("1", 100, "A", "T"),
		row("1", 200, "A", "G"),
	})

	var out bytes.Buffer
	require.NoError(t, Chromosome(spill, 0, dir, &out))

	got := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Equal(t, []string{
		row("1", 100, "A", "T"),
		row("1", 100, "C", "T"),
		row("1", 200, "A", "G"),
		row("1", 300, "A", "G"),
	}, got)
}

// TestChromosome_MultiChunkMergeProducesGlobalOrder forces multiple
// chunks (chunkLines=2 over 5 lines) so the external-merge path, not
// just the single-chunk sort path, is exercised.
func TestChromosome_MultiChunkMergeProducesGlobalOrder(t *testing.T) {
	dir := t.TempDir()
	spill := writeSpill(t, dir, []string{
		row("1", 500, "A", "G"),
		row("1", 10, "A", "G"),
		row("1", 250, "A", "G"),
		row("1", 1, "A", "G"),
		row("1", 999, "A", "G"),
	})

	var out bytes.Buffer
	require.NoError(t, Chromosome(spill, 2, dir, &out))

	got := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Equal(t, []string{
		row("1", 1, "A", "G"),
		row("1", 10, "A", "G"),
		row("1", 250, "A", "G"),
		row("1", 500, "A", "G"),
		row("1", 999, "A", "G"),
	}, got)

	// Chunk files must not leak in scratchDir after Chromosome returns.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1) // just the spill file itself
}

func TestChromosome_EmptySpillProducesNoOutput(t *testing.T) {
	dir := t.TempDir()
	spill := writeSpill(t, dir, nil)

	var out bytes.Buffer
	require.NoError(t, Chromosome(spill, 0, dir, &out))
	require.Empty(t, out.String())
}

func TestChromosome_MalformedLinePropagatesError(t *testing.T) {
	dir := t.TempDir()
	spill := writeSpill(t, dir, []string{"not\tenough\tcolumns"})

	var out bytes.Buffer
	require.Error(t, Chromosome(spill, 0, dir, &out))
}

func TestSpillPath_SanitizesChromosomeName(t *testing.T) {
	path := SpillPath("/tmp/scratch", "chr1")
	require.Equal(t, filepath.Join("/tmp/scratch", "spill-chr1"), path)

	unsafe := SpillPath("/tmp/scratch", "../../etc/passwd")
	require.NotContains(t, unsafe, "..")
	require.Equal(t, filepath.Join("/tmp/scratch", "spill-______etc_passwd"), unsafe)
}
