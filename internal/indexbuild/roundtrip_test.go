package indexbuild

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBuildSaveLoadRoundTrip exercises spec.md §8's "Builder
// round-trip" property: build from a feature table, save to the
// on-disk index blobs, reload, and confirm GenesAt/ExonsAt agree with
// a direct linear scan over the features Build produced.
func TestBuildSaveLoadRoundTrip(t *testing.T) {
	gtf := strings.Join([]string{
		`1\tsrc\texon\t1000\t1100\t.\t+\t.\tgene_id "ENSG1"; gene_name "ABC"`,
		`1\tsrc\texon\t2000\t2200\t.\t+\t.\tgene_id "ENSG1"; gene_name "ABC"`,
		`1\tsrc\texon\t5000\t5050\t.\t-\t.\tgene_id "ENSG2"; gene_name "XYZ"`,
		`2\tsrc\texon\t100\t200\t.\t+\t.\tgene_id "ENSG3"; gene_name "ABC"`,
	}, "\n")
	gtf = strings.ReplaceAll(gtf, `\t`, "\t")

	result, err := Build(strings.NewReader(gtf), FormatGTF, 0, nil)
	require.NoError(t, err)
	require.Len(t, result.Genes, 3) // chrom 1's ABC, chrom 1's XYZ, chrom 2's ABC
	require.Len(t, result.Exons, 4)

	dir := t.TempDir()
	require.NoError(t, Save(dir, result))
	require.True(t, Exists(dir))

	idx, err := Load(dir)
	require.NoError(t, err)

	for _, pos := range []int64{1, 999, 1000, 1050, 1100, 1101, 1999, 2100, 2200, 2201, 5000, 5050} {
		wantGenes := asSet(linearPointOverlaps(result.Genes, pos))
		gotGenes := asSet(idx.GenesAt("1", pos))
		require.Equal(t, wantGenes, gotGenes, "GenesAt(1, %d)", pos)

		wantExons := asSet(linearPointOverlaps(result.Exons, pos))
		gotExons := asSet(idx.ExonsAt("1", pos))
		require.Equal(t, wantExons, gotExons, "ExonsAt(1, %d)", pos)
	}

	require.Equal(t, []string{"ABC"}, idx.GenesAt("2", 150))
	require.Empty(t, idx.GenesAt("3", 1)) // unknown chromosome: empty, not an error
}

func TestBuildSaveLoadRoundTrip_EmptyFeatureSet(t *testing.T) {
	dir := t.TempDir()
	result := &BuildResult{}
	require.NoError(t, Save(dir, result))

	idx, err := Load(dir)
	require.NoError(t, err)
	require.Empty(t, idx.GenesAt("1", 1))
}

func TestExists_FalseWhenDirEmpty(t *testing.T) {
	require.False(t, Exists(t.TempDir()))
}
