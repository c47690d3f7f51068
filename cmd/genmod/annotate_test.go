package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clinical-genomics-lund/genmod/internal/model"
)

func famOf(ids ...string) *model.Family {
	fam := model.NewFamily("FAM")
	for _, id := range ids {
		fam.AddIndividual(&model.Individual{IndID: id})
	}
	return fam
}

func TestCheckIndividualSetsMatches(t *testing.T) {
	fam := famOf("1", "2", "3")
	require.NoError(t, checkIndividualSets(fam, []string{"1", "2", "3"}))
}

func TestCheckIndividualSetsMissingSample(t *testing.T) {
	fam := famOf("1", "2", "3")
	err := checkIndividualSets(fam, []string{"1", "2"})
	require.Error(t, err)
	var ce *cliError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, ExitUsage, ce.code)
}

func TestCheckIndividualSetsExtraSample(t *testing.T) {
	fam := famOf("1", "2")
	err := checkIndividualSets(fam, []string{"1", "2", "extra"})
	require.Error(t, err)
	var ce *cliError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, ExitUsage, ce.code)
}

func TestRunMissingAnnotationDirMapsToExitMissingIndex(t *testing.T) {
	root := newRootCmd()
	dir := t.TempDir()

	pedPath := filepath.Join(dir, "fam.ped")
	require.NoError(t, os.WriteFile(pedPath, []byte("FAM\t1\t0\t0\t1\t2\n"), 0o644))
	varPath := filepath.Join(dir, "variants.txt")
	body := "##fileformat=GENMODv1\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\t1\n1\t5\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\n"
	require.NoError(t, os.WriteFile(varPath, []byte(body), 0o644))

	root.SetArgs([]string{"annotate", pedPath, varPath, "--annotation-dir", filepath.Join(dir, "no-such-index")})
	err := root.Execute()
	require.Error(t, err)
	var ce *cliError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, ExitMissingIndex, ce.code)
}
