package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinical-genomics-lund/genmod/internal/indexbuild"
	"github.com/clinical-genomics-lund/genmod/internal/model"
	"github.com/clinical-genomics-lund/genmod/internal/pedigree"
	"github.com/clinical-genomics-lund/genmod/internal/pipeline"
	"github.com/clinical-genomics-lund/genmod/internal/scoresource"
	"github.com/clinical-genomics-lund/genmod/internal/vcfio"
)

func newAnnotateCmd() *cobra.Command {
	var (
		familyType    string
		vepInput      bool
		phased        bool
		silent        bool
		wholeGene     bool
		annotationDir string
		outfile       string
		caddFile      string
		cadd1000g     string
		thousandG     string
	)

	cmd := &cobra.Command{
		Use:   "annotate <pedigree_file> <variant_file>",
		Short: "Annotate a variant file with pedigree-derived inheritance models",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(verbose)
			if err != nil {
				return ioErrorf("init logging: %v", err)
			}
			defer log.Sync()

			dialect, err := pedigree.ParseDialect(familyType)
			if err != nil {
				return usageErrorf("%v", err)
			}
			fam, err := pedigree.ReadFile(args[0], dialect)
			if err != nil {
				return ioErrorf("read pedigree: %v", err)
			}

			parser, err := vcfio.NewParser(args[1])
			if err != nil {
				return ioErrorf("open variant file: %v", err)
			}
			defer parser.Close()

			if err := checkIndividualSets(fam, parser.SampleNames()); err != nil {
				return err
			}

			if annotationDir == "" {
				return usageErrorf("--annotation-dir is required")
			}
			if !indexbuild.Exists(annotationDir) {
				return missingIndexErrorf("no annotation index found in %s (run build-annotation first)", annotationDir)
			}
			idx, err := indexbuild.Load(annotationDir)
			if err != nil {
				var mismatch *indexbuild.ErrSchemaMismatch
				if errors.As(err, &mismatch) {
					return missingIndexErrorf("load annotation index: %v", err)
				}
				return ioErrorf("load annotation index: %v", err)
			}

			scores, headerOpts := openScoreSources(caddFile, cadd1000g, thousandG)
			headerOpts.VEP = vepInput

			out := os.Stdout
			if outfile != "" {
				f, err := os.Create(outfile)
				if err != nil {
					return ioErrorf("create outfile: %v", err)
				}
				defer f.Close()
				out = f
			}

			coord := pipeline.New(pipeline.Options{
				Index:     idx,
				Family:    fam,
				WholeGene: wholeGene,
				Scores:    scores,
				Logger:    sugaredLogger{log},
			})
			if err := coord.Run(parser, out, headerOpts); err != nil {
				return ioErrorf("annotate: %v", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&familyType, "family-type", "ped", "pedigree file dialect: ped, alt, cmms, mip")
	cmd.Flags().BoolVar(&vepInput, "vep", false, "input already carries a VEP ANN field; suppress the ANN header line")
	// phased is accepted for CLI compatibility; vcfio already derives
	// phasing per-genotype from the GT separator, so there's nothing
	// further to override.
	cmd.Flags().BoolVar(&phased, "phased", false, "accepted for compatibility; phasing is read from each GT's separator")
	// silent is accepted for CLI compatibility; diagnostics already go
	// through zap at a level gated by --verbose, not this flag.
	cmd.Flags().BoolVar(&silent, "silent", false, "accepted for compatibility; has no effect")
	cmd.Flags().BoolVar(&wholeGene, "whole-gene", false, "let variants anywhere in a gene take part in compound pairing, not only those in exons (+splice padding)")
	cmd.Flags().StringVar(&annotationDir, "annotation-dir", "", "directory holding the genes/exons index blobs from build-annotation")
	cmd.Flags().StringVar(&outfile, "outfile", "", "output path (default: stdout)")
	cmd.Flags().StringVar(&caddFile, "cadd-file", "", "bgzf-compressed CADD score file")
	cmd.Flags().StringVar(&cadd1000g, "cadd-1000g", "", "bgzf-compressed genome-wide CADD score file, used when --cadd-file misses")
	cmd.Flags().StringVar(&thousandG, "thousand-g", "", "bgzf-compressed 1000 Genomes frequency file")
	return cmd
}

// checkIndividualSets enforces spec.md §4.F step 1 / §7: the pedigree
// and the variant file's sample columns must name the same individuals.
func checkIndividualSets(fam *model.Family, sampleNames []string) error {
	famIDs := fam.IDs()
	sampleSet := make(map[string]struct{}, len(sampleNames))
	for _, s := range sampleNames {
		sampleSet[s] = struct{}{}
	}

	for id := range famIDs {
		if _, ok := sampleSet[id]; !ok {
			return usageErrorf("pedigree individual %q has no matching sample column in the variant file", id)
		}
	}
	for _, s := range sampleNames {
		if _, ok := famIDs[s]; !ok {
			return usageErrorf("variant file sample %q is not in the pedigree", s)
		}
	}
	return nil
}

func openScoreSources(caddFile, cadd1000g, thousandG string) (pipeline.Scores, vcfio.HeaderOptions) {
	var scores pipeline.Scores
	var opts vcfio.HeaderOptions

	if caddFile != "" {
		scores.CADD = scoresource.Open(caddFile)
		opts.CADD = true
	}
	if cadd1000g != "" {
		scores.CADD1000G = scoresource.Open(cadd1000g)
		opts.CADD = true
	}
	if thousandG != "" {
		scores.ThousandG = scoresource.Open(thousandG)
		opts.ThousandG = true
	}
	return scores, opts
}
