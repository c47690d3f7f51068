package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/clinical-genomics-lund/genmod/internal/indexbuild"
)

func newBuildAnnotationCmd() *cobra.Command {
	var (
		annotationType string
		outdir         string
		splicePadding  int64
	)

	cmd := &cobra.Command{
		Use:   "build-annotation <feature_file>",
		Short: "Build the gene/exon interval index from a feature file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(verbose)
			if err != nil {
				return ioErrorf("init logging: %v", err)
			}
			defer log.Sync()

			format, err := indexbuild.ParseFormat(annotationType)
			if err != nil {
				return usageErrorf("%v", err)
			}

			featurePath := args[0]
			f, err := os.Open(featurePath)
			if err != nil {
				return ioErrorf("open feature file: %v", err)
			}
			defer f.Close()

			result, err := indexbuild.Build(f, format, splicePadding, sugaredLogger{log})
			if err != nil {
				return ioErrorf("build annotation: %v", err)
			}
			log.Infof("built index: %d genes, %d exons", len(result.Genes), len(result.Exons))

			if err := indexbuild.Save(outdir, result); err != nil {
				return ioErrorf("save index: %v", err)
			}
			log.Infof("wrote index to %s", outdir)
			return nil
		},
	}

	cmd.Flags().StringVar(&annotationType, "annotation-type", "bed", "feature file format: bed, ccds, gtf, gene-pred")
	cmd.Flags().StringVar(&outdir, "outdir", ".", "directory to write the genes/exons index blobs")
	cmd.Flags().Int64Var(&splicePadding, "splice-padding", 0, "bases of padding added to each exon envelope")
	return cmd
}
