// Package pipeline implements the Pipeline Coordinator (spec.md §4.F):
// it owns the bounded batch work queue, the unbounded result queue, a
// pool of classifier workers, the scratch directory of per-chromosome
// spill files, and the final per-chromosome sort/merge into the
// output. Grounded on internal/annotate/parallel.go's worker-pool
// channel idiom, adapted from seq-ordered collection (which this
// module doesn't need, since §4.G's external sort re-establishes order
// instead) to the sentinel-driven shutdown protocol spec.md §4.F/§5
// specifies.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/clinical-genomics-lund/genmod/internal/batch"
	"github.com/clinical-genomics-lund/genmod/internal/classify"
	"github.com/clinical-genomics-lund/genmod/internal/model"
	"github.com/clinical-genomics-lund/genmod/internal/scoresource"
	"github.com/clinical-genomics-lund/genmod/internal/sortemit"
	"github.com/clinical-genomics-lund/genmod/internal/vcfio"
)

// workQueueSize is the bounded work queue's capacity (spec.md §4.F).
const workQueueSize = 1000

// Scores bundles the optional score/frequency lookup sources (spec.md
// §4.E/§6). Any field may be nil, meaning that source wasn't supplied.
type Scores struct {
	CADD      *scoresource.Source // pathogenicity score -> INFO CADD
	CADD1000G *scoresource.Source // 1000-genome-wide pathogenicity -> fallback for CADD when the exome-scale file misses
	ThousandG *scoresource.Source // per-variant population frequency -> INFO 1000G_freq
}

// Options configures a Coordinator run.
type Options struct {
	Index      Index // GenesAt/ExonsAt; satisfied by *indexbuild.Index
	Family     *model.Family
	WholeGene  bool
	Scores     Scores
	Workers    int    // 0 => max(1, runtime.NumCPU()*2-1)
	ScratchDir string // base dir for os.MkdirTemp; "" => os.TempDir()
	ChunkLines int    // sortemit chunk bound; 0 => sortemit.DefaultChunkLines
	Logger     Logger
}

// Index is the subset of indexbuild.Index the Batcher needs.
type Index interface {
	GenesAt(chrom string, pos int64) []string
	ExonsAt(chrom string, pos int64) []string
}

// Logger receives coordinator diagnostics; *zap.SugaredLogger satisfies
// this via the adapter in cmd/genmod.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Infof(string, ...any) {}
func (noopLogger) Warnf(string, ...any) {}

func workerCount(n int) int {
	if n > 0 {
		return n
	}
	n = runtime.NumCPU()*2 - 1
	if n < 1 {
		n = 1
	}
	return n
}

// Coordinator runs the full annotate pipeline over a variant stream.
type Coordinator struct {
	opts Options
}

// New creates a Coordinator. opts.Index and opts.Family must be set.
func New(opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &Coordinator{opts: opts}
}

// Run reads variants from parser, classifies and annotates them, and
// writes the augmented header plus the sorted body to out (spec.md
// §4.F's 7-step protocol).
func (c *Coordinator) Run(parser *vcfio.Parser, out io.Writer, headerOpts vcfio.HeaderOptions) error {
	scratchDir, err := os.MkdirTemp(c.opts.ScratchDir, "genmod-scratch-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratchDir)

	workQueue := make(chan *batch.Batch, workQueueSize)
	rq := newResultQueue()

	workers := workerCount(c.opts.Workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	var workerErrMu sync.Mutex
	var workerErr error

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				b := <-workQueue
				if b == nil {
					return
				}
				if err := c.classifyAndScore(b); err != nil {
					workerErrMu.Lock()
					if workerErr == nil {
						workerErr = err
					}
					workerErrMu.Unlock()
					continue
				}
				for _, v := range b.AllVariants() {
					rq.in <- v
				}
			}
		}()
	}

	// parser.Next() returns one *model.Variant per ALT allele on the
	// source row; buffer them and hand the Batcher one at a time,
	// refilling the buffer only once it's drained. A malformed row is
	// skipped with a warning (spec.md §7).
	var pending []*model.Variant
	nextVariant := func() (*model.Variant, error) {
		for len(pending) == 0 {
			row, err := parser.Next()
			if err != nil {
				var perr *vcfio.ParseError
				if errors.As(err, &perr) {
					c.opts.Logger.Warnf("skipping malformed variant row: %v", err)
					continue
				}
				return nil, err
			}
			if row == nil {
				return nil, nil
			}
			pending = row
		}
		v := pending[0]
		pending = pending[1:]
		return v, nil
	}

	bat := batch.New(c.opts.Index, c.opts.WholeGene)
	batcherErr := bat.Run(
		nextVariant,
		func(b *batch.Batch) error {
			workQueue <- b
			return nil
		},
	)
	for i := 0; i < workers; i++ {
		workQueue <- nil
	}

	wg.Wait()
	rq.in <- nil // sentinel: tells the emitter no more results are coming
	rq.close()

	emitter := newEmitter(scratchDir, parser.SampleNames())
	emitErr := emitter.drain(rq.out)

	if batcherErr != nil {
		return fmt.Errorf("batching: %w", batcherErr)
	}
	workerErrMu.Lock()
	we := workerErr
	workerErrMu.Unlock()
	if we != nil {
		return fmt.Errorf("classify: %w", we)
	}
	if emitErr != nil {
		return fmt.Errorf("emit: %w", emitErr)
	}

	headerLines := vcfio.AugmentHeader(parser.HeaderLines(), headerOpts)
	for _, line := range headerLines {
		fmt.Fprintln(out, line)
	}
	for _, chrom := range emitter.chromsInOrder() {
		if err := sortemit.Chromosome(emitter.spillPaths[chrom], c.opts.ChunkLines, scratchDir, out); err != nil {
			return fmt.Errorf("sort chromosome %s: %w", chrom, err)
		}
	}
	return nil
}

func (c *Coordinator) classifyAndScore(b *batch.Batch) error {
	classify.Batch(b, c.opts.Family)
	for _, v := range b.AllVariants() {
		if err := c.lookupScores(v); err != nil {
			return err
		}
	}
	return nil
}

// lookupScores performs the §4.E lookups for one variant. A transient
// I/O error on a lookup is not fatal (spec.md §7): the annotation is
// simply omitted and the variant is still emitted.
func (c *Coordinator) lookupScores(v *model.Variant) error {
	chrom := v.NormalizedChrom()

	if c.opts.Scores.CADD != nil {
		if score, ok, err := c.opts.Scores.CADD.Lookup(chrom, v.Pos, v.Ref, v.Alt); err == nil && ok {
			v.Info["CADD"] = formatScore(score)
		} else if err != nil {
			c.opts.Logger.Warnf("CADD lookup failed for %s: %v", v.Key(), err)
		} else if c.opts.Scores.CADD1000G != nil {
			if score, ok, err := c.opts.Scores.CADD1000G.Lookup(chrom, v.Pos, v.Ref, v.Alt); err == nil && ok {
				v.Info["CADD"] = formatScore(score)
			} else if err != nil {
				c.opts.Logger.Warnf("CADD 1000G lookup failed for %s: %v", v.Key(), err)
			}
		}
	}
	if c.opts.Scores.ThousandG != nil {
		if freq, ok, err := c.opts.Scores.ThousandG.Lookup(chrom, v.Pos, v.Ref, v.Alt); err == nil && ok {
			v.Info["1000G_freq"] = formatScore(freq)
		} else if err != nil {
			c.opts.Logger.Warnf("1000G lookup failed for %s: %v", v.Key(), err)
		}
	}
	return nil
}

func formatScore(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

// emitter drains the result queue, appending each variant's rendered
// line to its chromosome's spill file (spec.md §4.F step 3).
type emitter struct {
	scratchDir  string
	sampleOrder []string
	files       map[string]*os.File
	spillPaths  map[string]string
	order       []string
}

func newEmitter(scratchDir string, sampleOrder []string) *emitter {
	return &emitter{
		scratchDir:  scratchDir,
		sampleOrder: sampleOrder,
		files:       make(map[string]*os.File),
		spillPaths:  make(map[string]string),
	}
}

func (e *emitter) drain(results <-chan *model.Variant) error {
	defer e.closeAll()
	for v := range results {
		if v == nil {
			return nil
		}
		f, err := e.fileFor(v.NormalizedChrom())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(f, vcfio.FormatRow(v, nil, e.sampleOrder)); err != nil {
			return fmt.Errorf("write spill line: %w", err)
		}
	}
	return nil
}

func (e *emitter) fileFor(chrom string) (*os.File, error) {
	if f, ok := e.files[chrom]; ok {
		return f, nil
	}
	path := sortemit.SpillPath(e.scratchDir, chrom)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create spill file for %s: %w", chrom, err)
	}
	e.files[chrom] = f
	e.spillPaths[chrom] = path
	e.order = append(e.order, chrom)
	return f, nil
}

// chromsInOrder returns the chromosomes seen, in genomic order (1-22,
// X, Y, MT, then anything else lexicographically) — never first-seen
// order, which depends on worker scheduling and would break the N=1
// vs N=8 determinism spec.md §8 requires.
func (e *emitter) chromsInOrder() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	sort.Slice(out, func(i, j int) bool { return chromLess(out[i], out[j]) })
	return out
}

func chromRank(chrom string) (rank int, numeric int, ok bool) {
	if n, err := strconv.Atoi(chrom); err == nil {
		return 0, n, true
	}
	switch chrom {
	case "X":
		return 1, 0, true
	case "Y":
		return 2, 0, true
	case "MT", "M":
		return 3, 0, true
	default:
		return 4, 0, false
	}
}

func chromLess(a, b string) bool {
	ra, na, _ := chromRank(a)
	rb, nb, _ := chromRank(b)
	if ra != rb {
		return ra < rb
	}
	if ra == 0 {
		return na < nb
	}
	if ra == 4 {
		return a < b
	}
	return false
}

func (e *emitter) closeAll() {
	for _, f := range e.files {
		f.Close()
	}
}
