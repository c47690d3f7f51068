// Package indexbuild implements the Interval Index Builder (spec.md
// §4.A) and the runtime Interval Index it produces (spec.md §4.B): a
// per-chromosome, immutable-after-load interval structure mapping
// genomic coordinates to gene and exon features.
package indexbuild

import (
	"sort"

	"github.com/clinical-genomics-lund/genmod/internal/model"
)

// tree is a sorted-slice interval tree with a prefix-max prune,
// grounded on internal/cache/intervaltree.go, generalized from
// *Transcript to model.Feature and from 1-based-only Contains to both
// point and range overlap queries (spec.md §4.B).
//
// Internally intervals are half-open [start, end) per spec.md §3;
// features arrive 1-based inclusive and are converted on insert.
//
// The query methods scan backward from the first interval whose start
// is past the query point/range. prefixMax[i] = max(end) over
// intervals[0:i+1] is non-decreasing in i, so once the backward scan
// reaches an index i with prefixMax[i] <= the query bound, every
// interval at or before i also has end <= that bound and the scan can
// stop. A suffix max (max(end) over intervals[i:]) does not support
// this: it says nothing about intervals before i, so pruning on it can
// skip over an earlier, wide interval that still overlaps.
type tree struct {
	intervals []entry
	prefixMax []int64 // prefixMax[i] = max(end) over intervals[0:i+1]
}

type entry struct {
	start, end int64 // half-open
	feature    model.Feature
}

func buildTree(features []model.Feature) *tree {
	if len(features) == 0 {
		return &tree{}
	}

	intervals := make([]entry, len(features))
	for i, f := range features {
		intervals[i] = entry{start: f.Start - 1, end: f.End, feature: f} // 1-based inclusive -> half-open
	}
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	prefixMax := make([]int64, len(intervals))
	prefixMax[0] = intervals[0].end
	for i := 1; i < len(intervals); i++ {
		prefixMax[i] = intervals[i].end
		if prefixMax[i-1] > prefixMax[i] {
			prefixMax[i] = prefixMax[i-1]
		}
	}

	return &tree{intervals: intervals, prefixMax: prefixMax}
}

// pointOverlaps returns feature ids whose half-open interval contains
// the 1-based point pos.
func (t *tree) pointOverlaps(pos int64) []string {
	if len(t.intervals) == 0 {
		return nil
	}
	p := pos - 1 // half-open coordinate of the point

	hi := sort.Search(len(t.intervals), func(i int) bool {
		return t.intervals[i].start > p
	})

	var result []string
	for i := hi - 1; i >= 0; i-- {
		if t.intervals[i].end > p {
			result = append(result, t.intervals[i].feature.FeatureID)
		}
		if t.prefixMax[i] <= p {
			break
		}
	}
	return result
}

// rangeOverlaps returns feature ids overlapping the 1-based inclusive
// range [start, end].
func (t *tree) rangeOverlaps(start, end int64) []string {
	if len(t.intervals) == 0 {
		return nil
	}
	s, e := start-1, end // half-open query range

	hi := sort.Search(len(t.intervals), func(i int) bool {
		return t.intervals[i].start >= e
	})

	var result []string
	for i := hi - 1; i >= 0; i-- {
		if t.intervals[i].end > s {
			result = append(result, t.intervals[i].feature.FeatureID)
		}
		if t.prefixMax[i] <= s {
			break
		}
	}
	return result
}

func (t *tree) len() int { return len(t.intervals) }
