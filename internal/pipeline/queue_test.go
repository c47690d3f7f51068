package pipeline

import (
	"testing"

	"github.com/clinical-genomics-lund/genmod/internal/model"
)

func TestResultQueueFIFOAndSentinel(t *testing.T) {
	q := newResultQueue()

	want := []*model.Variant{
		{Chrom: "1", Pos: 1},
		{Chrom: "1", Pos: 2},
		{Chrom: "1", Pos: 3},
	}
	for _, v := range want {
		q.in <- v
	}
	q.in <- nil
	q.close()

	for i, v := range want {
		got := <-q.out
		if got != v {
			t.Fatalf("result %d: got %v, want %v", i, got, v)
		}
	}
	if sentinel := <-q.out; sentinel != nil {
		t.Fatalf("expected nil sentinel, got %v", sentinel)
	}
	if _, ok := <-q.out; ok {
		t.Fatal("expected out channel to be closed after sentinel")
	}
}
