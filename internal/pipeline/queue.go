package pipeline

import "github.com/clinical-genomics-lund/genmod/internal/model"

// resultQueue is the unbounded result queue spec.md §4.F/§5 calls for:
// classifier workers must never block handing off an annotated variant,
// even while the bounded work queue is applying backpressure to the
// Batcher. Backed by the standard goroutine-plus-slice "unbounded
// channel" idiom — capacity grows with outstanding results instead of
// blocking a sender.
type resultQueue struct {
	in  chan *model.Variant
	out chan *model.Variant
}

func newResultQueue() *resultQueue {
	q := &resultQueue{
		in:  make(chan *model.Variant),
		out: make(chan *model.Variant),
	}
	go q.pump()
	return q
}

func (q *resultQueue) pump() {
	var buf []*model.Variant
	in := q.in
	for in != nil || len(buf) > 0 {
		if len(buf) == 0 {
			v, ok := <-in
			if !ok {
				in = nil
				continue
			}
			buf = append(buf, v)
			continue
		}
		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			buf = append(buf, v)
		case q.out <- buf[0]:
			buf = buf[1:]
		}
	}
	close(q.out)
}

// close signals no more results will be sent. It does not wait: the
// pump closes out on its own once its buffer has drained. Call once.
func (q *resultQueue) close() {
	close(q.in)
}
