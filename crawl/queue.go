package crawl

import (
	"container/heap"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/bggcrawl"
	"github.com/fwojciec/bggcrawl/bloom"
)

// Queue is an in-memory request queue ordered by priority with Bloom filter
// deduplication of request URLs. Requests of equal priority pop in the
// order they were pushed. It is safe for concurrent use by multiple
// goroutines.
type Queue struct {
	mu    sync.Mutex
	seen  *bloom.Filter
	queue *requestHeap
	seq   uint64
}

// NewQueue creates a new Queue sized for n expected requests
// with the given false positive rate for deduplication.
func NewQueue(n uint, fpRate float64) *Queue {
	h := &requestHeap{}
	heap.Init(h)
	return &Queue{
		seen:  bloom.NewFilter(n, fpRate),
		queue: h,
	}
}

// Push adds a request to the queue.
// Returns false if an identical request was already pushed, unless the
// request sets DontFilter.
func (q *Queue) Push(req *bggcrawl.Request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.seen.TestAndAdd(Fingerprint(req)) && !req.DontFilter {
		return false
	}

	q.seq++
	heap.Push(q.queue, queuedRequest{req: req, seq: q.seq})
	return true
}

// Pop returns the next request by priority.
// The bool result is false if the queue is empty.
func (q *Queue) Pop() (*bggcrawl.Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.queue.Len() == 0 {
		return nil, false
	}
	item, _ := heap.Pop(q.queue).(queuedRequest)
	return item.req, true
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.queue.Len()
}

// Fingerprint returns the deduplication key of a request.
func Fingerprint(req *bggcrawl.Request) string {
	return strconv.FormatUint(xxhash.Sum64String(req.URL), 16)
}

type queuedRequest struct {
	req *bggcrawl.Request
	seq uint64
}

// requestHeap implements heap.Interface for the request queue.
// Higher priority requests are popped first.
type requestHeap []queuedRequest

func (h requestHeap) Len() int { return len(h) }

// Less returns true if i has higher priority than j (max-heap), breaking
// ties by insertion order.
func (h requestHeap) Less(i, j int) bool {
	if h[i].req.Priority != h[j].req.Priority {
		return h[i].req.Priority > h[j].req.Priority
	}
	return h[i].seq < h[j].seq
}

func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *requestHeap) Push(x any) {
	item, _ := x.(queuedRequest)
	*h = append(*h, item)
}

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
