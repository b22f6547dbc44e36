package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"minigame-arcade/models"
)

var ErrQueueClosed = errors.New("submission queue closed")

// Submitter delivers one play report to the ledger.
type Submitter interface {
	Submit(ctx context.Context, gameID string, report models.PlayReport) (*models.LedgerEntry, error)
}

// SubmissionResult is the fate of one queued report. A result with Err set is
// unconfirmed: the ledger may or may not have applied it.
type SubmissionResult struct {
	Seq    uint64
	GameID string
	Report models.PlayReport
	Entry  *models.LedgerEntry
	Err    error
}

func (r SubmissionResult) Confirmed() bool {
	return r.Err == nil && r.Entry != nil
}

// Receipt resolves once its report has been sent (or abandoned).
type Receipt struct {
	done   chan struct{}
	result SubmissionResult
}

func newReceipt() *Receipt {
	return &Receipt{done: make(chan struct{})}
}

func (r *Receipt) resolve(res SubmissionResult) {
	r.result = res
	close(r.done)
}

func (r *Receipt) Done() <-chan struct{} { return r.done }

// Result returns the outcome without blocking; ok is false while in flight.
func (r *Receipt) Result() (SubmissionResult, bool) {
	select {
	case <-r.done:
		return r.result, true
	default:
		return SubmissionResult{}, false
	}
}

// Wait blocks until the report is resolved or ctx ends.
func (r *Receipt) Wait(ctx context.Context) (SubmissionResult, error) {
	select {
	case <-r.done:
		return r.result, nil
	case <-ctx.Done():
		return SubmissionResult{}, ctx.Err()
	}
}

type submission struct {
	seq     uint64
	gameID  string
	report  models.PlayReport
	receipt *Receipt
}

// SubmissionQueue sends play reports one at a time, in the order they were
// enqueued. Enqueue never blocks on the network.
type SubmissionQueue struct {
	Submitter Submitter
	Timeout   time.Duration
	OnResult  func(SubmissionResult)

	mu      sync.Mutex
	pending []submission
	seq     uint64
	closed  bool
	started bool
	notify  chan struct{}
}

func NewSubmissionQueue(s Submitter) *SubmissionQueue {
	return &SubmissionQueue{
		Submitter: s,
		Timeout:   15 * time.Second,
		notify:    make(chan struct{}, 1),
	}
}

// Enqueue schedules report for delivery and returns its receipt.
func (q *SubmissionQueue) Enqueue(gameID string, report models.PlayReport) *Receipt {
	receipt := newReceipt()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		receipt.resolve(SubmissionResult{GameID: gameID, Report: report, Err: ErrQueueClosed})
		return receipt
	}
	q.seq++
	q.pending = append(q.pending, submission{seq: q.seq, gameID: gameID, report: report, receipt: receipt})
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return receipt
}

// Pending reports how many reports are waiting, the in-flight one excluded.
func (q *SubmissionQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Start runs the single delivery worker until ctx is cancelled. Reports still
// queued at that point resolve as unconfirmed.
func (q *SubmissionQueue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		log.Println("⚠️  [SUBMIT] Submission queue already running, ignoring second Start")
		return
	}
	q.started = true
	q.mu.Unlock()

	log.Println("Starting submission queue...")
	for {
		select {
		case <-ctx.Done():
			q.shutdown(ctx.Err())
			log.Println("Submission queue stopped.")
			return
		default:
		}

		item, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
			case <-q.notify:
			}
			continue
		}
		q.deliver(ctx, item)
	}
}

func (q *SubmissionQueue) pop() (submission, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return submission{}, false
	}
	item := q.pending[0]
	q.pending = q.pending[1:]
	return item, true
}

func (q *SubmissionQueue) deliver(ctx context.Context, item submission) {
	sctx := ctx
	if q.Timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, q.Timeout)
		defer cancel()
	}

	entry, err := q.Submitter.Submit(sctx, item.gameID, item.report)
	res := SubmissionResult{
		Seq:    item.seq,
		GameID: item.gameID,
		Report: item.report,
		Entry:  entry,
		Err:    err,
	}
	if err != nil {
		log.Printf("⚠️  [SUBMIT] #%d game=%s unconfirmed: %v", item.seq, item.gameID, err)
	} else if entry != nil {
		log.Printf("✅ [SUBMIT] #%d game=%s points=%d total=%d", item.seq, item.gameID, entry.Points, entry.AccountPoints)
	}
	q.finish(item, res)
}

func (q *SubmissionQueue) shutdown(cause error) {
	q.mu.Lock()
	q.closed = true
	left := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, item := range left {
		q.finish(item, SubmissionResult{
			Seq:    item.seq,
			GameID: item.gameID,
			Report: item.report,
			Err:    fmt.Errorf("%w: %v", ErrQueueClosed, cause),
		})
	}
}

func (q *SubmissionQueue) finish(item submission, res SubmissionResult) {
	item.receipt.resolve(res)
	if q.OnResult != nil {
		q.OnResult(res)
	}
}
