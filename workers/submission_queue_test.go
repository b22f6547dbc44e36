package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"minigame-arcade/models"

	"github.com/stretchr/testify/require"
)

// slowSubmitter records the order reports arrive in and fails reports whose
// Points are listed in fail.
type slowSubmitter struct {
	mu       sync.Mutex
	seen     []int64
	inFlight int
	maxSeen  int
	delay    time.Duration
	fail     map[int64]bool
}

func (s *slowSubmitter) Submit(ctx context.Context, gameID string, report models.PlayReport) (*models.LedgerEntry, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.mu.Unlock()

	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	s.seen = append(s.seen, report.Points)
	if s.fail[report.Points] {
		return nil, errors.New("connection reset")
	}
	return &models.LedgerEntry{GameID: gameID, Points: report.Points, AccountPoints: report.Points}, nil
}

func TestSubmissionQueueDeliversInOrderOneAtATime(t *testing.T) {
	sub := &slowSubmitter{delay: 5 * time.Millisecond, fail: map[int64]bool{3: true}}
	q := NewSubmissionQueue(sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Start(ctx)

	var receipts []*Receipt
	for i := int64(1); i <= 5; i++ {
		receipts = append(receipts, q.Enqueue("g1", models.PlayReport{Points: i}))
	}

	for i, r := range receipts {
		res, err := r.Wait(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(i+1), res.Seq)
		if i == 2 {
			require.False(t, res.Confirmed())
			require.Error(t, res.Err)
			continue
		}
		require.True(t, res.Confirmed())
		require.Equal(t, int64(i+1), res.Entry.Points)
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	require.Equal(t, []int64{1, 2, 3, 4, 5}, sub.seen)
	require.Equal(t, 1, sub.maxSeen)
}

func TestSubmissionQueueEnqueueDoesNotBlock(t *testing.T) {
	sub := &slowSubmitter{delay: time.Second}
	q := NewSubmissionQueue(sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Start(ctx)

	start := time.Now()
	r := q.Enqueue("g1", models.PlayReport{Points: 1})
	require.Less(t, time.Since(start), 100*time.Millisecond)

	_, done := r.Result()
	require.False(t, done)
}

func TestSubmissionQueueShutdownResolvesPending(t *testing.T) {
	q := NewSubmissionQueue(&slowSubmitter{})
	r1 := q.Enqueue("g1", models.PlayReport{Points: 1})
	r2 := q.Enqueue("g1", models.PlayReport{Points: 2})

	var results []SubmissionResult
	var mu sync.Mutex
	q.OnResult = func(res SubmissionResult) {
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Start(ctx)

	for _, r := range []*Receipt{r1, r2} {
		res, ok := r.Result()
		require.True(t, ok)
		require.False(t, res.Confirmed())
		require.ErrorIs(t, res.Err, ErrQueueClosed)
	}
	require.Len(t, results, 2)

	late, ok := q.Enqueue("g1", models.PlayReport{Points: 3}).Result()
	require.True(t, ok)
	require.ErrorIs(t, late.Err, ErrQueueClosed)
}

func TestReceiptWaitHonoursContext(t *testing.T) {
	r := newReceipt()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := r.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubmissionQueueSecondStartReturns(t *testing.T) {
	sub := &slowSubmitter{delay: 5 * time.Millisecond}
	q := NewSubmissionQueue(sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Start(ctx)

	// Wait for the first worker to claim the queue.
	first := q.Enqueue("g1", models.PlayReport{Points: 1})
	_, err := first.Wait(ctx)
	require.NoError(t, err)

	second := make(chan struct{})
	go func() {
		q.Start(ctx)
		close(second)
	}()
	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("second Start kept running")
	}

	var receipts []*Receipt
	for i := int64(2); i <= 6; i++ {
		receipts = append(receipts, q.Enqueue("g1", models.PlayReport{Points: i}))
	}
	for _, r := range receipts {
		_, err := r.Wait(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6}, sub.seen)
	require.Equal(t, 1, sub.maxSeen)
}
