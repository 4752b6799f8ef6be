package submission_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"valentine-server/internal/domain"
	"valentine-server/internal/submission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// keep-alive соединения http.DefaultTransport из тестов клиента
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

type resultSink struct {
	mu      sync.Mutex
	results []submission.Result
}

func (s *resultSink) add(r submission.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

func (s *resultSink) all() []submission.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]submission.Result(nil), s.results...)
}

func TestDispatcher(t *testing.T) {
	t.Run("Submits at most once", func(t *testing.T) {
		var calls atomic.Int32
		sink := &resultSink{}
		d := submission.NewDispatcher(context.Background(), submission.SubmitterFunc(func(ctx context.Context, answer bool) (*domain.Response, error) {
			calls.Add(1)
			return &domain.Response{ID: 1, Answer: answer, Timestamp: time.Now()}, nil
		}), sink.add)

		assert.True(t, d.Dispatch(true))
		assert.False(t, d.Dispatch(true))
		assert.False(t, d.Dispatch(false))
		d.Wait()

		assert.Equal(t, int32(1), calls.Load())
		results := sink.all()
		require.Len(t, results, 1)
		assert.True(t, results[0].OK())
		assert.Nil(t, results[0].Notice)
		assert.Equal(t, int64(1), results[0].Response.ID)
	})

	t.Run("Failure yields the notice", func(t *testing.T) {
		sink := &resultSink{}
		d := submission.NewDispatcher(context.Background(), submission.SubmitterFunc(func(ctx context.Context, answer bool) (*domain.Response, error) {
			return nil, &submission.TransportError{Err: errors.New("connection refused")}
		}), sink.add)

		d.Dispatch(true)
		d.Wait()

		results := sink.all()
		require.Len(t, results, 1)
		assert.False(t, results[0].OK())
		assert.ErrorIs(t, results[0].Err, submission.ErrSubmissionFailed)
		require.NotNil(t, results[0].Notice)
		assert.Equal(t, "Oh no...", results[0].Notice.Title)
		assert.Equal(t, "Something went wrong saving your answer. But I still heard it!", results[0].Notice.Body)
	})

	t.Run("Close cancels a hanging submission", func(t *testing.T) {
		sink := &resultSink{}
		d := submission.NewDispatcher(context.Background(), submission.SubmitterFunc(func(ctx context.Context, answer bool) (*domain.Response, error) {
			<-ctx.Done()
			return nil, &submission.TransportError{Err: ctx.Err()}
		}), sink.add, submission.WithSubmitTimeout(0))

		d.Dispatch(true)
		d.Close()

		results := sink.all()
		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0].Err, context.Canceled)
	})

	t.Run("Submission timeout applies", func(t *testing.T) {
		sink := &resultSink{}
		d := submission.NewDispatcher(context.Background(), submission.SubmitterFunc(func(ctx context.Context, answer bool) (*domain.Response, error) {
			<-ctx.Done()
			return nil, &submission.TransportError{Err: ctx.Err()}
		}), sink.add, submission.WithSubmitTimeout(20*time.Millisecond))

		d.Dispatch(false)
		d.Wait()

		results := sink.all()
		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
		assert.False(t, results[0].Answer)
		d.Close()
	})
}
