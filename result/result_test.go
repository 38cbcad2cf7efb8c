package result

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkResolvesOnce(t *testing.T) {
	s := NewSink()

	require.True(t, s.Resolve("connected"))
	assert.False(t, s.Resolve("again"))
	assert.False(t, s.Reject(CodeFailed, "late"))

	v, ok, err := s.Result()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "connected", v)
}

func TestSinkRejectWinsOverLaterResolve(t *testing.T) {
	s := NewSink()

	require.True(t, s.Reject(CodeConnectNetworkFailed, "timeout"))
	assert.False(t, s.Resolve(nil))

	_, err := s.Wait(context.Background())
	require.Error(t, err)
	assert.Equal(t, CodeConnectNetworkFailed, CodeOf(err))
	assert.Equal(t, "connectNetworkFailed: timeout", err.Error())
}

func TestSinkConcurrentCompletionDeliversExactlyOnce(t *testing.T) {
	s := NewSink()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			var won bool
			if i%2 == 0 {
				won = s.Resolve(i)
			} else {
				won = s.Reject(CodeFailed, "racing")
			}

			if won {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestSinkPendingResult(t *testing.T) {
	s := NewSink()

	_, ok, _ := s.Result()
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// a cancelled wait leaves the sink open
	assert.True(t, s.Resolve(nil))
}

func TestFailKeepsCode(t *testing.T) {
	s := NewSink()
	s.Fail(Errorf(CodeLocationOff, "Location service is turned off"))

	_, err := s.Wait(context.Background())
	assert.Equal(t, CodeLocationOff, CodeOf(err))

	s = NewSink()
	s.Fail(errors.New("boom"))

	_, err = s.Wait(context.Background())
	assert.Equal(t, CodeFailed, CodeOf(err))
	assert.Equal(t, "boom", AsError(err).Message)
}

func TestOf(t *testing.T) {
	v, err := Of(true, nil).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = Of(nil, errors.New("nope")).Wait(context.Background())
	assert.Equal(t, CodeFailed, CodeOf(err))
}
