package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(max int) (*CircuitBreaker, *clock) {
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(max, 10*time.Second)
	cb.now = clk.now
	return cb, clk
}

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	cb, _ := newTestBreaker(2)
	ctx := context.Background()

	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	cb, _ := newTestBreaker(2)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	require.NoError(t, cb.Execute(ctx, succeed))
	_ = cb.Execute(ctx, fail)

	assert.Equal(t, StateClosed, cb.GetState())
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	cb, clk := newTestBreaker(1)
	ctx := context.Background()

	var transitions []string
	cb.OnStateChange(func(from, to State) { transitions = append(transitions, from.String()+">"+to.String()) })

	_ = cb.Execute(ctx, fail)
	clk.advance(11 * time.Second)
	require.NoError(t, cb.Execute(ctx, succeed))

	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, []string{"closed>open", "open>half_open", "half_open>closed"}, transitions)
}

func TestBreakerFailedTrialReopens(t *testing.T) {
	cb, clk := newTestBreaker(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, fail)
	}
	clk.advance(11 * time.Second)
	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)

	assert.Equal(t, StateOpen, cb.GetState())
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)
}

func TestBreakerSingleTrialWhileHalfOpen(t *testing.T) {
	cb, clk := newTestBreaker(1)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	clk.advance(11 * time.Second)

	err := cb.Execute(ctx, func() error {
		return cb.Execute(ctx, succeed)
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerCancelledContext(t *testing.T) {
	cb, _ := newTestBreaker(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, cb.Execute(ctx, succeed), context.Canceled)
	assert.Equal(t, StateClosed, cb.GetState())
}
