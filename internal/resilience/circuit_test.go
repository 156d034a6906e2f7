package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})
	boom := eris.New("boom")

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func(ctx context.Context) error { return boom })
		require.Error(t, err)
	}

	assert.Equal(t, CircuitOpen, cb.State())

	err := cb.Execute(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	boom := eris.New("boom")

	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return boom })
	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return nil })
	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return boom })

	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})

	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return eris.New("boom") })
	assert.Equal(t, CircuitOpen, cb.State())

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	err := cb.Execute(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})

	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return eris.New("boom") })
	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return eris.New("still broken") })
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_ShouldTripFilter(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		ShouldTrip:       IsTransient,
	})

	// Permanent errors pass through without tripping the circuit.
	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return eris.New("malformed output") })
	assert.Equal(t, CircuitClosed, cb.State())

	_ = cb.Execute(context.Background(), func(ctx context.Context) error {
		return NewTransientError(eris.New("down"), 503)
	})
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return eris.New("boom") })
	assert.Equal(t, []string{"closed->open"}, transitions)
}
