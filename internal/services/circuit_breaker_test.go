package services

import (
	"testing"
	"time"

	"loan-compare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transition struct {
	from, to models.CircuitBreakerState
}

func newTestBreaker(maxFailures int, reset time.Duration) (CircuitBreakerInterface, *[]transition) {
	var seen []transition
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:            "documents",
		MaxFailures:     maxFailures,
		ResetTimeout:    reset,
		HalfOpenMaxSucc: 2,
		OnStateChange: func(name string, from, to models.CircuitBreakerState) {
			seen = append(seen, transition{from, to})
		},
	})
	return cb, &seen
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb, seen := newTestBreaker(3, time.Hour)

	cb.RecordFailure()
	cb.RecordFailure()
	assert.False(t, cb.IsOpen())
	assert.Equal(t, 2, cb.GetFailureCount())

	cb.RecordFailure()
	assert.True(t, cb.IsOpen())
	assert.Equal(t, StateOpen, cb.GetState())
	require.Len(t, *seen, 1)
	assert.Equal(t, transition{StateClosed, StateOpen}, (*seen)[0])
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, seen := newTestBreaker(3, time.Hour)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	assert.False(t, cb.IsOpen())
	assert.Equal(t, 1, cb.GetFailureCount())
	assert.Empty(t, *seen)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, seen := newTestBreaker(1, time.Millisecond)

	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)

	assert.False(t, cb.IsOpen())
	assert.Equal(t, StateHalfOpen, cb.GetState())

	cb.RecordSuccess()
	assert.Equal(t, StateHalfOpen, cb.GetState())
	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.GetState())

	assert.Equal(t, []transition{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}, *seen)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Millisecond)

	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	require.False(t, cb.IsOpen())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, seen := newTestBreaker(1, time.Hour)

	cb.RecordFailure()
	require.True(t, cb.IsOpen())

	cb.Reset()
	assert.False(t, cb.IsOpen())
	assert.Equal(t, 0, cb.GetFailureCount())
	assert.Equal(t, transition{StateOpen, StateClosed}, (*seen)[len(*seen)-1])
}

func TestCircuitBreaker_DefaultThresholds(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "x", ResetTimeout: time.Hour})
	for i := 0; i < 4; i++ {
		cb.RecordFailure()
	}
	assert.False(t, cb.IsOpen())
	cb.RecordFailure()
	assert.True(t, cb.IsOpen())
}

func TestCircuitBreakerStateNames(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half_open", StateHalfOpen.String())
}
