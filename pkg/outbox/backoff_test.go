package outbox

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Parallel()

	maxBackoff := 60 * time.Second
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{attempts: 0, want: 0},
		{attempts: 1, want: time.Second},
		{attempts: 2, want: 2 * time.Second},
		{attempts: 3, want: 4 * time.Second},
		{attempts: 7, want: 60 * time.Second},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, backoff(tc.attempts, maxBackoff), "attempts=%d", tc.attempts)
	}
}

func TestJitterDeterministic(t *testing.T) {
	t.Parallel()

	maxJitter := 200 * time.Millisecond
	got := jitter(rand.New(rand.NewSource(1)), maxJitter)
	assert.GreaterOrEqual(t, got, time.Duration(0))
	assert.LessOrEqual(t, got, maxJitter)
	assert.Equal(t, got, jitter(rand.New(rand.NewSource(1)), maxJitter))
	assert.Zero(t, jitter(nil, maxJitter))
}
