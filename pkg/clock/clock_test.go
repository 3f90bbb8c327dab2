package clock_test

import (
	"testing"
	"time"

	"github.com/recvault/recvault/pkg/clock"
	"github.com/stretchr/testify/assert"
)

func TestFake_AdvanceAndSet(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fake := clock.NewFake(start)

	assert.Equal(t, start, fake.Now())

	fake.Advance(5 * time.Second)
	assert.Equal(t, start.Add(5*time.Second), fake.Now())

	later := start.Add(time.Hour)
	fake.Set(later)
	assert.Equal(t, later, fake.Now())
}

func TestSystem_NowIsCurrent(t *testing.T) {
	before := time.Now()
	now := clock.New().Now()
	after := time.Now()

	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}
