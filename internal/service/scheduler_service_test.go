package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("07:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 7 * * *", spec)

	spec, err = buildDailySpec(" 23:05 ")
	require.NoError(t, err)
	assert.Equal(t, "0 5 23 * * *", spec)

	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd", "1:2:3"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuildIntervalSpec(t *testing.T) {
	spec, err := buildIntervalSpec(5 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "@every 18000s", spec)

	spec, err = buildIntervalSpec(10 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "@every 1s", spec)

	_, err = buildIntervalSpec(0)
	assert.Error(t, err)
}

func TestSchedulerReschedule(t *testing.T) {
	s := NewSchedulerService(time.UTC)
	id, err := s.ScheduleInterval(time.Hour, func() {})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	next, ok := s.Next(id)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), next, 5*time.Second)

	newID, err := s.Reschedule(id, 2*time.Hour, func() {})
	require.NoError(t, err)
	_, ok = s.Next(id)
	assert.False(t, ok)
	next, ok = s.Next(newID)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), next, 5*time.Second)

	_, err = s.Reschedule(newID, 0, func() {})
	assert.Error(t, err)
}
