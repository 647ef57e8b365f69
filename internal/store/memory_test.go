package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
)

func reading(aqi int, observedAt time.Time) airquality.Reading {
	return airquality.Reading{
		AQI:        aqi,
		Location:   "Delhi",
		ObservedAt: observedAt,
		Source:     airquality.SourceWAQI,
	}
}

func TestMemoryStoreLatestIsLastWritten(t *testing.T) {
	s := NewMemoryStore(10, 0)
	now := time.Now().UTC()

	// An older in-flight refresh completing late still wins: latest is
	// decided by completion (write) order, not by observation time.
	s.SaveReading("delhi", reading(200, now))
	s.SaveReading("delhi", reading(150, now.Add(-time.Hour)))

	got, err := s.GetLatest("delhi")
	require.NoError(t, err)
	assert.Equal(t, 150, got.AQI)
}

func TestMemoryStoreGetLatestMissing(t *testing.T) {
	s := NewMemoryStore(10, 0)

	_, err := s.GetLatest("delhi")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRetentionByCount(t *testing.T) {
	s := NewMemoryStore(3, 0)
	now := time.Now().UTC()

	for i := 1; i <= 5; i++ {
		s.SaveReading("delhi", reading(i*10, now.Add(time.Duration(i)*time.Minute)))
	}

	got, err := s.GetRange("delhi", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 30, got[0].AQI)
	assert.Equal(t, 50, got[2].AQI)
}

func TestMemoryStoreGetRangeBounds(t *testing.T) {
	s := NewMemoryStore(0, 0)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		s.SaveReading("delhi", reading(100+i, base.Add(time.Duration(i)*time.Hour)))
	}

	got, err := s.GetRange("delhi", base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 101, got[0].AQI)
	assert.Equal(t, 102, got[1].AQI)
}

func TestMemoryStoreGetRangeEmptyWindow(t *testing.T) {
	s := NewMemoryStore(0, 0)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	s.SaveReading("delhi", reading(100, base))

	_, err := s.GetRange("delhi", base.Add(time.Hour), base.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}
