package budget

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records every Save and can be primed to fail or return a record.
type fakeStore struct {
	rec     Record
	ok      bool
	loadErr error

	mu    sync.Mutex
	saves []Record
}

func (f *fakeStore) Load() (Record, bool, error) {
	return f.rec, f.ok, f.loadErr
}

func (f *fakeStore) Save(rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, rec)
	return nil
}

func (f *fakeStore) lastSave() (Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		return Record{}, false
	}
	return f.saves[len(f.saves)-1], true
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestLedgerQuotaMonotonicity(t *testing.T) {
	l := NewLedger(nil, nil, 1000, 436, nil)

	for i := 0; i < 5; i++ {
		l.RecordRequest(false)
	}

	assert.Equal(t, 995, l.RemainingRequests())
	assert.Equal(t, 436, l.RemainingManualRefreshes())
	assert.True(t, l.CanMakeRequest(false))
}

func TestLedgerDailyExhaustionBlocksEverything(t *testing.T) {
	l := NewLedger(nil, nil, 3, 2, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.TryAcquire(false))
	}

	err := l.TryAcquire(false)
	require.ErrorIs(t, err, ErrDailyLimit)
	assert.False(t, l.CanMakeRequest(false))
	// Manual refreshes are blocked too once the daily cap is gone,
	// regardless of the manual-specific count.
	assert.False(t, l.CanMakeRequest(true))
	require.ErrorIs(t, l.TryAcquire(true), ErrDailyLimit)
	assert.Equal(t, 0, l.RemainingRequests())
}

func TestLedgerManualSubQuota(t *testing.T) {
	l := NewLedger(nil, nil, 100, 2, nil)

	require.NoError(t, l.TryAcquire(true))
	require.NoError(t, l.TryAcquire(true))

	require.ErrorIs(t, l.TryAcquire(true), ErrManualLimit)
	// Automatic refreshes are unaffected by the manual sub-quota.
	require.NoError(t, l.TryAcquire(false))

	assert.Equal(t, 0, l.RemainingManualRefreshes())
	assert.Equal(t, 97, l.RemainingRequests())
}

func TestLedgerManualCountsTowardTotal(t *testing.T) {
	l := NewLedger(nil, nil, 10, 5, nil)

	require.NoError(t, l.TryAcquire(true))
	require.NoError(t, l.TryAcquire(false))

	assert.Equal(t, 8, l.RemainingRequests())
	assert.Equal(t, 4, l.RemainingManualRefreshes())
}

func TestLedgerDailyReset(t *testing.T) {
	now := time.Date(2026, 8, 30, 23, 50, 0, 0, time.Local)
	clock := now
	l := NewLedger(nil, nil, 10, 5, func() time.Time { return clock })

	for i := 0; i < 9; i++ {
		require.NoError(t, l.TryAcquire(i%2 == 0))
	}
	require.Equal(t, 1, l.RemainingRequests())

	// Cross midnight: the very next call to any ledger method must zero
	// both counters before evaluating.
	clock = now.Add(20 * time.Minute)
	assert.Equal(t, 10, l.RemainingRequests())
	assert.Equal(t, 5, l.RemainingManualRefreshes())
	assert.True(t, l.CanMakeRequest(true))
}

func TestLedgerResetRunsBeforeCapacityCheck(t *testing.T) {
	yesterday := time.Now().AddDate(0, 0, -1)
	st := &fakeStore{
		rec: Record{TotalRequests: 1000, ManualRefreshRequests: 436, LastResetDate: yesterday.Format(dateLayout)},
		ok:  true,
	}
	l := NewLedger(st, nil, 1000, 436, nil)

	// Stale exhausted counters from yesterday must not block today.
	require.NoError(t, l.TryAcquire(true))
}

func TestLedgerPersistsAfterEveryMutation(t *testing.T) {
	st := &fakeStore{}
	l := NewLedger(st, nil, 10, 5, fixedClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)))

	require.NoError(t, l.TryAcquire(true))

	rec, ok := st.lastSave()
	require.True(t, ok)
	assert.Equal(t, 1, rec.TotalRequests)
	assert.Equal(t, 1, rec.ManualRefreshRequests)
	assert.Equal(t, "2026-08-30", rec.LastResetDate)
}

func TestLedgerCorruptStoreDegradesToZeroedCounters(t *testing.T) {
	st := &fakeStore{loadErr: errors.New("disk sadness")}
	l := NewLedger(st, nil, 10, 5, nil)

	assert.Equal(t, 10, l.RemainingRequests())
	require.NoError(t, l.TryAcquire(false))
}

func TestLedgerTryAcquireIsAtomicUnderConcurrency(t *testing.T) {
	l := NewLedger(nil, nil, 50, 50, nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire(false) == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Exactly the daily limit may pass; no oversubscription.
	assert.Equal(t, 50, succeeded)
	assert.Equal(t, 0, l.RemainingRequests())
}

func TestLedgerUsageSnapshot(t *testing.T) {
	clock := fixedClock(time.Date(2026, 8, 30, 10, 33, 0, 0, time.Local))
	l := NewLedger(nil, nil, 1000, 436, clock)

	require.NoError(t, l.TryAcquire(true))
	u := l.Usage()

	assert.Equal(t, 999, u.RemainingRequests)
	assert.Equal(t, 435, u.RemainingManualRefreshes)
	assert.Equal(t, "13h 27m", u.TimeUntilReset)
	assert.True(t, u.CanManualRefresh)
}

func TestLedgerUsageCanManualRefreshFalseWhenManualSpent(t *testing.T) {
	l := NewLedger(nil, nil, 10, 1, nil)
	require.NoError(t, l.TryAcquire(true))

	u := l.Usage()
	assert.False(t, u.CanManualRefresh)
	assert.Positive(t, u.RemainingRequests)
}

func TestTimeUntilReset(t *testing.T) {
	clock := fixedClock(time.Date(2026, 8, 30, 23, 0, 0, 0, time.Local))
	l := NewLedger(nil, nil, 10, 5, clock)

	assert.Equal(t, time.Hour, l.TimeUntilReset())
}
