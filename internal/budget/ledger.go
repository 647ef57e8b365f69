// Package budget owns the daily request quota for the dashboard's upstream
// calls. Every user-visible refresh, automatic or manual, spends one unit of
// budget; manual refreshes additionally draw from a stricter sub-quota.
package budget

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default limits for the dashboard's request budget.
const (
	DefaultDailyLimit  = 1000
	DefaultManualLimit = 436
)

const dateLayout = "2006-01-02"

var (
	// ErrDailyLimit means no request of any kind is allowed until local midnight.
	ErrDailyLimit = errors.New("daily request limit reached")
	// ErrManualLimit means the manual-refresh sub-quota is spent; automatic
	// refreshes may still proceed.
	ErrManualLimit = errors.New("manual refresh limit reached")
)

// Record is the persisted ledger state. LastResetDate is a local calendar
// day, not an instant: the counters reset when the wall-clock date changes.
type Record struct {
	TotalRequests         int    `json:"totalRequests"`
	ManualRefreshRequests int    `json:"manualRefreshRequests"`
	LastResetDate         string `json:"lastResetDate"`
}

// Store persists the single ledger record. Load reports ok=false when no
// usable record exists; a corrupt record must read as absent, never as an
// error the ledger cannot recover from.
type Store interface {
	Load() (rec Record, ok bool, err error)
	Save(Record) error
}

// Usage is the read-only quota snapshot surfaced to the UI.
type Usage struct {
	RemainingRequests        int    `json:"remainingRequests"`
	RemainingManualRefreshes int    `json:"remainingManualRefreshes"`
	TimeUntilReset           string `json:"timeUntilReset"`
	CanManualRefresh         bool   `json:"canManualRefresh"`
}

// Ledger owns the daily request counters. All methods run behind one mutex,
// and the check-then-increment path is TryAcquire, which is atomic under
// that lock — two concurrent refreshes can never both observe capacity and
// both proceed past the limit.
type Ledger struct {
	mu     sync.Mutex
	store  Store
	logger *zap.SugaredLogger
	now    func() time.Time

	dailyLimit  int
	manualLimit int
	rec         Record
}

// NewLedger creates a Ledger backed by store. A nil store keeps the counters
// in memory only. nowFn overrides the clock for tests; nil means time.Now.
// Non-positive limits fall back to the defaults. A store that fails to load
// or holds a corrupt record degrades to zeroed counters.
func NewLedger(store Store, logger *zap.SugaredLogger, dailyLimit, manualLimit int, nowFn func() time.Time) *Ledger {
	if nowFn == nil {
		nowFn = time.Now
	}
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	if manualLimit <= 0 {
		manualLimit = DefaultManualLimit
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	l := &Ledger{
		store:       store,
		logger:      logger,
		now:         nowFn,
		dailyLimit:  dailyLimit,
		manualLimit: manualLimit,
	}

	l.rec = Record{LastResetDate: l.today()}
	if store != nil {
		rec, ok, err := store.Load()
		switch {
		case err != nil:
			logger.Warnw("budget: stored ledger unreadable, starting fresh", "error", err)
		case ok:
			l.rec = rec
		}
	}
	return l
}

// TryAcquire atomically runs the daily-reset check, verifies capacity, and
// records one request. This is the critical section the orchestrator uses
// for every logical refresh.
func (l *Ledger) TryAcquire(isManual bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNewDayLocked()
	if err := l.capacityLocked(isManual); err != nil {
		return err
	}
	l.recordLocked(isManual)
	return nil
}

// CanMakeRequest reports whether a request of the given kind would be
// allowed right now, without spending budget.
func (l *Ledger) CanMakeRequest(isManual bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNewDayLocked()
	return l.capacityLocked(isManual) == nil
}

// RecordRequest spends one unit of budget: totalRequests always increments,
// manualRefreshRequests only when isManual.
func (l *Ledger) RecordRequest(isManual bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNewDayLocked()
	l.recordLocked(isManual)
}

// RemainingRequests returns how many requests of any kind are left today.
func (l *Ledger) RemainingRequests() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNewDayLocked()
	return clampZero(l.dailyLimit - l.rec.TotalRequests)
}

// RemainingManualRefreshes returns how much of the manual sub-quota is left.
func (l *Ledger) RemainingManualRefreshes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNewDayLocked()
	return clampZero(l.manualLimit - l.rec.ManualRefreshRequests)
}

// TimeUntilReset returns the duration until the next local-midnight boundary.
func (l *Ledger) TimeUntilReset() time.Duration {
	return l.timeUntilReset()
}

// Usage builds the UI-facing snapshot.
func (l *Ledger) Usage() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNewDayLocked()

	remaining := clampZero(l.dailyLimit - l.rec.TotalRequests)
	remainingManual := clampZero(l.manualLimit - l.rec.ManualRefreshRequests)
	return Usage{
		RemainingRequests:        remaining,
		RemainingManualRefreshes: remainingManual,
		TimeUntilReset:           formatHoursMinutes(l.timeUntilReset()),
		CanManualRefresh:         remaining > 0 && remainingManual > 0,
	}
}

// timeUntilReset is safe to call with or without the mutex; the clock read
// does not touch counter state.
func (l *Ledger) timeUntilReset() time.Duration {
	now := l.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return midnight.Sub(now)
}

// resetIfNewDayLocked zeroes both counters when the stored calendar day no
// longer matches the current local day. It runs at the start of every method
// that touches counters, because the process can stay alive across midnight.
func (l *Ledger) resetIfNewDayLocked() {
	today := l.today()
	if l.rec.LastResetDate != today {
		l.rec = Record{LastResetDate: today}
		l.persistLocked()
	}
}

func (l *Ledger) capacityLocked(isManual bool) error {
	if l.rec.TotalRequests >= l.dailyLimit {
		return ErrDailyLimit
	}
	if isManual && l.rec.ManualRefreshRequests >= l.manualLimit {
		return ErrManualLimit
	}
	return nil
}

func (l *Ledger) recordLocked(isManual bool) {
	l.rec.TotalRequests++
	if isManual {
		l.rec.ManualRefreshRequests++
	}
	l.persistLocked()
}

func (l *Ledger) persistLocked() {
	if l.store == nil {
		return
	}
	if err := l.store.Save(l.rec); err != nil {
		l.logger.Errorw("budget: persist ledger failed", "error", err)
	}
}

func (l *Ledger) today() string {
	return l.now().Format(dateLayout)
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// formatHoursMinutes renders a duration the way the dashboard shows it,
// e.g. "13h 27m".
func formatHoursMinutes(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", h, m)
}
