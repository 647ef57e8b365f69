package airquality

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-aggregation/internal/budget"
)

// Service is the orchestration core the dashboard talks to. It gates every
// refresh on the request budget, fans out to the upstream fetchers,
// reconciles station readings, and keeps the latest snapshot per city.
type Service struct {
	ledger   *budget.Ledger
	store    Store
	resolver *Resolver
	logger   *zap.SugaredLogger

	primaryCity string
	cityChain   []CityProvider    // tried in order for a city refresh
	stationSrcs []StationProvider // fanned out for the station catalog
	catalog     []Station

	fetchTimeout time.Duration

	mu         sync.Mutex
	lastReport StationReport
	haveReport bool
}

// NewService creates the orchestrator. cityChain is tried in order until one
// provider succeeds; stationSrcs are all queried for every catalog station.
// fetchTimeout bounds each refresh cycle; zero means 10s.
func NewService(
	ledger *budget.Ledger,
	store Store,
	resolver *Resolver,
	logger *zap.SugaredLogger,
	primaryCity string,
	cityChain []CityProvider,
	stationSrcs []StationProvider,
	fetchTimeout time.Duration,
) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &Service{
		ledger:       ledger,
		store:        store,
		resolver:     resolver,
		logger:       logger,
		primaryCity:  primaryCity,
		cityChain:    cityChain,
		stationSrcs:  stationSrcs,
		catalog:      StationCatalog(),
		fetchTimeout: fetchTimeout,
	}
}

// RequestRefresh performs one logical city refresh. The budget is acquired
// atomically up front and is not refunded on failure: a refresh that ends in
// the synthetic fallback still spent its request. For the primary city the
// caller always gets a reading; for any other city upstream failures
// propagate as typed errors.
func (s *Service) RequestRefresh(ctx context.Context, target Target, isManual bool) (Reading, error) {
	if err := s.ledger.TryAcquire(isManual); err != nil {
		return Reading{}, err
	}

	cycle := uuid.NewString()[:8]
	s.logger.Infow("refresh: start",
		"cycle", cycle, "city", target.City, "manual", isManual)

	if target.Coordinates == nil && s.resolver != nil {
		if coords, err := s.resolver.Resolve(target.City); err == nil {
			target.Coordinates = &coords
		} else {
			s.logger.Debugw("refresh: coordinate resolution failed",
				"cycle", cycle, "city", target.City, "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	var lastErr error
	for _, p := range s.cityChain {
		r, err := p.Fetch(ctx, target)
		if err != nil {
			s.logger.Warnw("refresh: source failed",
				"cycle", cycle, "source", p.Name(), "error", err)
			lastErr = err
			continue
		}
		s.store.SaveReading(target.Key(), r)
		s.logger.Infow("refresh: done",
			"cycle", cycle, "source", r.Source, "aqi", r.AQI)
		return r, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no city sources configured", ErrNotConfigured)
	}

	if s.isPrimary(target.City) {
		// The default city must always render; serve the documented
		// synthetic reading instead of an error state.
		r := SyntheticReading(time.Now())
		s.store.SaveReading(target.Key(), r)
		s.logger.Warnw("refresh: all sources failed, serving synthetic",
			"cycle", cycle, "city", target.City)
		return r, nil
	}
	return Reading{}, lastErr
}

// RefreshStations performs one logical station-catalog refresh: a single
// unit of budget covers the whole fan-out, because the budget models
// user-visible refresh actions, not underlying HTTP calls.
func (s *Service) RefreshStations(ctx context.Context, isManual bool) (StationReport, error) {
	if err := s.ledger.TryAcquire(isManual); err != nil {
		return StationReport{}, err
	}

	cycle := uuid.NewString()[:8]
	s.logger.Infow("stations: refresh start",
		"cycle", cycle, "stations", len(s.catalog), "sources", len(s.stationSrcs), "manual", isManual)

	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []SourceResult
	)

	for _, st := range s.catalog {
		for _, p := range s.stationSrcs {
			st, p := st, p
			wg.Add(1)
			go func() {
				defer wg.Done()

				r, err := p.FetchStation(ctx, st)
				if err != nil {
					s.logger.Debugw("stations: source failed",
						"cycle", cycle, "station", st.ID, "source", p.Name(), "error", err)
				}

				mu.Lock()
				results = append(results, SourceResult{Station: st, Reading: r, Err: err})
				mu.Unlock()
			}()
		}
	}
	wg.Wait()

	report := Reconcile(results)
	s.logger.Infow("stations: refresh done",
		"cycle", cycle, "surviving", report.TotalStations, "averageAqi", report.AverageAQI)

	s.mu.Lock()
	s.lastReport = report
	s.haveReport = true
	s.mu.Unlock()

	return report, nil
}

// StationReportSnapshot returns the most recent reconciled station view.
// ok is false until the first successful RefreshStations.
func (s *Service) StationReportSnapshot() (StationReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport, s.haveReport
}

// UsageSnapshot exposes the ledger's quota state to the UI.
func (s *Service) UsageSnapshot() budget.Usage {
	return s.ledger.Usage()
}

// LatestReading delegates to the underlying store.
func (s *Service) LatestReading(city string) (Reading, error) {
	return s.store.GetLatest(Target{City: city}.Key())
}

// ReadingHistory delegates to the underlying store.
func (s *Service) ReadingHistory(city string, from, to time.Time) ([]Reading, error) {
	return s.store.GetRange(Target{City: city}.Key(), from, to)
}

// PrimaryCity returns the configured default city.
func (s *Service) PrimaryCity() string {
	return s.primaryCity
}

// AutoRefresh is the scheduler-driven tick: one automatic refresh of the
// primary city.
func (s *Service) AutoRefresh(ctx context.Context) {
	if _, err := s.RequestRefresh(ctx, Target{City: s.primaryCity}, false); err != nil {
		s.logger.Errorw("auto refresh failed", "error", err)
	}
}

func (s *Service) isPrimary(city string) bool {
	return strings.EqualFold(strings.TrimSpace(city), strings.TrimSpace(s.primaryCity))
}
