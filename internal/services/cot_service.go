package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cotpulse/internal/cache"
	"cotpulse/internal/cot"
	"cotpulse/internal/percentile"
	"cotpulse/internal/registry"
	v1 "cotpulse/pkg/contracts/api/v1"
)

// COTService is the single call surface other layers use for positioning
// data. It validates symbols against the registry, drives the orchestrator,
// computes percentiles, and assembles cached response envelopes.
//
// Caching policy: successful envelopes (including partial batch results)
// are cached as-is; failed ones are not, so a transient upstream failure
// cannot poison the cache for a full TTL period.
type COTService struct {
	orch     *cot.Orchestrator
	apiCache *cache.Store[v1.Envelope]
	apiTTL   time.Duration
	logger   *slog.Logger

	// now is swappable for deterministic envelope timestamps in tests.
	now func() time.Time
}

// NewCOTService wires the gateway to the orchestrator and the response
// cache domain.
func NewCOTService(orch *cot.Orchestrator, apiCache *cache.Store[v1.Envelope], apiTTL time.Duration, logger *slog.Logger) *COTService {
	return &COTService{
		orch:     orch,
		apiCache: apiCache,
		apiTTL:   apiTTL,
		logger:   logger.With(slog.String("component", "cot_service")),
		now:      time.Now,
	}
}

func singleKey(symbol string, class cot.TraderClass, window percentile.Window) string {
	return fmt.Sprintf("single|%s|%s|%d", symbol, class, window)
}

func batchKey(class cot.TraderClass, window percentile.Window) string {
	return fmt.Sprintf("batch|%s|%d", class, window)
}

// QuerySingle returns the positioning envelope for one symbol. Unsupported
// symbols yield ok=false with a neutral payload and are never cached, so a
// later identical call re-validates instead of replaying the failure.
//
// Supported symbols always fetch the maximum history depth and slice for
// the requested window, so a follow-up query for the other window on the
// same symbol is served from cache.
func (s *COTService) QuerySingle(ctx context.Context, symbol string, class cot.TraderClass, window percentile.Window) v1.Envelope {
	key := singleKey(symbol, class, window)
	if env, ok := s.apiCache.Get(key); ok {
		return env
	}

	ins, ok := registry.Lookup(symbol)
	if !ok {
		return s.singleFailure(symbol, class, window, fmt.Sprintf("symbol %q is not supported", symbol))
	}

	rows, src := s.orch.FetchHistory(ctx, symbol, class, cot.MaxHistoryWeeks)
	if src == cot.SourceError || len(rows) == 0 {
		s.logger.WarnContext(ctx, "single query degraded to error",
			slog.String("symbol", symbol),
			slog.String("class", string(class)))
		return s.singleFailure(symbol, class, window, fmt.Sprintf("positioning data for %s is temporarily unavailable", symbol))
	}

	latest, latestSrc := s.orch.FetchLatest(ctx, symbol, class)
	if latestSrc == cot.SourceError {
		// History succeeded, so synthesize the snapshot from it rather
		// than failing the whole query over open-interest detail.
		latest = cot.LatestSnapshot{Symbol: symbol, Row: rows[0]}
	}

	series := cot.NetSeries(rows)
	pct := percentile.FromHistory(series[0], series, window)

	historyDepth := int(window)
	if len(rows) < historyDepth {
		historyDepth = len(rows)
	}

	now := s.now()
	env := v1.Envelope{
		OK: true,
		Meta: v1.Meta{
			Symbol:      symbol,
			FuturesCode: ins.FuturesCode,
			MarketName:  ins.DisplayName,
			TraderType:  class.Display(),
			Window:      int(window),
			ReportDate:  rows[0].Date,
			Source:      src,
			FetchedAt:   now,
			CachedUntil: now.Add(s.apiTTL),
		},
		Data: v1.SingleData{
			Latest: latest,
			Percentile: v1.Percentile{
				Result:         pct,
				Interpretation: percentile.Interpret(pct.Value, class, window),
			},
			History: rows[:historyDepth],
		},
	}

	s.apiCache.SetWithTTL(key, env, s.apiTTL)
	return env
}

func (s *COTService) singleFailure(symbol string, class cot.TraderClass, window percentile.Window, msg string) v1.Envelope {
	return v1.Envelope{
		OK:    false,
		Error: msg,
		Meta: v1.Meta{
			Symbol:     symbol,
			TraderType: class.Display(),
			Window:     int(window),
			Source:     cot.SourceError,
			FetchedAt:  s.now(),
		},
		Data: v1.EmptySingleData(window),
	}
}

// QueryBatch returns one envelope covering every registered symbol. The
// fetch is two-phase: latest snapshots first, then full percentile
// histories, merged by symbol identity. A symbol present in phase one but
// missing from phase two still appears, with the engine's no-history
// fallback, never dropped silently.
func (s *COTService) QueryBatch(ctx context.Context, class cot.TraderClass, window percentile.Window) v1.Envelope {
	key := batchKey(class, window)
	if env, ok := s.apiCache.Get(key); ok {
		return env
	}

	latest := s.orch.FetchAllLatest(ctx, class)
	histories, histSuccess, total := s.orch.FetchAllPercentileHistories(ctx, class, cot.MaxHistoryWeeks)

	items := make([]v1.BatchItem, 0, len(latest.Snapshots))
	for _, snap := range latest.Snapshots {
		ins, _ := registry.Lookup(snap.Symbol)

		var pct percentile.Result
		if series, ok := histories[snap.Symbol]; ok && len(series) > 0 {
			pct = percentile.FromHistory(series[0], series, window)
		} else {
			pct = percentile.Neutral(window)
		}

		items = append(items, v1.BatchItem{
			Symbol:      snap.Symbol,
			FuturesCode: ins.FuturesCode,
			MarketName:  ins.DisplayName,
			Latest:      snap,
			Percentile: v1.Percentile{
				Result:         pct,
				Interpretation: percentile.Interpret(pct.Value, class, window),
			},
		})
	}

	source := latest.Source
	if source == cot.SourceLive && histSuccess < total {
		source = cot.SourcePartial
	}

	now := s.now()
	env := v1.Envelope{
		OK: len(items) > 0,
		Meta: v1.Meta{
			TraderType:    class.Display(),
			Window:        int(window),
			ReportDate:    formatReportDate(latest.ReportDate),
			Source:        source,
			FetchedAt:     now,
			CachedUntil:   now.Add(s.apiTTL),
			TotalSymbols:  total,
			SuccessCount:  len(items),
			FailedSymbols: latest.Failed,
		},
		Data: items,
	}

	if len(items) == 0 {
		env.Error = "no positioning data available from upstream"
		env.Meta.Source = cot.SourceError
		env.Meta.CachedUntil = time.Time{}
		env.Data = []v1.BatchItem{}
		return env // errors are not cached
	}

	s.apiCache.SetWithTTL(key, env, s.apiTTL)
	return env
}

// Refresh clears both cache domains. The next call to any query function
// is guaranteed a full re-fetch.
func (s *COTService) Refresh() v1.RefreshResult {
	res := v1.RefreshResult{
		DataCleared: s.orch.FlushCache(),
		APICleared:  s.apiCache.ClearAll(),
		RefreshedAt: s.now(),
	}
	s.logger.Info("caches flushed",
		slog.Int("data_cleared", res.DataCleared),
		slog.Int("api_cleared", res.APICleared))
	return res
}

// ServiceStatus is the read-only introspection snapshot for operational
// dashboards.
type ServiceStatus struct {
	SupportedSymbols []registry.Instrument `json:"supported_symbols"`
	TraderClasses    []cot.TraderClass     `json:"trader_classes"`
	Windows          []int                 `json:"windows"`
	DataCache        cache.Status          `json:"data_cache"`
	APICache         cache.Status          `json:"api_cache"`
}

// Status composes the cache introspection snapshots with the static symbol
// table. It never mutates state.
func (s *COTService) Status() ServiceStatus {
	return ServiceStatus{
		SupportedSymbols: registry.All(),
		TraderClasses:    cot.Classes(),
		Windows:          []int{int(percentile.Window52W), int(percentile.Window156W)},
		DataCache:        s.orch.CacheStatus(),
		APICache:         s.apiCache.Status(),
	}
}

func formatReportDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
