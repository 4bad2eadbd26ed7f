package cot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cotpulse/internal/cache"
	"cotpulse/internal/config"
	"cotpulse/internal/registry"
)

// MaxHistoryWeeks is the deepest history ever requested upstream. Callers
// asking for shorter windows are served from the same fetch.
const MaxHistoryWeeks = 156

// Orchestrator turns symbol/class/window requests into normalized weekly
// rows, memoizing raw fetches and isolating failures per symbol.
//
// No method lets a failure escape as anything but an explicit Source
// status; the consuming layer must always have a renderable state.
type Orchestrator struct {
	client *Client
	cache  *cache.Store[[]RawRow]
	cfg    config.UpstreamConfig
	logger *slog.Logger

	// pause is swappable so batch tests need not sleep for real.
	pause func(context.Context, time.Duration)
}

// NewOrchestrator wires the orchestrator to its upstream client and the
// raw-data cache domain.
func NewOrchestrator(client *Client, store *cache.Store[[]RawRow], cfg config.UpstreamConfig, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client: client,
		cache:  store,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "cot_orchestrator")),
		pause:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func historyKey(symbol string, weeks int) string {
	return fmt.Sprintf("history|%s|%d", symbol, weeks)
}

func latestKey(symbol string) string {
	return fmt.Sprintf("latest|%s", symbol)
}

// FetchHistory returns up to weeks normalized rows for one symbol and
// trader class, newest first. The raw fetch is cached per symbol and
// window so every trader class shares it. Any upstream failure yields
// (nil, SourceError), never partial rows with synthetic data.
func (o *Orchestrator) FetchHistory(ctx context.Context, symbol string, class TraderClass, weeks int) ([]WeeklyRow, Source) {
	ins, ok := registry.Lookup(symbol)
	if !ok {
		o.logger.WarnContext(ctx, "history requested for unsupported symbol", slog.String("symbol", symbol))
		return nil, SourceError
	}
	if weeks < 1 {
		weeks = 1
	}
	if weeks > MaxHistoryWeeks {
		weeks = MaxHistoryWeeks
	}

	if o.cfg.Mock {
		return Normalize(mockRows(symbol, weeks), class), SourceMock
	}

	raw, src := o.rawHistory(ctx, ins, weeks)
	if src == SourceError {
		return nil, SourceError
	}
	return Normalize(raw, class), src
}

func (o *Orchestrator) rawHistory(ctx context.Context, ins registry.Instrument, weeks int) ([]RawRow, Source) {
	key := historyKey(ins.Symbol, weeks)
	if raw, ok := o.cache.Get(key); ok {
		return raw, SourceLive
	}

	raw, err := o.client.FetchRows(ctx, ins.MarketPattern, weeks)
	if err != nil {
		o.logger.ErrorContext(ctx, "upstream history fetch failed",
			slog.String("symbol", ins.Symbol),
			slog.String("error", err.Error()))
		return nil, SourceError
	}
	o.cache.Set(key, raw)
	return raw, SourceLive
}

// FetchLatest returns the most recent snapshot for one symbol. It fetches
// two rows so the week-over-week change can be derived from the same
// response.
func (o *Orchestrator) FetchLatest(ctx context.Context, symbol string, class TraderClass) (LatestSnapshot, Source) {
	ins, ok := registry.Lookup(symbol)
	if !ok {
		return LatestSnapshot{}, SourceError
	}

	var (
		raw []RawRow
		src Source
	)
	if o.cfg.Mock {
		raw, src = mockRows(symbol, 2), SourceMock
	} else if deep, ok := o.cache.Get(historyKey(symbol, MaxHistoryWeeks)); ok && len(deep) > 0 {
		// A full history fetch for this symbol is already resident; its
		// newest rows serve the snapshot without another upstream call.
		raw, src = deep, SourceLive
	} else {
		key := latestKey(symbol)
		if cached, ok := o.cache.Get(key); ok {
			raw, src = cached, SourceLive
		} else {
			fetched, err := o.client.FetchRows(ctx, ins.MarketPattern, 2)
			if err != nil {
				o.logger.WarnContext(ctx, "latest fetch failed",
					slog.String("symbol", symbol),
					slog.String("error", err.Error()))
				return LatestSnapshot{}, SourceError
			}
			o.cache.Set(key, fetched)
			raw, src = fetched, SourceLive
		}
	}

	rows := Normalize(raw, class)
	if len(rows) == 0 {
		return LatestSnapshot{}, SourceError
	}
	return LatestSnapshot{
		Symbol:              symbol,
		Row:                 rows[0],
		OpenInterest:        raw[0].OpenInterest,
		OpenInterestChange:  raw[0].OpenInterestChange,
		OpenInterestDisplay: FormatCompact(raw[0].OpenInterest),
		ReportDate:          raw[0].ReportDate,
	}, src
}

// BatchResult carries the outcome of a latest-snapshot fan-out.
type BatchResult struct {
	Snapshots  []LatestSnapshot
	Source     Source
	ReportDate time.Time
	Failed     []string
}

// FetchAllLatest fetches the latest snapshot for every registered symbol
// in bounded concurrent groups, pausing briefly between groups as a
// rate-limit courtesy. Failures are isolated per symbol: Source is live
// only if every symbol succeeded, partial if some did, error if none did.
// The report date is the maximum observed across successful symbols.
func (o *Orchestrator) FetchAllLatest(ctx context.Context, class TraderClass) BatchResult {
	symbols := registry.Symbols()

	var (
		mu        sync.Mutex
		snapshots []LatestSnapshot
		failed    []string
	)

	group := o.cfg.BatchGroupSize
	if group < 1 {
		group = 1
	}
	for start := 0; start < len(symbols); start += group {
		end := min(start+group, len(symbols))

		var wg sync.WaitGroup
		for _, symbol := range symbols[start:end] {
			wg.Add(1)
			go func(symbol string) {
				defer wg.Done()
				snap, src := o.FetchLatest(ctx, symbol, class)
				mu.Lock()
				defer mu.Unlock()
				if src == SourceError {
					failed = append(failed, symbol)
					return
				}
				snapshots = append(snapshots, snap)
			}(symbol)
		}
		wg.Wait()

		if end < len(symbols) && o.cfg.BatchGroupPause > 0 && !o.cfg.Mock {
			o.pause(ctx, o.cfg.BatchGroupPause)
		}
	}

	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Symbol < snapshots[j].Symbol })
	sort.Strings(failed)

	res := BatchResult{Snapshots: snapshots, Failed: failed}
	for _, s := range snapshots {
		if s.ReportDate.After(res.ReportDate) {
			res.ReportDate = s.ReportDate
		}
	}

	switch {
	case len(snapshots) == 0:
		res.Source = SourceError
	case len(failed) > 0:
		res.Source = SourcePartial
	case o.cfg.Mock:
		res.Source = SourceMock
	default:
		res.Source = SourceLive
	}

	if len(failed) > 0 {
		o.logger.WarnContext(ctx, "batch latest fetch degraded",
			slog.Int("succeeded", len(snapshots)),
			slog.Int("failed", len(failed)),
			slog.Any("failed_symbols", failed))
	}
	return res
}

// FetchAllPercentileHistories fetches the full net-position history for
// every registered symbol concurrently and unbounded; each call is
// independently cached and cheap next to the latest-snapshot fan-out.
// Per-symbol failures are omitted from the map rather than aborting the
// batch.
func (o *Orchestrator) FetchAllPercentileHistories(ctx context.Context, class TraderClass, weeks int) (map[string][]float64, int, int) {
	symbols := registry.Symbols()

	var mu sync.Mutex
	series := make(map[string][]float64, len(symbols))

	var g errgroup.Group
	for _, symbol := range symbols {
		g.Go(func() error {
			rows, src := o.FetchHistory(ctx, symbol, class, weeks)
			if src == SourceError {
				return nil // isolated; the symbol is simply absent
			}
			mu.Lock()
			series[symbol] = NetSeries(rows)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	return series, len(series), len(symbols)
}

// FlushCache evicts the raw-data cache domain and returns the number of
// entries removed.
func (o *Orchestrator) FlushCache() int {
	return o.cache.ClearAll()
}

// CacheStatus exposes the raw-data cache introspection snapshot.
func (o *Orchestrator) CacheStatus() cache.Status {
	return o.cache.Status()
}
