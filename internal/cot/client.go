package cot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"cotpulse/internal/config"
)

// socrataRow mirrors one record of the CFTC legacy futures-only dataset.
// Every numeric field arrives as a string.
type socrataRow struct {
	ReportDate string `json:"report_date_as_yyyy_mm_dd"`

	OpenInterestAll      string `json:"open_interest_all"`
	ChangeInOpenInterest string `json:"change_in_open_interest_all"`

	NonCommPositionsLong  string `json:"noncomm_positions_long_all"`
	NonCommPositionsShort string `json:"noncomm_positions_short_all"`
	ChangeInNonCommLong   string `json:"change_in_noncomm_long_all"`
	ChangeInNonCommShort  string `json:"change_in_noncomm_short_all"`

	CommPositionsLong  string `json:"comm_positions_long_all"`
	CommPositionsShort string `json:"comm_positions_short_all"`
	ChangeInCommLong   string `json:"change_in_comm_long_all"`
	ChangeInCommShort  string `json:"change_in_comm_short_all"`

	NonReptPositionsLong  string `json:"nonrept_positions_long_all"`
	NonReptPositionsShort string `json:"nonrept_positions_short_all"`
	ChangeInNonReptLong   string `json:"change_in_nonrept_long_all"`
	ChangeInNonReptShort  string `json:"change_in_nonrept_short_all"`
}

// Client talks to the CFTC public reporting API (a Socrata dataset). All
// calls share one token bucket so batch fan-outs cannot stampede the
// upstream, and every call carries a fixed deadline.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
	fetches    metric.Int64Counter
}

// NewClient builds a client from upstream configuration.
func NewClient(cfg config.UpstreamConfig, logger *slog.Logger) *Client {
	meter := otel.Meter("cotpulse/internal/cot")
	fetches, _ := meter.Int64Counter("cot_upstream_fetches_total",
		metric.WithDescription("Upstream CFTC fetches by outcome"))

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		logger:     logger.With(slog.String("component", "cot_client")),
		fetches:    fetches,
	}
}

// FetchRows retrieves up to limit weekly reports whose market name matches
// the SoQL LIKE pattern, newest first. An empty result set is an error:
// the caller asked for a market the upstream claims not to know, and
// serving synthetic rows instead would be worse than failing the symbol.
func (c *Client) FetchRows(ctx context.Context, marketPattern string, limit int) ([]RawRow, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("$where", fmt.Sprintf("upper(market_and_exchange_names) like '%s'", escapeSoQL(marketPattern)))
	q.Set("$order", "report_date_as_yyyy_mm_dd DESC")
	q.Set("$limit", strconv.Itoa(limit))
	reqURL := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(ctx, "network_error")
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.record(ctx, "http_error")
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		c.record(ctx, "read_error")
		return nil, fmt.Errorf("read upstream body: %w", err)
	}

	var raw []socrataRow
	if err := json.Unmarshal(body, &raw); err != nil {
		c.record(ctx, "decode_error")
		return nil, fmt.Errorf("decode upstream body: %w", err)
	}
	if len(raw) == 0 {
		c.record(ctx, "empty")
		return nil, fmt.Errorf("upstream returned no rows for pattern %q", marketPattern)
	}

	rows := make([]RawRow, 0, len(raw))
	for _, sr := range raw {
		row, err := sr.toRawRow()
		if err != nil {
			c.record(ctx, "malformed_row")
			return nil, fmt.Errorf("malformed upstream row: %w", err)
		}
		rows = append(rows, row)
	}

	c.record(ctx, "ok")
	c.logger.DebugContext(ctx, "upstream fetch complete",
		slog.String("pattern", marketPattern),
		slog.Int("rows", len(rows)),
		slog.Duration("elapsed", time.Since(start)))
	return rows, nil
}

func (c *Client) record(ctx context.Context, outcome string) {
	c.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (sr socrataRow) toRawRow() (RawRow, error) {
	date, err := parseReportDate(sr.ReportDate)
	if err != nil {
		return RawRow{}, err
	}
	return RawRow{
		ReportDate:         date,
		OpenInterest:       parseNum(sr.OpenInterestAll),
		OpenInterestChange: parseNum(sr.ChangeInOpenInterest),
		NonCommLong:        parseNum(sr.NonCommPositionsLong),
		NonCommShort:       parseNum(sr.NonCommPositionsShort),
		NonCommLongChange:  parseNum(sr.ChangeInNonCommLong),
		NonCommShortChange: parseNum(sr.ChangeInNonCommShort),
		CommLong:           parseNum(sr.CommPositionsLong),
		CommShort:          parseNum(sr.CommPositionsShort),
		CommLongChange:     parseNum(sr.ChangeInCommLong),
		CommShortChange:    parseNum(sr.ChangeInCommShort),
		RetailLong:         parseNum(sr.NonReptPositionsLong),
		RetailShort:        parseNum(sr.NonReptPositionsShort),
		RetailLongChange:   parseNum(sr.ChangeInNonReptLong),
		RetailShortChange:  parseNum(sr.ChangeInNonReptShort),
	}, nil
}

// parseReportDate accepts the dataset's ISO-8601-like stamps, with or
// without the time component.
func parseReportDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing report date")
	}
	for _, layout := range []string{"2006-01-02T15:04:05.000", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized report date %q", s)
}

// parseNum reads a numeric-string field, treating absent or blank values
// as zero. The dataset leaves change columns empty on its oldest rows.
func parseNum(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// escapeSoQL doubles single quotes for embedding in a SoQL string literal.
func escapeSoQL(s string) string {
	return strings.ReplaceAll(strings.ToUpper(s), "'", "''")
}
