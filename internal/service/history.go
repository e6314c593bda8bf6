package service

import (
	"context"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"poolctl/internal/logger"
	"poolctl/internal/models"
	"poolctl/internal/repository"
)

// Range window bounds. "all" is a fixed one-year lookback on purpose: the
// retention sweep makes true unlimited history meaningless anyway.
const (
	minWindow     = time.Minute
	maxWindow     = 30 * 24 * time.Hour
	defaultWindow = 24 * time.Hour
	allWindow     = 365 * 24 * time.Hour

	defaultLimit = 200
	maxLimit     = 500
)

var rangeTokenRe = regexp.MustCompile(`^(\d+)\s*([mhd])$`)

// HistoryConfig tunes the event store behavior.
type HistoryConfig struct {
	DefaultDeviceID  string
	RetentionWindow  time.Duration // rows older than this become prunable
	SweepProbability float64       // chance per ingest of running the sweep
}

// IngestInput is one event submission before normalization.
type IngestInput struct {
	DeviceID string
	State    string
	TS       *int64 // epoch ms; nil defaults to receipt time
	ValveID  *int   // nil defaults to 1
}

// QueryInput is a raw history query before defaults and clamping.
type QueryInput struct {
	DeviceID string
	Range    string
	Limit    int
}

// QueryResult echoes the resolved window alongside the ordered rows.
type QueryResult struct {
	DeviceID string
	Range    string
	SinceTs  int64
	Items    []models.HistoryItem
}

// HistoryService validates, stores and queries pool events. It is the only
// writer of the events table; retention pruning rides on the ingest path as
// a cheap amortized sweep instead of a scheduled job.
type HistoryService struct {
	events repository.EventRepo
	cfg    HistoryConfig
	log    *logger.Logger

	now       func() time.Time
	randFloat func() float64
}

func NewHistoryService(events repository.EventRepo, cfg HistoryConfig, log *logger.Logger) *HistoryService {
	return &HistoryService{
		events:    events,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		randFloat: rand.Float64,
	}
}

// Ingest validates one submission in fixed order, appends it, and with the
// configured probability prunes rows past the retention window. Validation
// failures never reach the store.
func (s *HistoryService) Ingest(ctx context.Context, in IngestInput) (models.HistoryEvent, error) {
	deviceID := strings.TrimSpace(in.DeviceID)
	if deviceID == "" {
		return models.HistoryEvent{}, BadRequest("deviceId is required")
	}

	state := strings.ToUpper(strings.TrimSpace(in.State))
	if state != "ON" && state != "OFF" {
		return models.HistoryEvent{}, BadRequest("state must normalize to ON or OFF")
	}

	ts := s.now().UnixMilli()
	if in.TS != nil {
		if *in.TS <= 0 {
			return models.HistoryEvent{}, BadRequest("ts must be a positive epoch-milliseconds number")
		}
		ts = *in.TS
	}

	valveID := 1
	if in.ValveID != nil {
		if *in.ValveID != 1 && *in.ValveID != 2 {
			return models.HistoryEvent{}, BadRequest("valveId must be 1 or 2")
		}
		valveID = *in.ValveID
	}

	inserted, err := s.events.Insert(ctx, models.HistoryEvent{
		DeviceID: deviceID,
		TS:       ts,
		State:    state,
		ValveID:  valveID,
	})
	if err != nil {
		return models.HistoryEvent{}, StorageError("insert event", err)
	}

	s.maybeSweep(ctx)
	return inserted, nil
}

// maybeSweep runs the retention sweep with the configured probability. A
// sweep failure is logged but does not fail the ingest that triggered it:
// the row is already in, and retention is eventual, not exact.
func (s *HistoryService) maybeSweep(ctx context.Context) {
	if s.randFloat() >= s.cfg.SweepProbability {
		return
	}
	cutoff := s.now().Add(-s.cfg.RetentionWindow).UnixMilli()
	n, err := s.events.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Errorw("retention_sweep_failed", "err", err, "cutoff", cutoff)
		return
	}
	s.log.Infow("retention_sweep", "deleted", n, "cutoff", cutoff)
}

// Query returns events for a device within a range-token window, ascending,
// capped at limit. Storage failures surface whole; there is no silent
// partial result.
func (s *HistoryService) Query(ctx context.Context, in QueryInput) (QueryResult, error) {
	deviceID := strings.TrimSpace(in.DeviceID)
	if deviceID == "" {
		deviceID = s.cfg.DefaultDeviceID
	}

	rangeToken := strings.TrimSpace(in.Range)
	if rangeToken == "" {
		rangeToken = "24h"
	}

	window := resolveRange(rangeToken)
	sinceTs := s.now().Add(-window).UnixMilli()
	limit := clampLimit(in.Limit)

	items, err := s.events.ListSince(ctx, deviceID, sinceTs, limit)
	if err != nil {
		return QueryResult{}, StorageError("query events", err)
	}

	return QueryResult{
		DeviceID: deviceID,
		Range:    rangeToken,
		SinceTs:  sinceTs,
		Items:    items,
	}, nil
}

// resolveRange parses a range token ("24h", "7d", "60m", "all") into a
// lookback window. Unparsable tokens fall back to 24h; numeric windows are
// clamped to [1 minute, 30 days]; "all" is a fixed one-year cap.
func resolveRange(token string) time.Duration {
	raw := strings.ToLower(strings.TrimSpace(token))
	if raw == "all" {
		return allWindow
	}

	m := rangeTokenRe.FindStringSubmatch(raw)
	if m == nil {
		return defaultWindow
	}

	n := 0
	for _, c := range m[1] {
		n = n*10 + int(c-'0')
		if n > 1<<20 {
			return maxWindow
		}
	}

	var unit time.Duration
	switch m[2] {
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	default:
		unit = 24 * time.Hour
	}

	window := time.Duration(n) * unit
	if window < minWindow {
		return minWindow
	}
	if window > maxWindow {
		return maxWindow
	}
	return window
}

func clampLimit(limit int) int {
	if limit == 0 {
		return defaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
