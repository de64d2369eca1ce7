// Package gauge computes the rolling space-freeing metrics from spec.md
// §4.8, ported from original_source/src-tauri/src/gauge.rs's query shapes
// (weekly_totals, get_files_archived_in_period, get_files_deleted_in_period)
// onto internal/store.
package gauge

import (
	"context"
	"time"

	"github.com/calebandcode/diskhygiene/internal/selector"
	"github.com/calebandcode/diskhygiene/internal/store"
)

// WindowMode selects how the gauge's time window is computed.
type WindowMode string

const (
	// WindowRolling looks back N days from now.
	WindowRolling WindowMode = "rolling"
	// WindowAnchored anchors to the most recent weekday+hour <= now.
	WindowAnchored WindowMode = "anchored"
)

// DefaultRollingDays is the default rolling-window size, per spec.md §4.8.
const DefaultRollingDays = 7

// Triple is the {potential_today, staged_window, freed_window} result.
type Triple struct {
	PotentialToday int64
	StagedWindow   int64
	FreedWindow    int64
	WindowStart    time.Time
	WindowEnd      time.Time
}

// potentialCandidateCap is the large global cap used when computing
// potential_today, so the gauge reflects the whole ranked pool rather than
// a UI-sized page of it, per spec.md §4.8.
const potentialCandidateCap = 1000

// Compute returns the gauge triple for the given window.
func Compute(ctx context.Context, st *store.Store, detector *selector.ActiveProjectDetector, mode WindowMode, rollingDays int, anchorWeekday time.Weekday, anchorHour int) (Triple, error) {
	now := time.Now()
	start := windowStart(now, mode, rollingDays, anchorWeekday, anchorHour)

	candidates, err := selector.Select(ctx, st, detector, potentialCandidateCap)
	if err != nil {
		return Triple{}, err
	}
	var potential int64
	for _, c := range candidates {
		potential += c.SizeBytes
	}

	staged, err := st.StagedBytesInWindow(ctx, start, now)
	if err != nil {
		return Triple{}, err
	}

	freed, err := st.FreedBytesInWindow(ctx, start, now)
	if err != nil {
		return Triple{}, err
	}

	return Triple{
		PotentialToday: potential,
		StagedWindow:   staged,
		FreedWindow:    freed,
		WindowStart:    start,
		WindowEnd:      now,
	}, nil
}

// windowStart computes the window's start time for either mode.
func windowStart(now time.Time, mode WindowMode, rollingDays int, anchorWeekday time.Weekday, anchorHour int) time.Time {
	if mode == WindowAnchored {
		return mostRecentAnchor(now, anchorWeekday, anchorHour)
	}
	if rollingDays <= 0 {
		rollingDays = DefaultRollingDays
	}
	return now.AddDate(0, 0, -rollingDays)
}

// mostRecentAnchor returns the most recent occurrence of weekday at hour
// that is <= now (e.g. Friday 17:00).
func mostRecentAnchor(now time.Time, weekday time.Weekday, hour int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	for candidate.Weekday() != weekday || candidate.After(now) {
		candidate = candidate.AddDate(0, 0, -1)
	}
	return candidate
}
