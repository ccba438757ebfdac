package lead

import (
	"fmt"
	"time"
)

// Preset names a date range shortcut.
type Preset string

const (
	PresetAll        Preset = "all"
	PresetToday      Preset = "today"
	PresetYesterday  Preset = "yesterday"
	PresetThisWeek   Preset = "thisWeek"
	PresetThisMonth  Preset = "thisMonth"
	PresetLast7Days  Preset = "last7Days"
	PresetLast30Days Preset = "last30Days"
	PresetCustom     Preset = "custom"
)

var Presets = []Preset{
	PresetAll, PresetToday, PresetYesterday, PresetThisWeek,
	PresetThisMonth, PresetLast7Days, PresetLast30Days, PresetCustom,
}

var presetLabels = map[Preset]string{
	PresetAll:        "All time",
	PresetToday:      "Today",
	PresetYesterday:  "Yesterday",
	PresetThisWeek:   "This week",
	PresetThisMonth:  "This month",
	PresetLast7Days:  "Last 7 days",
	PresetLast30Days: "Last 30 days",
	PresetCustom:     "Custom",
}

func (p Preset) Label() string {
	if l, ok := presetLabels[p]; ok {
		return l
	}
	return string(p)
}

// DateRange selects which leads the backend returns. From and To are only
// read for PresetCustom and are whole days.
type DateRange struct {
	Preset Preset
	From   time.Time
	To     time.Time
}

// Window is a closed time interval. The zero Window is unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) IsZero() bool { return w.Start.IsZero() && w.End.IsZero() }

// Contains reports whether t falls inside the window. Unset bounds are open.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

func endOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// StartOfWeek returns local midnight of the most recent Sunday.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func StartOfMonth(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
}

// Resolve turns the range into a concrete window relative to now.
func (r DateRange) Resolve(now time.Time) (Window, error) {
	switch r.Preset {
	case PresetAll, "":
		return Window{}, nil
	case PresetToday:
		return Window{Start: StartOfDay(now), End: endOfDay(now)}, nil
	case PresetYesterday:
		y := StartOfDay(now).AddDate(0, 0, -1)
		return Window{Start: y, End: endOfDay(y)}, nil
	case PresetThisWeek:
		return Window{Start: StartOfWeek(now), End: endOfDay(now)}, nil
	case PresetThisMonth:
		return Window{Start: StartOfMonth(now), End: endOfDay(now)}, nil
	case PresetLast7Days:
		return Window{Start: StartOfDay(now).AddDate(0, 0, -6), End: endOfDay(now)}, nil
	case PresetLast30Days:
		return Window{Start: StartOfDay(now).AddDate(0, 0, -29), End: endOfDay(now)}, nil
	case PresetCustom:
		if r.From.IsZero() || r.To.IsZero() {
			return Window{}, fmt.Errorf("custom range needs both dates")
		}
		if r.To.Before(r.From) {
			return Window{}, fmt.Errorf("custom range ends before it starts")
		}
		return Window{Start: StartOfDay(r.From), End: endOfDay(r.To)}, nil
	}
	return Window{}, fmt.Errorf("unknown date range %q", r.Preset)
}

// ParsePreset validates a preset name.
func ParsePreset(s string) (Preset, error) {
	for _, p := range Presets {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown date range %q", s)
}
