package lead

import "time"

// Snapshot holds counters derived from the unfiltered lead list.
type Snapshot struct {
	Total      int
	Today      int
	Yesterday  int
	ThisWeek   int
	ThisMonth  int
	BySource   map[string]int
	ByStatus   map[Status]int
	Converted  int
	InProgress int // CONTACTED + INTERESTED
}

// ConversionRate is the converted share of all leads, in [0, 1].
func (s Snapshot) ConversionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Converted) / float64(s.Total)
}

// ComputeStats buckets leads by creation time relative to now, using local
// calendar days and Sunday-start weeks.
func ComputeStats(leads []Lead, now time.Time) Snapshot {
	today := StartOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	week := StartOfWeek(now)
	month := StartOfMonth(now)

	s := Snapshot{
		Total:    len(leads),
		BySource: make(map[string]int),
		ByStatus: make(map[Status]int),
	}
	for _, l := range leads {
		c := l.CreatedAt
		if inBucket(c, today, now) {
			s.Today++
		}
		if inBucket(c, yesterday, today) {
			s.Yesterday++
		}
		if inBucket(c, week, now) {
			s.ThisWeek++
		}
		if inBucket(c, month, now) {
			s.ThisMonth++
		}
		s.BySource[l.Source]++
		s.ByStatus[l.Status]++

		switch l.Status {
		case StatusConverted:
			s.Converted++
		case StatusContacted, StatusInterested:
			s.InProgress++
		}
	}
	return s
}

// inBucket reports t in [from, to).
func inBucket(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
