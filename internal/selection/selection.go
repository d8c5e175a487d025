// Package selection decides which cards are due for review, based on
// the history of answers to one kind of question about a card.
//
// The scheduling rule looks at the trailing run of records sharing the
// most recent result and the gaps between consecutive askings:
//
//	trailing "yes"    → longest gap, increased by half
//	trailing "almost" → shortest gap, unchanged
//	trailing "no"     → shortest gap, halved
package selection

import (
	"time"

	"github.com/mkaravas/melete/internal/model"
)

// ExpirationDuration computes how long after the last asking a card
// stays fresh. Records must already be filtered to a single question
// kind and sorted by date ascending. Returns false when there is no
// usable history (never asked, or asked only once): such cards are
// always due.
func ExpirationDuration(records []model.QuestionRecord) (time.Duration, bool) {
	if len(records) == 0 {
		return 0, false
	}
	last := records[len(records)-1]

	// Walk the asking gaps latest-first: the run ends at the first
	// pair whose later record broke the streak.
	var durations []time.Duration
	for i := len(records) - 2; i >= 0; i-- {
		if records[i+1].Result != last.Result {
			break
		}
		durations = append(durations, records[i+1].Date.Sub(records[i].Date))
	}
	if len(durations) == 0 {
		return 0, false
	}

	switch last.Result {
	case model.VerdictYes:
		return increase(maxDuration(durations)), true
	case model.VerdictAlmost:
		return minDuration(durations), true
	default: // no
		return decrease(minDuration(durations)), true
	}
}

// Due reports whether a card should be asked again at the given time.
func Due(now time.Time, records []model.QuestionRecord) bool {
	exp, ok := ExpirationDuration(records)
	if !ok {
		return true
	}
	last := records[len(records)-1]
	return now.Sub(last.Date) > exp
}

func increase(d time.Duration) time.Duration { return d * 3 / 2 }
func decrease(d time.Duration) time.Duration { return d / 2 }

func maxDuration(ds []time.Duration) time.Duration {
	m := ds[0]
	for _, d := range ds[1:] {
		if d > m {
			m = d
		}
	}
	return m
}

func minDuration(ds []time.Duration) time.Duration {
	m := ds[0]
	for _, d := range ds[1:] {
		if d < m {
			m = d
		}
	}
	return m
}
