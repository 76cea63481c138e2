package report

import (
	"github.com/pkg/errors"
)

const (
	dayStartHour = 6
	dayEndHour   = 20
)

// ErrDateNotFound is returned when summary has no entries for the date
var ErrDateNotFound = errors.New("date not found in summary")

// Series is per-slot counts of a single day, ready for charts
type Series struct {
	Date    string
	Labels  []string
	Total   []int
	Enter   []int
	Exit    []int
	Inside  []int
	Outside []int
}

// Len returns number of points
func (series *Series) Len() int {
	return len(series.Labels)
}

func (series *Series) add(label string, counts SlotCounts) {
	series.Labels = append(series.Labels, label)
	series.Total = append(series.Total, counts.Total)
	series.Enter = append(series.Enter, counts.Enter)
	series.Exit = append(series.Exit, counts.Exit)
	series.Inside = append(series.Inside, counts.Inside)
	series.Outside = append(series.Outside, counts.Outside)
}

// DaySlots returns 10-minute slot labels from 6:00 AM to 8:50 PM
func DaySlots() []string {
	slots := make([]string, 0, (dayEndHour-dayStartHour+1)*6)
	for hour := dayStartHour; hour <= dayEndHour; hour++ {
		for minute := 0; minute < 60; minute += 10 {
			slots = append(slots, slotLabel(hour, minute))
		}
	}
	return slots
}

// DailySeries picks slots of the date within the day range in chronological order.
// Zero points are added for 6:00 AM and 8:00 PM when those slots have no data, so every chart spans the same day.
func DailySeries(summary Summary, date string) (*Series, error) {
	slots, ok := summary[date]
	if !ok {
		return nil, errors.Wrapf(ErrDateNotFound, "date %s", date)
	}
	startLabel := slotLabel(dayStartHour, 0)
	endLabel := slotLabel(dayEndHour, 0)
	series := &Series{Date: date}
	for _, label := range DaySlots() {
		counts, ok := slots[label]
		switch {
		case ok:
			series.add(label, counts)
		case label == startLabel || label == endLabel:
			series.add(label, SlotCounts{})
		}
	}
	return series, nil
}
