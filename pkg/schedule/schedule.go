// Package schedule produces service appointment slots. The current
// implementation generates a deterministic mock calendar; a real booking
// backend can replace it behind the same shape.
package schedule

import "time"

// Slot is one bookable service window.
type Slot struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
}

var slotTimes = []string{"09:00", "11:00", "14:00", "16:00"}

// Slots returns the open windows for the next `days` calendar days starting
// the day after `from`. Sundays are skipped.
func Slots(from time.Time, days int, location string) []Slot {
	if location == "" {
		location = "AutoGuard Service Center"
	}
	var out []Slot
	day := from
	for added := 0; added < days; {
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == time.Sunday {
			continue
		}
		date := day.Format("2006-01-02")
		for _, t := range slotTimes {
			out = append(out, Slot{Date: date, Time: t, Location: location})
		}
		added++
	}
	return out
}
