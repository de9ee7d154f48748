package sim

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/binforecast/schema"
)

// allDistricts selects every district in an event's district list.
const allDistricts = "all"

// ActiveEvents returns the names of the events affecting a district on a date
// and their combined multiplier. The multiplier is 1.0 when nothing matches.
func ActiveEvents(events []schema.Event, d schema.District, date time.Time) ([]string, float64) {
	key := fmt.Sprintf("%02d-%02d", int(date.Month()), date.Day())
	var names []string
	multiplier := 1.0
	for _, ev := range events {
		if !slices.Contains(ev.Dates, key) || !affects(ev, d) {
			continue
		}
		names = append(names, ev.Name)
		if ev.Multiplier > 0 {
			multiplier *= ev.Multiplier
		}
	}
	return names, multiplier
}

// affects matches district entries by id, or by case-insensitive substring of the name.
func affects(ev schema.Event, d schema.District) bool {
	name := strings.ToLower(d.Name)
	for _, entry := range ev.Districts {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if entry == allDistricts || entry == strings.ToLower(d.ID) || strings.Contains(name, entry) {
			return true
		}
	}
	return false
}

// eventDayValue renders the Event Day factor value.
func eventDayValue(names []string, date time.Time) string {
	labels := slices.Clone(names)
	if IsPayday(date) {
		labels = append(labels, "Payday")
	}
	if len(labels) == 0 {
		return "None"
	}
	return strings.Join(labels, ", ")
}
