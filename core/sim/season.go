package sim

import (
	"time"

	"github.com/huangsam/binforecast/schema"
)

// Season names reported in the Season factor.
const (
	RainySeason  = "Rainy"
	SummerSeason = "Summer"
	DrySeason    = "Dry"
)

// SeasonFor returns the season a month belongs to.
func SeasonFor(month time.Month) string {
	switch {
	case month >= time.June && month <= time.October:
		return RainySeason
	case month >= time.March && month <= time.May:
		return SummerSeason
	default:
		return DrySeason
	}
}

// WeatherFor returns the simulated weather of a month.
func WeatherFor(month time.Month) schema.Weather {
	switch SeasonFor(month) {
	case RainySeason:
		return schema.Weather{RainfallMm: 20, TemperatureC: 28}
	case SummerSeason:
		return schema.Weather{RainfallMm: 10, TemperatureC: 32}
	default:
		return schema.Weather{RainfallMm: 15, TemperatureC: 30}
	}
}

// IsMarketDay reports whether the district holds a market on the given date.
// Markets run on Tuesdays, Fridays and Saturdays.
func IsMarketDay(d schema.District, date time.Time) bool {
	if !d.HasMarket {
		return false
	}
	switch date.Weekday() {
	case time.Tuesday, time.Friday, time.Saturday:
		return true
	}
	return false
}

// IsPayday reports whether the date is a payday (the 15th or the 30th).
func IsPayday(date time.Time) bool {
	return date.Day() == 15 || date.Day() == 30
}

// ForecastDateFor returns the forecast date for a reference date, which is always the next calendar day.
func ForecastDateFor(ref time.Time) time.Time {
	y, m, d := ref.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, ref.Location())
}
