// Package metrics models one day of activity and sleep data as an
// immutable snapshot, reconstructed fresh on every run.
package metrics

import (
	"time"

	"github.com/okkyok/Fibit2Obsidian/pkg/integrations/fitbit"
)

// SleepStages is the per-night sleep breakdown. Durations are minutes;
// Bedtime and WakeTime are zero-padded HH:MM strings, empty when no sleep
// was recorded.
type SleepStages struct {
	AwakeMinutes     int
	REMMinutes       int
	LightMinutes     int
	DeepMinutes      int
	TotalMinutes     int
	TimeInBedMinutes int
	Bedtime          string
	WakeTime         string
	WakeCount        int
	RestlessCount    int
}

// DailyMetrics is the immutable per-date snapshot the formatter consumes.
type DailyMetrics struct {
	Date          time.Time
	Steps         int
	DistanceKm    float64
	Calories      int
	ActiveMinutes int
	Sleep         SleepStages
}

// FromFitbit maps API responses onto a DailyMetrics. Nil responses and
// missing fields map to zero values so formatting never sees nulls.
func FromFitbit(date time.Time, activity *fitbit.ActivitySummary, sleep *fitbit.SleepSummary, loc *time.Location) DailyMetrics {
	m := DailyMetrics{Date: date}

	if activity != nil {
		m.Steps = activity.Summary.Steps
		m.DistanceKm = activity.TotalDistanceKm()
		m.Calories = activity.Summary.CaloriesOut
		m.ActiveMinutes = activity.Summary.VeryActiveMinutes
	}

	if sleep != nil {
		m.Sleep = sleepStages(sleep, loc)
	}

	return m
}

func sleepStages(sleep *fitbit.SleepSummary, loc *time.Location) SleepStages {
	var s SleepStages

	log := sleep.MainSleep()
	if log == nil {
		return s
	}

	s.TotalMinutes = log.MinutesAsleep
	s.TimeInBedMinutes = log.TimeInBed
	s.WakeCount = log.AwakeCount
	s.RestlessCount = log.RestlessCount

	if start, err := parseSleepStart(log.StartTime, loc); err == nil {
		s.Bedtime = start.Format("15:04")
		// Wake time is derived: bedtime plus total minutes asleep.
		s.WakeTime = start.Add(time.Duration(log.MinutesAsleep) * time.Minute).Format("15:04")
	}

	s.AwakeMinutes = log.Levels.Summary["wake"].Minutes
	s.REMMinutes = log.Levels.Summary["rem"].Minutes
	s.LightMinutes = log.Levels.Summary["light"].Minutes
	s.DeepMinutes = log.Levels.Summary["deep"].Minutes

	// Short "classic" logs carry no per-log levels; the date-level stage
	// summary is the fallback.
	if s.AwakeMinutes == 0 && s.REMMinutes == 0 && s.LightMinutes == 0 && s.DeepMinutes == 0 {
		s.AwakeMinutes = sleep.Summary.Stages.Wake
		s.REMMinutes = sleep.Summary.Stages.REM
		s.LightMinutes = sleep.Summary.Stages.Light
		s.DeepMinutes = sleep.Summary.Stages.Deep
	}

	return s
}

// parseSleepStart parses the sleep log start time, which Fitbit reports in
// the user's local time without an offset.
func parseSleepStart(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.000", value, loc); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", value, loc)
}
