// Package note renders daily metrics into the managed Markdown section of
// an Obsidian daily note. Formatting is pure: no I/O, no wall-clock reads,
// so re-running with unchanged data produces byte-identical output.
package note

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/okkyok/Fibit2Obsidian/pkg/domain/metrics"
)

// Config holds the formatting templates. Placeholders are {date} (ISO date)
// and {weekday} (localized label).
type Config struct {
	HeadingTemplate string
	FilenameFormat  string
	// WeekdayLabels are localized day-of-week labels, Sunday first.
	WeekdayLabels []string
}

// titleDateLayout renders the new-note title date, e.g. 2025年08月25日.
const titleDateLayout = "2006年01月02日"

func (c Config) weekday(date time.Time) string {
	idx := int(date.Weekday())
	if idx < len(c.WeekdayLabels) {
		return c.WeekdayLabels[idx]
	}
	return date.Weekday().String()[:3]
}

// Filename derives the daily note filename from the configured pattern.
func (c Config) Filename(date time.Time) string {
	name := strings.ReplaceAll(c.FilenameFormat, "{date}", date.Format("2006-01-02"))
	return strings.ReplaceAll(name, "{weekday}", c.weekday(date))
}

// Heading renders the managed-section heading for a date.
func (c Config) Heading(date time.Time) string {
	return strings.ReplaceAll(c.HeadingTemplate, "{date}", date.Format("2006-01-02"))
}

// BaseHeading is the heading template with the date placeholder stripped.
// It identifies the managed section in an existing note regardless of which
// date the section was last written for.
func (c Config) BaseHeading() string {
	base := strings.ReplaceAll(c.HeadingTemplate, " ({date})", "")
	return strings.ReplaceAll(base, "({date})", "")
}

// Title is the top-level heading used when creating a brand new note.
func (c Config) Title(date time.Time) string {
	return fmt.Sprintf("# %s(%s)", date.Format(titleDateLayout), c.weekday(date))
}

// FormatSection renders one day's metrics as the managed Markdown section.
// Substitution is total: absent values render as 00:00 or 0, never an error.
func FormatSection(m metrics.DailyMetrics, cfg Config) string {
	p := message.NewPrinter(language.English)
	var sb strings.Builder

	sb.WriteString(cfg.Heading(m.Date))
	sb.WriteString("\n\n")

	sb.WriteString("| **アクティビティ** | データ | 単位 |\n")
	sb.WriteString("| :--- | :--- | :--- |\n")
	sb.WriteString(p.Sprintf("| 🚶‍♂️ 歩数 | %d | 歩 |\n", m.Steps))
	sb.WriteString(fmt.Sprintf("| 📏 距離 | %.2f | km |\n", m.DistanceKm))
	sb.WriteString(p.Sprintf("| 🔥 消費カロリー | %d | kcal |\n", m.Calories))
	sb.WriteString(fmt.Sprintf("| ⚡ 高強度アクティブ時間 | %d | 分 |\n", m.ActiveMinutes))
	sb.WriteString("\n")

	s := m.Sleep
	sb.WriteString("| **睡眠** | データ | 単位 | **睡眠** | データ | 単位 |\n")
	sb.WriteString("| :--- | :--- | :--- | :--- | :--- | :--- |\n")
	sb.WriteString(fmt.Sprintf("| 💡 目覚めた状態 | %s | hh:mm | 🌃 就寝時刻 | %s | hh:mm |\n", hhmm(s.AwakeMinutes), clock(s.Bedtime)))
	sb.WriteString(fmt.Sprintf("| 🧠 レム睡眠 | %s | hh:mm | 🌅 起床時刻 | %s | hh:mm |\n", hhmm(s.REMMinutes), clock(s.WakeTime)))
	sb.WriteString(fmt.Sprintf("| 😴 浅い睡眠 | %s | hh:mm | 🛌 ベッドにいた合計時間 | %s | hh:mm |\n", hhmm(s.LightMinutes), hhmm(s.TimeInBedMinutes)))
	sb.WriteString(fmt.Sprintf("| 🌌 深い睡眠 | %s | hh:mm | 👀 起床回数 | %d | 回 |\n", hhmm(s.DeepMinutes), s.WakeCount))
	sb.WriteString(fmt.Sprintf("| 💤 総睡眠時間 | %s | hh:mm | 🔄 寝返りの回数 | %d | 回 |\n", hhmm(s.TotalMinutes), s.RestlessCount))

	return sb.String()
}

// hhmm renders a minute count as zero-padded HH:MM.
func hhmm(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// clock renders a time-of-day string, falling back to 00:00 when unknown.
func clock(value string) string {
	if value == "" {
		return "00:00"
	}
	return value
}
