package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dmyRegex      = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	relativeRegex = regexp.MustCompile(`^(\d+)\s*(h|hour|hours|d|day|days|w|week|weeks)$`)
)

// isoLayouts are tried in order after the dd/mm/yyyy form
var isoLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDeadline parses a deadline relative to now
// Supported formats:
// - dd/mm/yyyy (e.g., "15/12/2026"), end of that day
// - yyyy-mm-dd, yyyy-mm-ddThh:mm
// - today, tomorrow
// - X hours, X days, X weeks (also 3h, 2d, 1w)
//
// Empty input means no deadline and returns nil, nil.
func ParseDeadline(input string, now time.Time) (*time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	if deadline, err := parseDateFormat(input, now.Location()); err == nil {
		return deadline, nil
	} else if dmyRegex.MatchString(input) {
		return nil, err
	}

	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, input, now.Location()); err == nil {
			if layout == "2006-01-02" {
				t = endOfDay(t)
			}
			return &t, nil
		}
	}

	switch strings.ToLower(input) {
	case "today":
		t := endOfDay(now)
		return &t, nil
	case "tomorrow":
		t := endOfDay(now.AddDate(0, 0, 1))
		return &t, nil
	}

	if deadline, err := parseRelativeTime(input, now); err == nil {
		return deadline, nil
	} else if relativeRegex.MatchString(strings.ToLower(input)) {
		return nil, err
	}

	return nil, fmt.Errorf("invalid date format. Use: dd/mm/yyyy, yyyy-mm-dd, today, tomorrow, X days, X hours, or X weeks")
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// parseDateFormat parses dd/mm/yyyy
func parseDateFormat(input string, loc *time.Location) (*time.Time, error) {
	matches := dmyRegex.FindStringSubmatch(input)
	if len(matches) != 4 {
		return nil, fmt.Errorf("invalid date format")
	}

	day, _ := strconv.Atoi(matches[1])
	month, _ := strconv.Atoi(matches[2])
	year, _ := strconv.Atoi(matches[3])

	if day < 1 || day > 31 {
		return nil, fmt.Errorf("day must be between 1 and 31")
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return nil, fmt.Errorf("year must be between 2000 and 2100")
	}

	deadline := time.Date(year, time.Month(month), day, 23, 59, 59, 0, loc)

	// time.Date normalizes 31/02 into March
	if deadline.Day() != day || deadline.Month() != time.Month(month) {
		return nil, fmt.Errorf("invalid date")
	}
	return &deadline, nil
}

// parseRelativeTime parses "3 days", "24 hours", "2w" and friends
func parseRelativeTime(input string, now time.Time) (*time.Time, error) {
	matches := relativeRegex.FindStringSubmatch(strings.ToLower(input))
	if len(matches) != 3 {
		return nil, fmt.Errorf("invalid relative time format")
	}

	amount, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid number")
	}

	switch matches[2] {
	case "h", "hour", "hours":
		if amount < 1 || amount > 8760 {
			return nil, fmt.Errorf("hours must be between 1 and 8760")
		}
		deadline := now.Add(time.Duration(amount) * time.Hour)
		return &deadline, nil

	case "d", "day", "days":
		if amount < 1 || amount > 365 {
			return nil, fmt.Errorf("days must be between 1 and 365")
		}
		deadline := endOfDay(now.AddDate(0, 0, amount))
		return &deadline, nil

	case "w", "week", "weeks":
		if amount < 1 || amount > 52 {
			return nil, fmt.Errorf("weeks must be between 1 and 52")
		}
		deadline := endOfDay(now.AddDate(0, 0, amount*7))
		return &deadline, nil
	}
	return nil, fmt.Errorf("unsupported time unit")
}

// FormatDeadline renders a deadline for lists, relative to now
func FormatDeadline(deadline *time.Time, now time.Time) string {
	if deadline == nil || deadline.IsZero() {
		return ""
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	local := deadline.In(now.Location())
	dueDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, now.Location())
	daysDiff := int(dueDay.Sub(today).Hours() / 24)

	// Always show the actual date
	dateStr := local.Format("02/01/2006")

	switch {
	case daysDiff < 0:
		return fmt.Sprintf("⚠️ OVERDUE (%s)", dateStr)
	case daysDiff == 0:
		return fmt.Sprintf("🔥 Due today (%s)", dateStr)
	case daysDiff == 1:
		return fmt.Sprintf("📅 Due tomorrow (%s)", dateStr)
	case daysDiff <= 7:
		return fmt.Sprintf("📅 Due %s (in %d days)", dateStr, daysDiff)
	}
	return fmt.Sprintf("📅 Due %s", dateStr)
}
