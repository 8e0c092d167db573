package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/balkashynov/ems/internal/models"
)

var (
	priorityRegex = regexp.MustCompile(`(?:^|\s)\+([a-zA-Z0-9]+)`)
	dueRegex      = regexp.MustCompile(`(?:^|\s)due:(\S+)`)
)

// QuickAdd is a task parsed from a single line
type QuickAdd struct {
	Title    string
	Priority models.Priority
	Deadline *time.Time
	Errors   []string
}

// ParseQuickAdd extracts metadata from a one-line task
// Syntax: "Task title +priority due:3days"
// Relative deadlines use underscores or no space: due:3days, due:2_weeks.
func ParseQuickAdd(input string, now time.Time) QuickAdd {
	result := QuickAdd{Errors: []string{}}

	// Extract priority (+high, +3, +med)
	if m := priorityRegex.FindStringSubmatch(input); len(m) > 1 {
		if p, ok := models.ParsePriority(m[1]); ok {
			result.Priority = p
		} else {
			result.Errors = append(result.Errors, "Invalid priority '"+m[1]+"'. Use: low, medium, high, 1, 2, or 3")
		}
		input = priorityRegex.ReplaceAllString(input, " ")
	}

	// Extract deadline (due:3days, due:15/12/2026, due:tomorrow)
	if m := dueRegex.FindStringSubmatch(input); len(m) > 1 {
		raw := strings.ReplaceAll(m[1], "_", " ")
		deadline, err := ParseDeadline(raw, now)
		if err != nil {
			result.Errors = append(result.Errors, "Invalid due date '"+m[1]+"': "+err.Error())
		} else {
			result.Deadline = deadline
		}
		input = dueRegex.ReplaceAllString(input, " ")
	}

	result.Title = strings.Join(strings.Fields(input), " ")
	return result
}

// Valid reports whether the line parsed cleanly into something with a title
func (q QuickAdd) Valid() bool {
	return q.Title != "" && len(q.Errors) == 0
}
