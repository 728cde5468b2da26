package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"fabworks/internal/workorder"
)

var titleCaser = cases.Title(language.English)

// displayLabel turns an enum value like "in_progress" into "In Progress".
func displayLabel(value string) string {
	return titleCaser.String(strings.ReplaceAll(value, "_", " "))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func parseKinds(value string) ([]workorder.StepKind, error) {
	parts := strings.Split(value, ",")
	kinds := make([]workorder.StepKind, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		kind, ok := workorder.ParseStepKind(trimmed)
		if !ok {
			return nil, fmt.Errorf("unknown service %q (expected one of scanning, design, print, testing)", trimmed)
		}
		kinds = append(kinds, kind)
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no services specified")
	}
	return kinds, nil
}
