//go:build navlog

// nav/log_debug.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"
	"strings"
)

// Trace logging configuration
var (
	navlogEnabled    bool
	navlogCategories map[string]bool
	navlogCallsign   string // filter to only log this aircraft (empty = log all)
)

// InitNavLog initializes the flight model trace log
func InitNavLog(enabled bool, categories string, callsign string) {
	navlogEnabled = enabled
	navlogCategories = make(map[string]bool)
	navlogCallsign = strings.TrimSpace(callsign)

	if !enabled {
		return
	}

	if categories == "" || categories == "all" {
		for _, cat := range []string{NavLogPosition, NavLogSpeed, NavLogHeading, NavLogAvoid} {
			navlogCategories[cat] = true
		}
	} else {
		for cat := range strings.SplitSeq(categories, ",") {
			navlogCategories[strings.TrimSpace(cat)] = true
		}
	}
}

// NavLog logs a message with the tick, aircraft, and category
func NavLog(callsign string, tick int, category string, format string, args ...any) {
	if !navlogEnabled || !navlogCategories[category] {
		return
	}
	if navlogCallsign != "" && navlogCallsign != callsign {
		return
	}

	// Format: [tick] [callsign] [category] message
	fmt.Printf("[%6d] [%s] [%s] %s\n", tick, callsign, category, fmt.Sprintf(format, args...))
}

// NavLogEnabled returns whether trace logging is enabled for a given category
func NavLogEnabled(category string) bool {
	return navlogEnabled && navlogCategories[category]
}
