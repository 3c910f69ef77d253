// nav/log.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

// Available trace categories
const (
	NavLogPosition = "position"
	NavLogSpeed    = "speed"
	NavLogHeading  = "heading"
	NavLogAvoid    = "avoid"
)
