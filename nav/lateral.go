// nav/lateral.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"errors"
	"fmt"

	"github.com/uamsim/uamsim/math"
)

var ErrHeadingCorrection = errors.New("Unable to determine turn direction")

// HeadingCorrectionError reports a reference/current heading pair whose
// signs don't identify a turn direction.
type HeadingCorrectionError struct {
	Reference, Current float64
}

func (e *HeadingCorrectionError) Error() string {
	return fmt.Sprintf("reference %.2f, current %.2f: %v", e.Reference, e.Current, ErrHeadingCorrection)
}

func (e *HeadingCorrectionError) Unwrap() error { return ErrHeadingCorrection }

const (
	CoarseTurnRate = 20 // degrees per tick
	FineTurnRate   = 1
	// Heading errors smaller than this are considered converged.
	HeadingTolerance = 0.5
)

// TurnRate returns the magnitude of the heading change to apply for the
// given heading error.
func TurnRate(diff float64) float64 {
	diff = math.Abs(diff)
	switch {
	case diff >= CoarseTurnRate:
		return CoarseTurnRate
	case diff >= HeadingTolerance:
		return FineTurnRate
	default:
		return 0
	}
}

// UpdateReferenceHeading recomputes the bearing from the current position
// to the end point.
func (fs *FlightState) UpdateReferenceHeading() {
	fs.ReferenceHeading = math.Bearing(fs.Position, fs.End)
}

// CorrectHeading turns the heading one rate-limited step toward the
// reference heading.
func (fs *FlightState) CorrectHeading() error {
	hdg, err := CorrectHeading(fs.ReferenceHeading, fs.Heading)
	if err != nil {
		return err
	}
	fs.Heading = hdg
	return nil
}

// CorrectHeading returns the heading after one step of turning from cur
// toward ref. The error is the raw difference, not the shortest turn, so
// near ±180 the aircraft may go the long way around.
func CorrectHeading(ref, cur float64) (float64, error) {
	diff := ref - cur
	rate := TurnRate(diff)
	if rate == 0 {
		return cur, nil
	}

	sr, sc := math.Sign(ref), math.Sign(cur)
	var turn float64
	switch {
	case sr > 0 && sc > 0:
		if ref > cur {
			turn = rate
		} else if ref < cur {
			turn = -rate
		}
	case sr < 0 && sc < 0:
		if math.Abs(ref) < math.Abs(cur) {
			turn = rate
		} else if math.Abs(ref) > math.Abs(cur) {
			turn = -rate
		}
	case sr > 0 && sc < 0:
		turn = rate
	case sr < 0 && sc > 0:
		turn = -rate
	default:
		return cur, &HeadingCorrectionError{Reference: ref, Current: cur}
	}

	return math.NormalizeAngle(cur + turn), nil
}
