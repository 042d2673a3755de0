package utils

import (
	"fmt"
	"time"
)

var shiftTimeLayouts = []string{"15:04", "15:04:05"}

// NormalizeShiftTime parses a wall-clock time such as "18:00", "9:30" or
// "18:00:00" and returns it zero-padded as HH:MM, keeping seconds only when they
// are not zero. Stored times sort as text, so every writer goes through here.
func NormalizeShiftTime(field, s string) (string, error) {
	for _, layout := range shiftTimeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Second() != 0 {
			return t.Format("15:04:05"), nil
		}
		return t.Format("15:04"), nil
	}
	return "", fmt.Errorf("Invalid %s (expected HH:MM)", field)
}

// NormalizeShiftTimes normalizes both ends of a shift. The end may be earlier
// than the start: that is an overnight shift, e.g. 18:00-02:00.
func NormalizeShiftTimes(startTime, endTime string) (string, string, error) {
	start, err := NormalizeShiftTime("startTime", startTime)
	if err != nil {
		return "", "", err
	}
	end, err := NormalizeShiftTime("endTime", endTime)
	if err != nil {
		return "", "", err
	}
	return start, end, nil
}
