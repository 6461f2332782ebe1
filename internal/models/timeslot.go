package models

import (
	"fmt"
	"sort"
)

// MinutesPerDay bounds minute-of-day values; a full-day slot ends at 23:59.
const MinutesPerDay = 24 * 60

// TimeSlot is a half-open wall-clock interval expressed in minutes since
// midnight. Two slots overlap iff bStart < aEnd && bEnd > aStart.
type TimeSlot struct {
	StartMin int `db:"start_min" json:"start_min"`
	EndMin   int `db:"end_min" json:"end_min"`
}

// FullDaySlot covers an entire calendar day (00:00–23:59).
func FullDaySlot() TimeSlot {
	return TimeSlot{StartMin: 0, EndMin: MinutesPerDay - 1}
}

// Overlaps reports whether the two slots share any time.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return other.StartMin < s.EndMin && other.EndMin > s.StartMin
}

// Contains reports whether the slot fully covers the other slot.
func (s TimeSlot) Contains(other TimeSlot) bool {
	return s.StartMin <= other.StartMin && s.EndMin >= other.EndMin
}

// IsZero reports whether the slot is the empty value.
func (s TimeSlot) IsZero() bool {
	return s.StartMin == 0 && s.EndMin == 0
}

// String renders the slot as HH:MM-HH:MM.
func (s TimeSlot) String() string {
	return fmt.Sprintf("%s-%s", FormatClock(s.StartMin), FormatClock(s.EndMin))
}

// MergeSlots sorts the slots by start and coalesces overlapping or touching
// intervals into a minimal ordered set.
func MergeSlots(slots []TimeSlot) []TimeSlot {
	if len(slots) == 0 {
		return nil
	}
	sorted := make([]TimeSlot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartMin == sorted[j].StartMin {
			return sorted[i].EndMin < sorted[j].EndMin
		}
		return sorted[i].StartMin < sorted[j].StartMin
	})

	merged := []TimeSlot{sorted[0]}
	for _, slot := range sorted[1:] {
		last := &merged[len(merged)-1]
		if slot.StartMin <= last.EndMin {
			if slot.EndMin > last.EndMin {
				last.EndMin = slot.EndMin
			}
			continue
		}
		merged = append(merged, slot)
	}
	return merged
}

// IntersectSlots returns the pairwise intersection of two slot sets, merged.
func IntersectSlots(a, b []TimeSlot) []TimeSlot {
	var result []TimeSlot
	for _, x := range a {
		for _, y := range b {
			start := x.StartMin
			if y.StartMin > start {
				start = y.StartMin
			}
			end := x.EndMin
			if y.EndMin < end {
				end = y.EndMin
			}
			if start < end {
				result = append(result, TimeSlot{StartMin: start, EndMin: end})
			}
		}
	}
	return MergeSlots(result)
}

// SubtractSlots removes the remove intervals from the base intervals,
// trimming or splitting base slots where they overlap.
func SubtractSlots(base, remove []TimeSlot) []TimeSlot {
	if len(base) == 0 {
		return nil
	}
	cuts := MergeSlots(remove)
	current := make([]TimeSlot, len(base))
	copy(current, base)

	for _, cut := range cuts {
		next := make([]TimeSlot, 0, len(current))
		for _, slot := range current {
			switch {
			case !slot.Overlaps(cut):
				next = append(next, slot)
			case cut.StartMin <= slot.StartMin && cut.EndMin >= slot.EndMin:
				// fully covered, drop
			case cut.StartMin > slot.StartMin && cut.EndMin < slot.EndMin:
				next = append(next,
					TimeSlot{StartMin: slot.StartMin, EndMin: cut.StartMin},
					TimeSlot{StartMin: cut.EndMin, EndMin: slot.EndMin},
				)
			case cut.StartMin <= slot.StartMin:
				next = append(next, TimeSlot{StartMin: cut.EndMin, EndMin: slot.EndMin})
			default:
				next = append(next, TimeSlot{StartMin: slot.StartMin, EndMin: cut.StartMin})
			}
		}
		current = next
	}
	return MergeSlots(current)
}

// AnyContains reports whether any slot in the set fully covers the window.
func AnyContains(slots []TimeSlot, window TimeSlot) bool {
	for _, slot := range slots {
		if slot.Contains(window) {
			return true
		}
	}
	return false
}

// ParseClock converts an HH:MM string into minutes since midnight.
func ParseClock(raw string) (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(raw, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock %q out of range", raw)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
