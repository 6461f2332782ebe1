package models

// ConflictKind is the closed set of conflict classifications produced by
// generation and preview. Hard kinds involve another occurrence; soft kinds
// are availability mismatches.
type ConflictKind string

const (
	ConflictBoothBooked      ConflictKind = "BOOTH_CONFLICT"
	ConflictTeacherBooked    ConflictKind = "TEACHER_CONFLICT"
	ConflictStudentBooked    ConflictKind = "STUDENT_CONFLICT"
	ConflictTeacherUnavail   ConflictKind = "TEACHER_UNAVAILABLE"
	ConflictStudentUnavail   ConflictKind = "STUDENT_UNAVAILABLE"
	ConflictTeacherWrongTime ConflictKind = "TEACHER_WRONG_TIME"
	ConflictStudentWrongTime ConflictKind = "STUDENT_WRONG_TIME"
	ConflictNoSharedWindow   ConflictKind = "NO_SHARED_AVAILABILITY"
	ConflictKindUnavailable  ConflictKind = "UNAVAILABLE"
	ConflictKindWrongTime    ConflictKind = "WRONG_TIME"
)

// IsHard reports whether the kind is a double-booking against another occurrence.
func (k ConflictKind) IsHard() bool {
	switch k {
	case ConflictBoothBooked, ConflictTeacherBooked, ConflictStudentBooked:
		return true
	}
	return false
}

// IsSoft reports whether the kind is an availability mismatch.
func (k ConflictKind) IsSoft() bool {
	switch k {
	case ConflictTeacherUnavail, ConflictStudentUnavail,
		ConflictTeacherWrongTime, ConflictStudentWrongTime:
		return true
	}
	return false
}

// Informational reports whether the kind never affects occurrence state.
func (k ConflictKind) Informational() bool {
	return k == ConflictNoSharedWindow
}
