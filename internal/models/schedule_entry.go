package models

import (
	"time"

	"github.com/lib/pq"
)

// ScheduleType discriminates the seven schedule partitions.
type ScheduleType string

const (
	TypeLectureBlock   ScheduleType = "KULIAH_BESAR"
	TypePBL            ScheduleType = "PBL"
	TypeJournalReading ScheduleType = "JURNAL_READING"
	TypeCSR            ScheduleType = "CSR"
	TypePracticum      ScheduleType = "PRAKTIKUM"
	TypeSpecialAgenda  ScheduleType = "AGENDA_KHUSUS"
	TypeNonBlockNonCSR ScheduleType = "NON_BLOK_NON_CSR"
)

// AllScheduleTypes lists every partition in canonical order.
var AllScheduleTypes = []ScheduleType{
	TypeLectureBlock,
	TypePBL,
	TypeJournalReading,
	TypeCSR,
	TypePracticum,
	TypeSpecialAgenda,
	TypeNonBlockNonCSR,
}

// Valid reports whether t is one of the known schedule types.
func (t ScheduleType) Valid() bool {
	for _, known := range AllScheduleTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Label returns the user-facing Indonesian name used in conflict messages.
func (t ScheduleType) Label() string {
	switch t {
	case TypeLectureBlock:
		return "Jadwal Kuliah Besar"
	case TypePBL:
		return "Jadwal PBL"
	case TypeJournalReading:
		return "Jadwal Jurnal Reading"
	case TypeCSR:
		return "Jadwal CSR"
	case TypePracticum:
		return "Jadwal Praktikum"
	case TypeSpecialAgenda:
		return "Jadwal Agenda Khusus"
	case TypeNonBlockNonCSR:
		return "Jadwal Non Blok Non CSR"
	default:
		return "Jadwal"
	}
}

// GroupKind classifies the attending student population.
type GroupKind string

const (
	GroupSmall        GroupKind = "KELOMPOK_KECIL"
	GroupSmallInterim GroupKind = "KELOMPOK_KECIL_ANTARA"
	GroupLarge        GroupKind = "KELOMPOK_BESAR"
	GroupNone         GroupKind = ""
)

// SmallScale reports whether the kind draws from a subdivided group whose
// members may also belong to a semester-wide cohort.
func (k GroupKind) SmallScale() bool {
	return k == GroupSmall || k == GroupSmallInterim
}

// ConfirmationStatus tracks the instructor's acknowledgement of a slot.
type ConfirmationStatus string

const (
	StatusUnconfirmed ConfirmationStatus = "UNCONFIRMED"
	StatusConfirmed   ConfirmationStatus = "CONFIRMED"
	StatusDeclined    ConfirmationStatus = "DECLINED"
)

// Valid reports whether s is a known confirmation status.
func (s ConfirmationStatus) Valid() bool {
	return s == StatusUnconfirmed || s == StatusConfirmed || s == StatusDeclined
}

// ScheduleEntry is one scheduled teaching commitment. The seven type variants
// share this shape and differ only in which optional resource fields apply.
type ScheduleEntry struct {
	ID           string         `db:"id" json:"id"`
	ScheduleType ScheduleType   `db:"schedule_type" json:"schedule_type"`
	CourseCode   string         `db:"course_code" json:"course_code"`
	Date         time.Time      `db:"entry_date" json:"date"`
	StartTime    ClockTime      `db:"start_time" json:"start_time"`
	EndTime      ClockTime      `db:"end_time" json:"end_time"`
	SessionCount int            `db:"session_count" json:"session_count"`
	UsesRoom     bool           `db:"uses_room" json:"uses_room"`
	RoomID       *string        `db:"room_id" json:"room_id,omitempty"`
	InstructorID *string        `db:"instructor_id" json:"instructor_id,omitempty"`
	// InstructorIDs is populated instead of InstructorID for multi-instructor
	// types (practicum); never both at once.
	InstructorIDs pq.StringArray     `db:"instructor_ids" json:"instructor_ids,omitempty"`
	GroupKind     GroupKind          `db:"group_kind" json:"group_kind,omitempty"`
	GroupID       *string            `db:"group_id" json:"group_id,omitempty"`
	Status        ConfirmationStatus `db:"status_confirmation" json:"status_confirmation"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}

// Instructors collapses the single/multi instructor representations into one
// slice for comparison.
func (e *ScheduleEntry) Instructors() []string {
	if e.InstructorID != nil && *e.InstructorID != "" {
		return []string{*e.InstructorID}
	}
	return []string(e.InstructorIDs)
}

// SharedInstructor returns the first instructor both entries reference.
func (e *ScheduleEntry) SharedInstructor(other *ScheduleEntry) (string, bool) {
	mine := e.Instructors()
	if len(mine) == 0 {
		return "", false
	}
	seen := make(map[string]struct{}, len(mine))
	for _, id := range mine {
		seen[id] = struct{}{}
	}
	for _, id := range other.Instructors() {
		if _, ok := seen[id]; ok {
			return id, true
		}
	}
	return "", false
}

// SharesInstructor reports whether both entries reference at least one common
// instructor.
func (e *ScheduleEntry) SharesInstructor(other *ScheduleEntry) bool {
	_, ok := e.SharedInstructor(other)
	return ok
}

// SharesRoom reports whether both entries occupy the same physical room.
// Entries without a room are exempt from room contention.
func (e *ScheduleEntry) SharesRoom(other *ScheduleEntry) bool {
	if !e.UsesRoom || !other.UsesRoom {
		return false
	}
	if e.RoomID == nil || other.RoomID == nil {
		return false
	}
	return *e.RoomID == *other.RoomID
}

// DateKey renders the date in the storage form used for lock keys.
func (e *ScheduleEntry) DateKey() string {
	return e.Date.Format("2006-01-02")
}

// DisplayDate renders the Indonesian DD/MM/YYYY form used in messages.
func (e *ScheduleEntry) DisplayDate() string {
	return e.Date.Format("02/01/2006")
}

// ScheduleEntryFilter describes list query parameters.
type ScheduleEntryFilter struct {
	ScheduleType ScheduleType
	CourseCode   string
	DateFrom     *time.Time
	DateTo       *time.Time
	RoomID       string
	InstructorID string
	GroupID      string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
