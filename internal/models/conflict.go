package models

import (
	"fmt"
	"strings"
	"time"
)

// ConflictReason tags the resource dimension that collided.
type ConflictReason string

const (
	ReasonRoom         ConflictReason = "ROOM"
	ReasonInstructor   ConflictReason = "INSTRUCTOR"
	ReasonStudentGroup ConflictReason = "STUDENT_GROUP"
)

func (r ConflictReason) label() string {
	switch r {
	case ReasonRoom:
		return "Ruangan"
	case ReasonInstructor:
		return "Dosen"
	case ReasonStudentGroup:
		return "Kelompok"
	default:
		return string(r)
	}
}

// ConflictReport describes the first existing entry that collides with a
// candidate. Only one conflict is reported per validation pass.
type ConflictReport struct {
	ConflictingType ScheduleType     `json:"conflicting_type"`
	EntryID         string           `json:"entry_id"`
	Date            time.Time        `json:"date"`
	StartTime       ClockTime        `json:"start_time"`
	EndTime         ClockTime        `json:"end_time"`
	Reasons         []ConflictReason `json:"reasons"`
	// ResourceNames maps each reason to the display name of the colliding
	// resource, when the caller resolved one.
	ResourceNames map[ConflictReason]string `json:"resource_names,omitempty"`
}

// Message builds the user-facing Indonesian rejection string, e.g.
// "Jadwal bentrok dengan Jadwal PBL pada tanggal 12/05/2025 jam 08.00-10.00 (Dosen: dr. Sari)".
func (r *ConflictReport) Message() string {
	var details []string
	for _, reason := range r.Reasons {
		if name, ok := r.ResourceNames[reason]; ok && name != "" {
			details = append(details, fmt.Sprintf("%s: %s", reason.label(), name))
		} else {
			details = append(details, reason.label())
		}
	}
	msg := fmt.Sprintf("Jadwal bentrok dengan %s pada tanggal %s jam %s-%s",
		r.ConflictingType.Label(),
		r.Date.Format("02/01/2006"),
		r.StartTime,
		r.EndTime,
	)
	if len(details) > 0 {
		msg += fmt.Sprintf(" (%s)", strings.Join(details, ", "))
	}
	return msg
}

// HasReason reports whether the given dimension collided.
func (r *ConflictReport) HasReason(reason ConflictReason) bool {
	for _, got := range r.Reasons {
		if got == reason {
			return true
		}
	}
	return false
}

// ConflictError carries a ConflictReport through the error chain.
type ConflictError struct {
	Report ConflictReport
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Report.Message()
}

// CapacityError reports a room too small for the required headcount.
type CapacityError struct {
	RoomName     string `json:"room_name"`
	RoomCapacity int    `json:"room_capacity"`
	Required     int    `json:"required"`
}

// Error implements the error interface with the Indonesian user message.
func (e *CapacityError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Kapasitas ruangan %s tidak mencukupi (kapasitas %d, dibutuhkan %d)",
		e.RoomName, e.RoomCapacity, e.Required)
}
