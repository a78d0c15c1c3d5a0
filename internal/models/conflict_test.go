package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConflictReportMessage(t *testing.T) {
	report := &ConflictReport{
		ConflictingType: TypePBL,
		Date:            time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC),
		StartTime:       480,
		EndTime:         600,
		Reasons:         []ConflictReason{ReasonRoom, ReasonInstructor},
		ResourceNames: map[ConflictReason]string{
			ReasonRoom: "Ruang Kuliah A",
		},
	}

	assert.Equal(t,
		"Jadwal bentrok dengan Jadwal PBL pada tanggal 12/05/2025 jam 08.00-10.00 (Ruangan: Ruang Kuliah A, Dosen)",
		report.Message(),
	)
}

func TestConflictReportMessageWithoutDetails(t *testing.T) {
	report := &ConflictReport{
		ConflictingType: TypeSpecialAgenda,
		Date:            time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		StartTime:       600,
		EndTime:         660,
	}

	assert.Equal(t,
		"Jadwal bentrok dengan Jadwal Agenda Khusus pada tanggal 01/12/2025 jam 10.00-11.00",
		report.Message(),
	)
}

func TestCapacityErrorMessage(t *testing.T) {
	err := &CapacityError{RoomName: "Ruang Tutorial 3", RoomCapacity: 5, Required: 11}
	assert.Equal(t, "Kapasitas ruangan Ruang Tutorial 3 tidak mencukupi (kapasitas 5, dibutuhkan 11)", err.Error())
}

func TestSharesInstructorAcrossRepresentations(t *testing.T) {
	single := "dosen-1"
	a := &ScheduleEntry{InstructorID: &single}
	b := &ScheduleEntry{InstructorIDs: []string{"dosen-2", "dosen-1"}}

	assert.True(t, a.SharesInstructor(b))
	assert.True(t, b.SharesInstructor(a))

	c := &ScheduleEntry{InstructorIDs: []string{"dosen-3"}}
	assert.False(t, a.SharesInstructor(c))

	none := &ScheduleEntry{}
	assert.False(t, none.SharesInstructor(a))
}

func TestSharesRoomRequiresOccupancy(t *testing.T) {
	room := "room-a"
	a := &ScheduleEntry{UsesRoom: true, RoomID: &room}
	b := &ScheduleEntry{UsesRoom: true, RoomID: &room}
	assert.True(t, a.SharesRoom(b))

	// Agenda khusus referencing the room without occupying it is exempt.
	b.UsesRoom = false
	assert.False(t, a.SharesRoom(b))
}
