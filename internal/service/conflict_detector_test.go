package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/med-schedule-api/internal/models"
)

type entrySourceStub struct {
	entries []models.ScheduleEntry
}

func (s *entrySourceStub) FindByDateAndType(_ context.Context, _ sqlx.ExtContext, date time.Time, scheduleType models.ScheduleType) ([]models.ScheduleEntry, error) {
	var out []models.ScheduleEntry
	for _, entry := range s.entries {
		if entry.ScheduleType == scheduleType && entry.Date.Equal(date) {
			out = append(out, entry)
		}
	}
	return out, nil
}

var testDate = time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)

func existingEntry(id string, scheduleType models.ScheduleType, start, end models.ClockTime) models.ScheduleEntry {
	return models.ScheduleEntry{
		ID:           id,
		ScheduleType: scheduleType,
		Date:         testDate,
		StartTime:    start,
		EndTime:      end,
		UsesRoom:     true,
		RoomID:       strPtr("room-a"),
		InstructorID: strPtr("dosen-1"),
		GroupKind:    models.GroupSmall,
		GroupID:      strPtr("kk-1"),
	}
}

func candidateEntry(scheduleType models.ScheduleType, start, end models.ClockTime) *models.ScheduleEntry {
	return &models.ScheduleEntry{
		ScheduleType: scheduleType,
		Date:         testDate,
		StartTime:    start,
		EndTime:      end,
		UsesRoom:     true,
		RoomID:       strPtr("room-a"),
		InstructorID: strPtr("dosen-2"),
		GroupKind:    models.GroupSmall,
		GroupID:      strPtr("kk-2"),
	}
}

func detectorFixture(entries ...models.ScheduleEntry) (*ConflictDetector, *groupCatalogStub) {
	groups := &groupCatalogStub{
		groups:  map[string]*models.StudentGroup{},
		members: map[string][]string{},
	}
	return NewConflictDetector(&entrySourceStub{entries: entries}, groups, nil), groups
}

func TestConflictDetectorRoomAcrossTypes(t *testing.T) {
	d, _ := detectorFixture(existingEntry("e1", models.TypePBL, 480, 600))

	report, err := d.FindConflict(context.Background(), nil, candidateEntry(models.TypeCSR, 540, 660), "")
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, models.TypePBL, report.ConflictingType)
	assert.True(t, report.HasReason(models.ReasonRoom))
	assert.False(t, report.HasReason(models.ReasonInstructor))
	assert.Contains(t, report.Message(), "Jadwal bentrok dengan Jadwal PBL pada tanggal 12/05/2025 jam 08.00-10.00")
}

func TestConflictDetectorTouchingBoundaryIsClear(t *testing.T) {
	d, _ := detectorFixture(existingEntry("e1", models.TypePBL, 480, 600))

	report, err := d.FindConflict(context.Background(), nil, candidateEntry(models.TypeCSR, 600, 720), "")
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestConflictDetectorInstructorAcrossRooms(t *testing.T) {
	d, _ := detectorFixture(existingEntry("e1", models.TypeJournalReading, 480, 600))

	candidate := candidateEntry(models.TypeCSR, 480, 600)
	candidate.RoomID = strPtr("room-b")
	candidate.InstructorID = strPtr("dosen-1")

	report, err := d.FindConflict(context.Background(), nil, candidate, "")
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.True(t, report.HasReason(models.ReasonInstructor))
	assert.False(t, report.HasReason(models.ReasonRoom))
	assert.Contains(t, report.Message(), "Dosen")
}

func TestConflictDetectorLectureBlockPracticumComparesRoomOnly(t *testing.T) {
	existing := existingEntry("e1", models.TypePracticum, 480, 600)
	existing.InstructorID = nil
	existing.InstructorIDs = []string{"dosen-1"}
	d, _ := detectorFixture(existing)

	// Shared instructor, different room: the pair rule ignores instructors.
	candidate := candidateEntry(models.TypeLectureBlock, 480, 600)
	candidate.RoomID = strPtr("room-b")
	candidate.InstructorID = strPtr("dosen-1")
	candidate.GroupID = strPtr("kk-1")

	report, err := d.FindConflict(context.Background(), nil, candidate, "")
	require.NoError(t, err)
	assert.Nil(t, report)

	// Same room still contends.
	candidate.RoomID = strPtr("room-a")
	report, err = d.FindConflict(context.Background(), nil, candidate, "")
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, []models.ConflictReason{models.ReasonRoom}, report.Reasons)
}

func TestConflictDetectorSmallGroupAgainstCohort(t *testing.T) {
	existing := existingEntry("e1", models.TypeLectureBlock, 480, 600)
	existing.RoomID = strPtr("room-b")
	existing.GroupKind = models.GroupLarge
	existing.GroupID = strPtr("kb-1")
	d, groups := detectorFixture(existing)
	groups.members["kk-2"] = []string{"mhs-1", "mhs-2"}
	groups.members["kb-1"] = []string{"mhs-2", "mhs-3", "mhs-4"}

	report, err := d.FindConflict(context.Background(), nil, candidateEntry(models.TypePBL, 480, 600), "")
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.True(t, report.HasReason(models.ReasonStudentGroup))

	// Disjoint rosters do not contend even with the same kinds.
	groups.members["kk-2"] = []string{"mhs-9"}
	report, err = d.FindConflict(context.Background(), nil, candidateEntry(models.TypePBL, 480, 600), "")
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestConflictDetectorTwoSmallGroupsNeverIntersect(t *testing.T) {
	existing := existingEntry("e1", models.TypePBL, 480, 600)
	existing.RoomID = strPtr("room-b")
	existing.InstructorID = strPtr("dosen-9")
	d, groups := detectorFixture(existing)
	// Overlapping rosters, but both kinds are small scale; only identical ids
	// contend.
	groups.members["kk-1"] = []string{"mhs-1"}
	groups.members["kk-2"] = []string{"mhs-1"}

	report, err := d.FindConflict(context.Background(), nil, candidateEntry(models.TypePBL, 480, 600), "")
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestConflictDetectorExcludesOwnRecordOnUpdate(t *testing.T) {
	d, _ := detectorFixture(existingEntry("e1", models.TypeCSR, 480, 600))

	candidate := candidateEntry(models.TypeCSR, 480, 600)
	candidate.InstructorID = strPtr("dosen-1")
	candidate.GroupID = strPtr("kk-1")

	report, err := d.FindConflict(context.Background(), nil, candidate, "e1")
	require.NoError(t, err)
	assert.Nil(t, report)

	report, err = d.FindConflict(context.Background(), nil, candidate, "")
	require.NoError(t, err)
	assert.NotNil(t, report)
}

func TestConflictDetectorOwnPartitionScansFirst(t *testing.T) {
	d, _ := detectorFixture(
		existingEntry("lecture", models.TypeLectureBlock, 480, 600),
		existingEntry("journal", models.TypeJournalReading, 480, 600),
	)

	// Candidate's own partition comes first even though kuliah besar leads the
	// cross-partition priority.
	report, err := d.FindConflict(context.Background(), nil, candidateEntry(models.TypeJournalReading, 480, 600), "")
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "journal", report.EntryID)

	// Without an own-partition hit the fixed priority picks kuliah besar over
	// jurnal reading.
	report, err = d.FindConflict(context.Background(), nil, candidateEntry(models.TypeCSR, 480, 600), "")
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "lecture", report.EntryID)
}
