package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/med-schedule-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	t.Cleanup(func() { sqlxDB.Close() })
	return sqlxDB, mock
}

var entryColumns = []string{
	"id", "schedule_type", "course_code", "entry_date", "start_time", "end_time",
	"session_count", "uses_room", "room_id", "instructor_id", "instructor_ids",
	"group_kind", "group_id", "status_confirmation", "created_at", "updated_at",
}

func entryRow(id string, scheduleType models.ScheduleType, start, end string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(entryColumns).AddRow(
		id, scheduleType, "MKB-101", time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC),
		start, end, 1, true, "room-a", "dosen-1", nil,
		models.GroupSmall, "kk-1", models.StatusUnconfirmed, now, now,
	)
}

func TestScheduleEntryRepositoryFindByDateAndType(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleEntryRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM schedule_entries WHERE entry_date = \$1 AND schedule_type = \$2 ORDER BY start_time ASC`).
		WithArgs("2025-05-12", models.TypePBL).
		WillReturnRows(entryRow("entry-1", models.TypePBL, "08:00:00", "10:00:00"))

	date := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	entries, err := repo.FindByDateAndType(context.Background(), nil, date, models.TypePBL)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "entry-1", entries[0].ID)
	assert.Equal(t, "08.00", entries[0].StartTime.String())
	assert.Equal(t, "10.00", entries[0].EndTime.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryInsertAssignsDefaults(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleEntryRepository(db)

	mock.ExpectExec(`INSERT INTO schedule_entries`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	roomID := "room-a"
	instructorID := "dosen-1"
	groupID := "kk-1"
	entry := &models.ScheduleEntry{
		ScheduleType: models.TypePBL,
		CourseCode:   "MKB-101",
		Date:         time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC),
		StartTime:    480,
		EndTime:      600,
		SessionCount: 1,
		UsesRoom:     true,
		RoomID:       &roomID,
		InstructorID: &instructorID,
		GroupKind:    models.GroupSmall,
		GroupID:      &groupID,
	}
	require.NoError(t, repo.Insert(context.Background(), nil, entry))

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, models.StatusUnconfirmed, entry.Status)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleEntryRepository(db)

	mock.ExpectExec(`UPDATE schedule_entries SET status_confirmation = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(models.StatusConfirmed, sqlmock.AnyArg(), "entry-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "entry-1", models.StatusConfirmed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleEntryRepository(db)

	mock.ExpectExec(`DELETE FROM schedule_entries WHERE id = \$1`).
		WithArgs("entry-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "entry-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryListFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleEntryRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM schedule_entries WHERE 1=1 AND schedule_type = \$1 AND room_id = \$2 ORDER BY entry_date ASC, start_time ASC LIMIT 20 OFFSET 0`).
		WithArgs(models.TypePBL, "room-a").
		WillReturnRows(entryRow("entry-1", models.TypePBL, "08:00:00", "10:00:00"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM schedule_entries WHERE 1=1 AND schedule_type = \$1 AND room_id = \$2`).
		WithArgs(models.TypePBL, "room-a").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	entries, total, err := repo.List(context.Background(), models.ScheduleEntryFilter{
		ScheduleType: models.TypePBL,
		RoomID:       "room-a",
	})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryInTxAcquiresAdvisoryLocks(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`).
		WithArgs("instructor:dosen-1:2025-05-12").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`).
		WithArgs("room:room-a:2025-05-12").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM schedule_entries WHERE entry_date = \$1 AND schedule_type = \$2`).
		WithArgs("2025-05-12", models.TypePBL).
		WillReturnRows(sqlmock.NewRows(entryColumns))
	mock.ExpectCommit()

	keys := []string{"instructor:dosen-1:2025-05-12", "room:room-a:2025-05-12"}
	err := repo.InTx(context.Background(), keys, func(tx *sqlx.Tx) error {
		date := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
		entries, err := repo.FindByDateAndType(context.Background(), tx, date, models.TypePBL)
		if err != nil {
			return err
		}
		assert.Empty(t, entries)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryInTxRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`).
		WithArgs("room:room-a:2025-05-12").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	sentinel := errors.New("conflict")
	err := repo.InTx(context.Background(), []string{"room:room-a:2025-05-12"}, func(tx *sqlx.Tx) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.NoError(t, mock.ExpectationsWereMet())
}
