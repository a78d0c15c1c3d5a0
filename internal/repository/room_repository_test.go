package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/med-schedule-api/internal/models"
)

func TestRoomRepositoryFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, name, capacity, created_at, updated_at FROM rooms WHERE id = \$1`).
		WithArgs("room-a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "created_at", "updated_at"}).
			AddRow("room-a", "Ruang Kuliah A", 60, now, now))

	room, err := repo.FindByID(context.Background(), "room-a")
	require.NoError(t, err)
	assert.Equal(t, "Ruang Kuliah A", room.Name)
	assert.Equal(t, 60, room.Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryFindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	mock.ExpectQuery(`SELECT id, name, capacity, created_at, updated_at FROM rooms WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryListWithMinCapacity(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, name, capacity, created_at, updated_at FROM rooms WHERE 1=1 AND capacity >= \$1 ORDER BY name ASC LIMIT 20 OFFSET 0`).
		WithArgs(40).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "created_at", "updated_at"}).
			AddRow("room-a", "Ruang Kuliah A", 60, now, now))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM rooms WHERE 1=1 AND capacity >= \$1`).
		WithArgs(40).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rooms, total, err := repo.List(context.Background(), models.RoomFilter{MinCapacity: 40})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
