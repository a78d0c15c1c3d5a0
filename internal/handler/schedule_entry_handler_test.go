package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/med-schedule-api/internal/models"
	"github.com/noah-isme/med-schedule-api/internal/service"
)

type memEntryRepo struct {
	mu      sync.Mutex
	entries map[string]*models.ScheduleEntry
	nextID  int
}

func (s *memEntryRepo) FindByDateAndType(_ context.Context, _ sqlx.ExtContext, date time.Time, scheduleType models.ScheduleType) ([]models.ScheduleEntry, error) {
	var out []models.ScheduleEntry
	for _, entry := range s.entries {
		if entry.ScheduleType == scheduleType && entry.Date.Equal(date) {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (s *memEntryRepo) List(_ context.Context, _ models.ScheduleEntryFilter) ([]models.ScheduleEntry, int, error) {
	out := make([]models.ScheduleEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, *entry)
	}
	return out, len(out), nil
}

func (s *memEntryRepo) FindByID(_ context.Context, id string) (*models.ScheduleEntry, error) {
	if entry, ok := s.entries[id]; ok {
		clone := *entry
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *memEntryRepo) Insert(_ context.Context, _ sqlx.ExtContext, entry *models.ScheduleEntry) error {
	s.nextID++
	entry.ID = fmt.Sprintf("entry-%d", s.nextID)
	clone := *entry
	s.entries[entry.ID] = &clone
	return nil
}

func (s *memEntryRepo) Update(_ context.Context, _ sqlx.ExtContext, entry *models.ScheduleEntry) error {
	clone := *entry
	s.entries[entry.ID] = &clone
	return nil
}

func (s *memEntryRepo) UpdateStatus(_ context.Context, id string, status models.ConfirmationStatus) error {
	entry, ok := s.entries[id]
	if !ok {
		return sql.ErrNoRows
	}
	entry.Status = status
	return nil
}

func (s *memEntryRepo) Delete(_ context.Context, id string) error {
	delete(s.entries, id)
	return nil
}

func (s *memEntryRepo) InTx(_ context.Context, _ []string, fn func(tx *sqlx.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(nil)
}

type memRooms struct{ rooms map[string]*models.Room }

func (s *memRooms) FindByID(_ context.Context, id string) (*models.Room, error) {
	if room, ok := s.rooms[id]; ok {
		return room, nil
	}
	return nil, sql.ErrNoRows
}

type memInstructors struct{}

func (s *memInstructors) Exists(_ context.Context, _ string) (bool, error) { return true, nil }

func (s *memInstructors) FindByID(_ context.Context, id string) (*models.Instructor, error) {
	return &models.Instructor{ID: id, Name: "dr. " + id, Active: true}, nil
}

func (s *memInstructors) ListByIDs(_ context.Context, ids []string) ([]models.Instructor, error) {
	out := make([]models.Instructor, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Instructor{ID: id, Name: "dr. " + id, Active: true})
	}
	return out, nil
}

type memGroups struct{ groups map[string]*models.StudentGroup }

func (s *memGroups) FindByID(_ context.Context, id string) (*models.StudentGroup, error) {
	if group, ok := s.groups[id]; ok {
		return group, nil
	}
	return nil, sql.ErrNoRows
}

func (s *memGroups) ListMembers(_ context.Context, _ string) ([]string, error) { return nil, nil }

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"error"`
}

func newTestRouter() (*gin.Engine, *memEntryRepo) {
	gin.SetMode(gin.TestMode)

	repo := &memEntryRepo{entries: map[string]*models.ScheduleEntry{}}
	rooms := &memRooms{rooms: map[string]*models.Room{
		"room-a": {ID: "room-a", Name: "Ruang Kuliah A", Capacity: 40},
	}}
	groups := &memGroups{groups: map[string]*models.StudentGroup{
		"kk-1": {ID: "kk-1", Kind: models.GroupSmall, Name: "Kelompok 1", MemberCount: 10},
		"kk-2": {ID: "kk-2", Kind: models.GroupSmall, Name: "Kelompok 2", MemberCount: 10},
	}}

	svc := service.NewSchedulingService(repo, rooms, &memInstructors{}, groups, nil, nil, nil)
	h := NewScheduleEntryHandler(svc)

	r := gin.New()
	r.GET("/schedules/:id", h.Get)
	r.POST("/schedules", h.Create)
	r.PUT("/schedules/:id", h.Update)
	r.PATCH("/schedules/:id/confirmation", h.ConfirmStatus)
	r.DELETE("/schedules/:id", h.Delete)
	return r, repo
}

func postJSON(r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createPayload() map[string]interface{} {
	return map[string]interface{}{
		"schedule_type": "PBL",
		"course_code":   "MKB-101",
		"date":          "2025-05-12",
		"start_time":    "08.00",
		"end_time":      "10.00",
		"room_id":       "room-a",
		"instructor_id": "dosen-1",
		"group_kind":    "KELOMPOK_KECIL",
		"group_id":      "kk-1",
	}
}

func TestCreateScheduleEntryEndpoint(t *testing.T) {
	r, repo := newTestRouter()

	w := postJSON(r, http.MethodPost, "/schedules", createPayload())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Nil(t, resp.Error)

	var entry models.ScheduleEntry
	require.NoError(t, json.Unmarshal(resp.Data, &entry))
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, models.StatusUnconfirmed, entry.Status)
	assert.Len(t, repo.entries, 1)
}

func TestCreateConflictReturns422Envelope(t *testing.T) {
	r, _ := newTestRouter()

	w := postJSON(r, http.MethodPost, "/schedules", createPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	second := createPayload()
	second["schedule_type"] = "CSR"
	second["instructor_id"] = "dosen-2"
	second["group_id"] = "kk-2"

	w = postJSON(r, http.MethodPost, "/schedules", second)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SCHEDULE_CONFLICT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Jadwal bentrok dengan Jadwal PBL")
	assert.Contains(t, resp.Error.Message, "Ruang Kuliah A")
}

func TestGetScheduleEntryNotFound(t *testing.T) {
	r, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/schedules/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestConfirmStatusEndpoint(t *testing.T) {
	r, repo := newTestRouter()

	w := postJSON(r, http.MethodPost, "/schedules", createPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	var created envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	var entry models.ScheduleEntry
	require.NoError(t, json.Unmarshal(created.Data, &entry))

	w = postJSON(r, http.MethodPatch, "/schedules/"+entry.ID+"/confirmation", map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusConfirmed, repo.entries[entry.ID].Status)

	w = postJSON(r, http.MethodPatch, "/schedules/"+entry.ID+"/confirmation", map[string]string{"status": "MAYBE"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteScheduleEntryEndpoint(t *testing.T) {
	r, repo := newTestRouter()

	w := postJSON(r, http.MethodPost, "/schedules", createPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	var created envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	var entry models.ScheduleEntry
	require.NoError(t, json.Unmarshal(created.Data, &entry))

	req := httptest.NewRequest(http.MethodDelete, "/schedules/"+entry.ID, nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)

	require.Equal(t, http.StatusNoContent, w2.Code)
	assert.Empty(t, repo.entries)
}
