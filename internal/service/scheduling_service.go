package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/med-schedule-api/internal/models"
	appErrors "github.com/noah-isme/med-schedule-api/pkg/errors"
)

type scheduleEntryRepository interface {
	conflictEntrySource
	List(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntry, int, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	Insert(ctx context.Context, exec sqlx.ExtContext, entry *models.ScheduleEntry) error
	Update(ctx context.Context, exec sqlx.ExtContext, entry *models.ScheduleEntry) error
	UpdateStatus(ctx context.Context, id string, status models.ConfirmationStatus) error
	Delete(ctx context.Context, id string) error
	InTx(ctx context.Context, lockKeys []string, fn func(tx *sqlx.Tx) error) error
}

type instructorCatalog interface {
	Exists(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Instructor, error)
}

// ScheduleEntryRequest is the payload for creating or replacing an entry.
// Times accept both "08:00" and the legacy "08.00" form.
type ScheduleEntryRequest struct {
	ScheduleType  string   `json:"schedule_type" validate:"required"`
	CourseCode    string   `json:"course_code"`
	Date          string   `json:"date" validate:"required"`
	StartTime     string   `json:"start_time" validate:"required"`
	EndTime       string   `json:"end_time" validate:"required"`
	SessionCount  int      `json:"session_count" validate:"omitempty,min=1,max=6"`
	UsesRoom      *bool    `json:"uses_room"`
	RoomID        *string  `json:"room_id"`
	InstructorID  *string  `json:"instructor_id"`
	InstructorIDs []string `json:"instructor_ids"`
	GroupKind     string   `json:"group_kind"`
	GroupID       *string  `json:"group_id"`
}

// SchedulingService is the validation gate every schedule mutation passes
// through: capacity first, then conflict detection, then the write — the
// latter two inside one advisory-locked transaction so concurrent
// submissions for the same resources cannot both pass.
type SchedulingService struct {
	entries     scheduleEntryRepository
	rooms       roomCatalog
	instructors instructorCatalog
	groups      groupCatalog
	capacity    *CapacityValidator
	detector    *ConflictDetector
	validator   *validator.Validate
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewSchedulingService instantiates the scheduling facade.
func NewSchedulingService(
	entries scheduleEntryRepository,
	rooms roomCatalog,
	instructors instructorCatalog,
	groups groupCatalog,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *SchedulingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulingService{
		entries:     entries,
		rooms:       rooms,
		instructors: instructors,
		groups:      groups,
		capacity:    NewCapacityValidator(rooms, groups),
		detector:    NewConflictDetector(entries, groups, logger),
		validator:   validate,
		metrics:     metrics,
		logger:      logger,
	}
}

// List returns entries with pagination metadata.
func (s *SchedulingService) List(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntry, *models.Pagination, error) {
	entries, total, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule entries")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one entry.
func (s *SchedulingService) Get(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "jadwal tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}
	return entry, nil
}

// SubmitCreate validates and persists a new entry.
func (s *SchedulingService) SubmitCreate(ctx context.Context, req ScheduleEntryRequest) (*models.ScheduleEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	entry, err := s.buildEntry(req)
	if err != nil {
		return nil, err
	}
	if err := s.submit(ctx, entry, ""); err != nil {
		return nil, err
	}
	return entry, nil
}

// SubmitUpdate validates a full replacement of an existing entry, excluding
// the entry's own prior record from conflict comparison.
func (s *SchedulingService) SubmitUpdate(ctx context.Context, id string, req ScheduleEntryRequest) (*models.ScheduleEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	entry, err := s.buildEntry(req)
	if err != nil {
		return nil, err
	}
	entry.ID = existing.ID
	entry.CreatedAt = existing.CreatedAt
	entry.Status = existing.Status

	if err := s.submit(ctx, entry, existing.ID); err != nil {
		return nil, err
	}
	return entry, nil
}

// ConfirmStatus records the instructor's acknowledgement. No conflict
// re-check: the slot itself is unchanged.
func (s *SchedulingService) ConfirmStatus(ctx context.Context, id string, status models.ConfirmationStatus) (*models.ScheduleEntry, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status konfirmasi tidak dikenal")
	}
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.entries.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update confirmation status")
	}
	entry.Status = status
	return entry, nil
}

// Delete removes an entry. Deletions need no conflict re-check.
func (s *SchedulingService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule entry")
	}
	return nil
}

// submit runs the validation gate and persists. Capacity fails fast before
// any conflict scan; the conflict check and the write share one transaction
// holding advisory locks on every resource the entry touches.
func (s *SchedulingService) submit(ctx context.Context, entry *models.ScheduleEntry, excludeID string) error {
	if err := s.resolveResources(ctx, entry); err != nil {
		return err
	}

	if err := s.capacity.Validate(ctx, entry); err != nil {
		if capErr, ok := err.(*models.CapacityError); ok {
			s.metrics.RecordCapacityRejection(entry.ScheduleType)
			return appErrors.Wrap(capErr, appErrors.ErrCapacityExceeded.Code, appErrors.ErrCapacityExceeded.Status, capErr.Error())
		}
		return err
	}

	err := s.entries.InTx(ctx, lockKeys(entry), func(tx *sqlx.Tx) error {
		report, err := s.detector.FindConflict(ctx, tx, entry, excludeID)
		if err != nil {
			return err
		}
		if report != nil {
			s.resolveConflictNames(ctx, report)
			s.metrics.RecordConflictRejection(entry.ScheduleType, report.Reasons)
			conflictErr := &models.ConflictError{Report: *report}
			return appErrors.Wrap(conflictErr, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, report.Message())
		}

		if excludeID == "" {
			return s.entries.Insert(ctx, tx, entry)
		}
		return s.entries.Update(ctx, tx, entry)
	})
	if err != nil {
		return err
	}
	s.metrics.RecordAcceptedSubmission(entry.ScheduleType)
	return nil
}

// resolveResources verifies every referenced catalog record exists. Dangling
// references are hard validation failures, distinct from capacity/conflict
// rejections.
func (s *SchedulingService) resolveResources(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.RoomID != nil && *entry.RoomID != "" {
		if _, err := s.rooms.FindByID(ctx, *entry.RoomID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "ruangan tidak ditemukan")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
		}
	}

	instructorIDs := entry.Instructors()
	switch {
	case len(instructorIDs) > 1:
		instructors, err := s.instructors.ListByIDs(ctx, instructorIDs)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructors")
		}
		active := make(map[string]bool, len(instructors))
		for _, instructor := range instructors {
			if instructor.Active {
				active[instructor.ID] = true
			}
		}
		for _, instructorID := range instructorIDs {
			if !active[instructorID] {
				return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("dosen %s tidak ditemukan", instructorID))
			}
		}
	case len(instructorIDs) == 1:
		exists, err := s.instructors.Exists(ctx, instructorIDs[0])
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check instructor")
		}
		if !exists {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("dosen %s tidak ditemukan", instructorIDs[0]))
		}
	}

	if entry.GroupID != nil && *entry.GroupID != "" {
		group, err := s.groups.FindByID(ctx, *entry.GroupID)
		if err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "kelompok tidak ditemukan")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student group")
		}
		if group.Kind != entry.GroupKind {
			return appErrors.Clone(appErrors.ErrValidation, "jenis kelompok tidak sesuai dengan data kelompok")
		}
	}
	return nil
}

// resolveConflictNames swaps resource ids in the report for display names
// where the catalog can supply them; the message falls back to ids otherwise.
func (s *SchedulingService) resolveConflictNames(ctx context.Context, report *models.ConflictReport) {
	if roomID, ok := report.ResourceNames[models.ReasonRoom]; ok {
		if room, err := s.rooms.FindByID(ctx, roomID); err == nil {
			report.ResourceNames[models.ReasonRoom] = room.Name
		}
	}
	if instructorID, ok := report.ResourceNames[models.ReasonInstructor]; ok {
		if instructor, err := s.instructors.FindByID(ctx, instructorID); err == nil {
			report.ResourceNames[models.ReasonInstructor] = instructor.Name
		}
	}
	if groupID, ok := report.ResourceNames[models.ReasonStudentGroup]; ok {
		if group, err := s.groups.FindByID(ctx, groupID); err == nil {
			report.ResourceNames[models.ReasonStudentGroup] = group.Name
		}
	}
}

// buildEntry normalizes the request into a ScheduleEntry, enforcing the
// structural invariants: end after start, single-XOR-multi instructors,
// per-type required fields.
func (s *SchedulingService) buildEntry(req ScheduleEntryRequest) (*models.ScheduleEntry, error) {
	scheduleType := models.ScheduleType(req.ScheduleType)
	if !scheduleType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "jenis jadwal tidak dikenal")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format tanggal harus YYYY-MM-DD")
	}

	start, err := models.ParseClockTime(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "jam mulai tidak valid")
	}
	end, err := models.ParseClockTime(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "jam selesai tidak valid")
	}
	if end <= start {
		return nil, appErrors.Clone(appErrors.ErrValidation, "jam selesai harus setelah jam mulai")
	}

	if req.CourseCode == "" && scheduleType != models.TypeSpecialAgenda && scheduleType != models.TypeNonBlockNonCSR {
		return nil, appErrors.Clone(appErrors.ErrValidation, "kode mata kuliah wajib diisi")
	}

	hasSingle := req.InstructorID != nil && *req.InstructorID != ""
	if hasSingle && len(req.InstructorIDs) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "gunakan instructor_id atau instructor_ids, bukan keduanya")
	}
	if scheduleType == models.TypePracticum && len(req.InstructorIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "jadwal praktikum membutuhkan daftar dosen")
	}

	groupKind := models.GroupKind(req.GroupKind)
	switch groupKind {
	case models.GroupNone, models.GroupSmall, models.GroupSmallInterim, models.GroupLarge:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "jenis kelompok tidak dikenal")
	}
	hasGroup := req.GroupID != nil && *req.GroupID != ""
	if hasGroup && groupKind == models.GroupNone {
		return nil, appErrors.Clone(appErrors.ErrValidation, "jenis kelompok wajib diisi")
	}
	if !hasGroup && groupKind != models.GroupNone {
		return nil, appErrors.Clone(appErrors.ErrValidation, "id kelompok wajib diisi")
	}

	usesRoom := true
	if req.UsesRoom != nil {
		usesRoom = *req.UsesRoom
	}
	if usesRoom && (req.RoomID == nil || *req.RoomID == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ruangan wajib diisi")
	}

	sessionCount := req.SessionCount
	if sessionCount == 0 {
		sessionCount = 1
	}

	return &models.ScheduleEntry{
		ScheduleType:  scheduleType,
		CourseCode:    req.CourseCode,
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		SessionCount:  sessionCount,
		UsesRoom:      usesRoom,
		RoomID:        req.RoomID,
		InstructorID:  req.InstructorID,
		InstructorIDs: req.InstructorIDs,
		GroupKind:     groupKind,
		GroupID:       req.GroupID,
		Status:        models.StatusUnconfirmed,
	}, nil
}

// lockKeys derives the advisory lock keys for every resource the entry
// occupies on its date, sorted so concurrent submissions always lock in the
// same order.
func lockKeys(entry *models.ScheduleEntry) []string {
	var keys []string
	dateKey := entry.DateKey()
	if entry.UsesRoom && entry.RoomID != nil {
		keys = append(keys, fmt.Sprintf("room:%s:%s", *entry.RoomID, dateKey))
	}
	for _, instructorID := range entry.Instructors() {
		keys = append(keys, fmt.Sprintf("instructor:%s:%s", instructorID, dateKey))
	}
	if entry.GroupID != nil && *entry.GroupID != "" {
		keys = append(keys, fmt.Sprintf("group:%s:%s", *entry.GroupID, dateKey))
	}
	sort.Strings(keys)
	return keys
}
