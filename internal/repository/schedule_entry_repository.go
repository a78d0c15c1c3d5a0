package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/med-schedule-api/internal/models"
)

const scheduleEntryColumns = "id, schedule_type, course_code, entry_date, start_time, end_time, session_count, uses_room, room_id, instructor_id, instructor_ids, group_kind, group_id, status_confirmation, created_at, updated_at"

// ScheduleEntryRepository persists schedule entries across all seven type
// partitions in a single table discriminated by schedule_type.
type ScheduleEntryRepository struct {
	db *sqlx.DB
}

// NewScheduleEntryRepository creates a schedule entry repository.
func NewScheduleEntryRepository(db *sqlx.DB) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{db: db}
}

func (r *ScheduleEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns entries matching the filter with pagination.
func (r *ScheduleEntryRepository) List(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntry, int, error) {
	base := "FROM schedule_entries WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ScheduleType != "" {
		conditions = append(conditions, fmt.Sprintf("schedule_type = $%d", len(args)+1))
		args = append(args, filter.ScheduleType)
	}
	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("course_code = $%d", len(args)+1))
		args = append(args, filter.CourseCode)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("entry_date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom.Format("2006-01-02"))
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("entry_date <= $%d", len(args)+1))
		args = append(args, filter.DateTo.Format("2006-01-02"))
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("(instructor_id = $%d OR $%d = ANY(instructor_ids))", len(args)+1, len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"entry_date": true,
		"start_time": true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "entry_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_time ASC LIMIT %d OFFSET %d", scheduleEntryColumns, base, sortBy, order, size, offset)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedule entries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedule entries: %w", err)
	}

	return entries, total, nil
}

// FindByID loads an entry by id.
func (r *ScheduleEntryRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE id = $1", scheduleEntryColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByDateAndType returns one partition's entries on a date, ordered by
// start time. Runs on the transaction when exec is provided so conflict
// checks observe locked state.
func (r *ScheduleEntryRepository) FindByDateAndType(ctx context.Context, exec sqlx.ExtContext, date time.Time, scheduleType models.ScheduleType) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE entry_date = $1 AND schedule_type = $2 ORDER BY start_time ASC", scheduleEntryColumns)
	var entries []models.ScheduleEntry
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query, date.Format("2006-01-02"), scheduleType); err != nil {
		return nil, fmt.Errorf("find schedule entries by date and type: %w", err)
	}
	return entries, nil
}

// Insert stores a new entry, assigning an id when absent.
func (r *ScheduleEntryRepository) Insert(ctx context.Context, exec sqlx.ExtContext, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if entry.Status == "" {
		entry.Status = models.StatusUnconfirmed
	}

	const query = `INSERT INTO schedule_entries (id, schedule_type, course_code, entry_date, start_time, end_time, session_count, uses_room, room_id, instructor_id, instructor_ids, group_kind, group_id, status_confirmation, created_at, updated_at)
VALUES (:id, :schedule_type, :course_code, :entry_date, :start_time, :end_time, :session_count, :uses_room, :room_id, :instructor_id, :instructor_ids, :group_kind, :group_id, :status_confirmation, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, entry); err != nil {
		return fmt.Errorf("insert schedule entry: %w", err)
	}
	return nil
}

// Update replaces an entry's mutable fields.
func (r *ScheduleEntryRepository) Update(ctx context.Context, exec sqlx.ExtContext, entry *models.ScheduleEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedule_entries SET schedule_type = :schedule_type, course_code = :course_code, entry_date = :entry_date, start_time = :start_time, end_time = :end_time, session_count = :session_count, uses_room = :uses_room, room_id = :room_id, instructor_id = :instructor_id, instructor_ids = :instructor_ids, group_kind = :group_kind, group_id = :group_id, status_confirmation = :status_confirmation, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, entry); err != nil {
		return fmt.Errorf("update schedule entry: %w", err)
	}
	return nil
}

// UpdateStatus sets only the confirmation status.
func (r *ScheduleEntryRepository) UpdateStatus(ctx context.Context, id string, status models.ConfirmationStatus) error {
	const query = `UPDATE schedule_entries SET status_confirmation = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update schedule entry status: %w", err)
	}
	return nil
}

// Delete removes an entry by id.
func (r *ScheduleEntryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	return nil
}

// InTx runs fn inside a transaction after serializing on the given resource
// lock keys via pg_advisory_xact_lock. Two submissions contending for the same
// room/instructor/group on the same date therefore validate one at a time,
// which closes the check-then-write race. Locks release on commit/rollback.
func (r *ScheduleEntryRepository) InTx(ctx context.Context, lockKeys []string, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schedule tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, key := range lockKeys {
		if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("acquire advisory lock %s: %w", key, err)
		}
	}

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule tx: %w", err)
	}
	return nil
}
