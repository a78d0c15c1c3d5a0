package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/med-schedule-api/internal/models"
	appErrors "github.com/noah-isme/med-schedule-api/pkg/errors"
)

// StudentGroupRepository provides read access to student groups and their
// member rosters. Member-set reads go through the Redis cache when one is
// configured.
type StudentGroupRepository struct {
	db       *sqlx.DB
	cache    *CacheRepository
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewStudentGroupRepository creates a student group repository.
func NewStudentGroupRepository(db *sqlx.DB, cache *CacheRepository, cacheTTL time.Duration, logger *zap.Logger) *StudentGroupRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &StudentGroupRepository{db: db, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// List returns groups matching the filter with pagination.
func (r *StudentGroupRepository) List(ctx context.Context, filter models.StudentGroupFilter) ([]models.StudentGroup, int, error) {
	base := "FROM student_groups WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Kind != models.GroupNone {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, filter.Kind)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT id, kind, name, semester, member_count, created_at, updated_at %s ORDER BY semester ASC, name ASC LIMIT %d OFFSET %d", base, size, offset)
	var groups []models.StudentGroup
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list student groups: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count student groups: %w", err)
	}
	return groups, total, nil
}

// FindByID loads a group by id.
func (r *StudentGroupRepository) FindByID(ctx context.Context, id string) (*models.StudentGroup, error) {
	const query = `SELECT id, kind, name, semester, member_count, created_at, updated_at FROM student_groups WHERE id = $1`
	var group models.StudentGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListMembers returns the member student ids of a group, cache-first. A cache
// failure other than a miss only logs; the database remains authoritative.
func (r *StudentGroupRepository) ListMembers(ctx context.Context, groupID string) ([]string, error) {
	if r.cache != nil {
		members, err := r.cache.GetGroupMembers(ctx, groupID)
		if err == nil {
			return members, nil
		}
		if err != appErrors.ErrCacheMiss {
			r.logger.Warn("group member cache read failed", zap.String("group_id", groupID), zap.Error(err))
		}
	}

	const query = `SELECT student_id FROM student_group_members WHERE group_id = $1 ORDER BY student_id ASC`
	var members []string
	if err := r.db.SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.SetGroupMembers(ctx, groupID, members, r.cacheTTL); err != nil {
			r.logger.Warn("group member cache write failed", zap.String("group_id", groupID), zap.Error(err))
		}
	}
	return members, nil
}

// InvalidateMembers drops the cached roster after a membership change.
func (r *StudentGroupRepository) InvalidateMembers(ctx context.Context, groupID string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.InvalidateGroup(ctx, groupID)
}
