package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/noah-isme/med-schedule-api/internal/models"
	appErrors "github.com/noah-isme/med-schedule-api/pkg/errors"
)

type roomLister interface {
	roomCatalog
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
}

type groupLister interface {
	groupCatalog
	List(ctx context.Context, filter models.StudentGroupFilter) ([]models.StudentGroup, int, error)
	InvalidateMembers(ctx context.Context, groupID string) error
}

// CatalogService exposes read-only room and student-group lookups to the
// HTTP layer.
type CatalogService struct {
	rooms  roomLister
	groups groupLister
	logger *zap.Logger
}

// NewCatalogService constructs a catalog service.
func NewCatalogService(rooms roomLister, groups groupLister, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{rooms: rooms, groups: groups, logger: logger}
}

// ListRooms returns rooms with pagination metadata.
func (s *CatalogService) ListRooms(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.rooms.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetRoom loads one room.
func (s *CatalogService) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ruangan tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// ListGroups returns student groups with pagination metadata.
func (s *CatalogService) ListGroups(ctx context.Context, filter models.StudentGroupFilter) ([]models.StudentGroup, *models.Pagination, error) {
	groups, total, err := s.groups.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student groups")
	}
	return groups, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetGroup loads one student group.
func (s *CatalogService) GetGroup(ctx context.Context, id string) (*models.StudentGroup, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "kelompok tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student group")
	}
	return group, nil
}

// GroupMembers returns the member student ids of a group.
func (s *CatalogService) GroupMembers(ctx context.Context, id string) ([]string, error) {
	if _, err := s.GetGroup(ctx, id); err != nil {
		return nil, err
	}
	members, err := s.groups.ListMembers(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list group members")
	}
	return members, nil
}

// InvalidateGroupMembers drops the cached roster after an upstream roster
// change (member import, transfer).
func (s *CatalogService) InvalidateGroupMembers(ctx context.Context, id string) error {
	if err := s.groups.InvalidateMembers(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate group member cache")
	}
	return nil
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
