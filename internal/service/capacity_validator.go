package service

import (
	"context"
	"database/sql"

	"github.com/noah-isme/med-schedule-api/internal/models"
	appErrors "github.com/noah-isme/med-schedule-api/pkg/errors"
)

type roomCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type groupCatalog interface {
	FindByID(ctx context.Context, id string) (*models.StudentGroup, error)
	ListMembers(ctx context.Context, groupID string) ([]string, error)
}

// instructorCounted marks which schedule types add their instructors to the
// required headcount. Agenda khusus seats only the cohort.
var instructorCounted = map[models.ScheduleType]bool{
	models.TypeLectureBlock:   true,
	models.TypePBL:            true,
	models.TypeJournalReading: true,
	models.TypeCSR:            true,
	models.TypePracticum:      true,
	models.TypeSpecialAgenda:  false,
	models.TypeNonBlockNonCSR: true,
}

// CapacityValidator checks that a candidate entry's attending population fits
// the referenced room.
type CapacityValidator struct {
	rooms  roomCatalog
	groups groupCatalog
}

// NewCapacityValidator constructs a capacity validator.
func NewCapacityValidator(rooms roomCatalog, groups groupCatalog) *CapacityValidator {
	return &CapacityValidator{rooms: rooms, groups: groups}
}

// Validate returns a *models.CapacityError when the room is too small, a
// typed not-found error for dangling references, and nil when the entry fits
// or is exempt from room checks.
func (v *CapacityValidator) Validate(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.RoomID == nil || *entry.RoomID == "" {
		return nil
	}

	room, err := v.rooms.FindByID(ctx, *entry.RoomID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "ruangan tidak ditemukan")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	// Agenda khusus may reference a room it does not physically occupy;
	// a non-positive capacity is still rejected as a data error.
	if entry.ScheduleType == models.TypeSpecialAgenda && room.Capacity < 1 {
		return &models.CapacityError{RoomName: room.Name, RoomCapacity: room.Capacity, Required: 1}
	}
	if !entry.UsesRoom {
		return nil
	}

	required, err := v.requiredHeadcount(ctx, entry)
	if err != nil {
		return err
	}
	if required > room.Capacity {
		return &models.CapacityError{RoomName: room.Name, RoomCapacity: room.Capacity, Required: required}
	}
	return nil
}

// requiredHeadcount computes attendee count per the type rules: group size
// plus instructors for teaching types, group size alone for agenda khusus.
// Entries without a group degrade to a capacity >= 1 sanity check so special
// events with variable attendance stay schedulable.
func (v *CapacityValidator) requiredHeadcount(ctx context.Context, entry *models.ScheduleEntry) (int, error) {
	if entry.GroupID == nil || *entry.GroupID == "" {
		return 1, nil
	}

	group, err := v.groups.FindByID(ctx, *entry.GroupID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "kelompok tidak ditemukan")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student group")
	}

	required := group.MemberCount
	if instructorCounted[entry.ScheduleType] {
		required += len(entry.Instructors())
	}
	if required < 1 {
		required = 1
	}
	return required, nil
}
