package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/med-schedule-api/internal/models"
	appErrors "github.com/noah-isme/med-schedule-api/pkg/errors"
)

type conflictEntrySource interface {
	FindByDateAndType(ctx context.Context, exec sqlx.ExtContext, date time.Time, scheduleType models.ScheduleType) ([]models.ScheduleEntry, error)
}

// resourceRule flags which resource dimensions are compared for a given pair
// of schedule types. Encoding the per-pair semantics as data keeps the seven
// partitions from drifting apart again.
type resourceRule struct {
	Room         bool
	Instructor   bool
	StudentGroup bool
}

var defaultResourceRule = resourceRule{Room: true, Instructor: true, StudentGroup: true}

type typePair struct {
	candidate models.ScheduleType
	existing  models.ScheduleType
}

// pairRuleOverrides lists the type pairs whose comparison deviates from the
// default all-dimensions rule. Praktikum records no singular instructor
// relevant to a kuliah besar slot, so that pair contends on the room alone.
var pairRuleOverrides = map[typePair]resourceRule{
	{models.TypeLectureBlock, models.TypePracticum}: {Room: true},
	{models.TypePracticum, models.TypeLectureBlock}: {Room: true},
}

func ruleFor(candidate, existing models.ScheduleType) resourceRule {
	if rule, ok := pairRuleOverrides[typePair{candidate, existing}]; ok {
		return rule
	}
	return defaultResourceRule
}

// scanPriority is the fixed cross-partition scan order after the candidate's
// own partition. The first match wins; later partitions are never reported
// when an earlier one collides.
var scanPriority = []models.ScheduleType{
	models.TypeLectureBlock,
	models.TypePBL,
	models.TypeSpecialAgenda,
	models.TypePracticum,
	models.TypeJournalReading,
	models.TypeCSR,
	models.TypeNonBlockNonCSR,
}

func scanOrder(own models.ScheduleType) []models.ScheduleType {
	order := make([]models.ScheduleType, 0, len(scanPriority)+1)
	order = append(order, own)
	for _, t := range scanPriority {
		if t != own {
			order = append(order, t)
		}
	}
	return order
}

// ConflictDetector scans every schedule partition for an existing entry that
// shares a resource with the candidate on the same date with overlapping
// times.
type ConflictDetector struct {
	entries conflictEntrySource
	groups  groupCatalog
	logger  *zap.Logger
}

// NewConflictDetector constructs a conflict detector.
func NewConflictDetector(entries conflictEntrySource, groups groupCatalog, logger *zap.Logger) *ConflictDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictDetector{entries: entries, groups: groups, logger: logger}
}

// FindConflict returns the first colliding entry in scan-priority order, or
// nil when the candidate is clear. excludeID omits the candidate's own prior
// record during update validation. When exec is non-nil the partition reads
// run on that transaction.
func (d *ConflictDetector) FindConflict(ctx context.Context, exec sqlx.ExtContext, candidate *models.ScheduleEntry, excludeID string) (*models.ConflictReport, error) {
	for _, scheduleType := range scanOrder(candidate.ScheduleType) {
		existing, err := d.entries.FindByDateAndType(ctx, exec, candidate.Date, scheduleType)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan schedule partition")
		}

		rule := ruleFor(candidate.ScheduleType, scheduleType)
		for i := range existing {
			entry := &existing[i]
			if entry.ID == excludeID {
				continue
			}
			if !models.Overlaps(entry.StartTime, entry.EndTime, candidate.StartTime, candidate.EndTime) {
				continue
			}

			reasons, names, err := d.collide(ctx, rule, candidate, entry)
			if err != nil {
				return nil, err
			}
			if len(reasons) == 0 {
				continue
			}

			return &models.ConflictReport{
				ConflictingType: entry.ScheduleType,
				EntryID:         entry.ID,
				Date:            entry.Date,
				StartTime:       entry.StartTime,
				EndTime:         entry.EndTime,
				Reasons:         reasons,
				ResourceNames:   names,
			}, nil
		}
	}
	return nil, nil
}

func (d *ConflictDetector) collide(ctx context.Context, rule resourceRule, candidate, entry *models.ScheduleEntry) ([]models.ConflictReason, map[models.ConflictReason]string, error) {
	var reasons []models.ConflictReason
	names := make(map[models.ConflictReason]string)

	if rule.Room && candidate.SharesRoom(entry) {
		reasons = append(reasons, models.ReasonRoom)
		names[models.ReasonRoom] = *entry.RoomID
	}
	if rule.Instructor {
		if instructorID, ok := candidate.SharedInstructor(entry); ok {
			reasons = append(reasons, models.ReasonInstructor)
			names[models.ReasonInstructor] = instructorID
		}
	}
	if rule.StudentGroup {
		shared, err := d.groupsCollide(ctx, candidate, entry)
		if err != nil {
			return nil, nil, err
		}
		if shared {
			reasons = append(reasons, models.ReasonStudentGroup)
			names[models.ReasonStudentGroup] = *entry.GroupID
		}
	}
	return reasons, names, nil
}

// groupsCollide reports population overlap: direct id match, or member-set
// intersection when a small group meets the semester-wide cohort it draws
// from.
func (d *ConflictDetector) groupsCollide(ctx context.Context, a, b *models.ScheduleEntry) (bool, error) {
	if a.GroupID == nil || *a.GroupID == "" || b.GroupID == nil || *b.GroupID == "" {
		return false, nil
	}
	if *a.GroupID == *b.GroupID {
		return true, nil
	}

	small, large := a, b
	if b.GroupKind.SmallScale() && a.GroupKind == models.GroupLarge {
		small, large = b, a
	} else if !(a.GroupKind.SmallScale() && b.GroupKind == models.GroupLarge) {
		return false, nil
	}

	smallMembers, err := d.groups.ListMembers(ctx, *small.GroupID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group members")
	}
	largeMembers, err := d.groups.ListMembers(ctx, *large.GroupID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group members")
	}

	seen := make(map[string]struct{}, len(largeMembers))
	for _, id := range largeMembers {
		seen[id] = struct{}{}
	}
	for _, id := range smallMembers {
		if _, ok := seen[id]; ok {
			return true, nil
		}
	}
	return false, nil
}
