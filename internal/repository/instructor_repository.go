package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/med-schedule-api/internal/models"
)

// InstructorRepository provides read access to the lecturer roster.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository creates an instructor repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// FindByID loads an instructor by id.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	const query = `SELECT id, nip, name, email, active, created_at, updated_at FROM instructors WHERE id = $1`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// Exists reports whether an active instructor with the given id exists.
func (r *InstructorRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM instructors WHERE id = $1 AND active = TRUE)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check instructor exists: %w", err)
	}
	return exists, nil
}

// ListByIDs loads the named instructors preserving roster order.
func (r *InstructorRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Instructor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, nip, name, email, active, created_at, updated_at FROM instructors WHERE id IN (?) ORDER BY name ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build instructor query: %w", err)
	}
	query = r.db.Rebind(query)
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, args...); err != nil {
		return nil, fmt.Errorf("list instructors by ids: %w", err)
	}
	return instructors, nil
}
