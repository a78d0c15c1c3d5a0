package models

import "time"

// Room is a physical room with a fixed capacity. Referenced by schedule
// entries, never owned by them.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Instructor is a lecturer referenced by schedule entries.
type Instructor struct {
	ID        string    `db:"id" json:"id"`
	NIP       string    `db:"nip" json:"nip"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentGroup is an attending population: a semester-wide cohort (kelompok
// besar) or a subdivided small group (kelompok kecil / kelompok kecil antara).
type StudentGroup struct {
	ID          string    `db:"id" json:"id"`
	Kind        GroupKind `db:"kind" json:"kind"`
	Name        string    `db:"name" json:"name"`
	Semester    int       `db:"semester" json:"semester"`
	MemberCount int       `db:"member_count" json:"member_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter describes room list query parameters.
type RoomFilter struct {
	Name        string
	MinCapacity int
	Page        int
	PageSize    int
}

// StudentGroupFilter describes group list query parameters.
type StudentGroupFilter struct {
	Kind     GroupKind
	Semester int
	Page     int
	PageSize int
}
