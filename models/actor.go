package models

import "time"

// Actor represents a performer available for casting
type Actor struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Age       int       `json:"age" db:"age"`
	Gender    string    `json:"gender" db:"gender"`
	Movies    []int64   `json:"movies"` // ids of movies the actor is cast in
	CreatedAt time.Time `json:"-" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// TableName returns the table name for the Actor model
func (Actor) TableName() string {
	return "actors"
}

// CreateActorRequest is the body of POST /actors
type CreateActorRequest struct {
	Name   string  `json:"name" validate:"required,max=255"`
	Age    int     `json:"age" validate:"required,gt=0,lte=150"`
	Gender string  `json:"gender" validate:"required,max=64"`
	Movies []int64 `json:"movies" validate:"omitempty,unique,dive,gt=0"`
}

// ToActor builds the Actor to insert
func (r *CreateActorRequest) ToActor() *Actor {
	return &Actor{
		Name:   r.Name,
		Age:    r.Age,
		Gender: r.Gender,
		Movies: r.Movies,
	}
}

// UpdateActorRequest is the body of PATCH /actors/{id}. Absent fields are left
// unchanged; a present movies list replaces the actor's casting.
type UpdateActorRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=255"`
	Age    *int    `json:"age" validate:"omitempty,gt=0,lte=150"`
	Gender *string `json:"gender" validate:"omitempty,min=1,max=64"`
	Movies []int64 `json:"movies" validate:"omitempty,unique,dive,gt=0"`
}

// Apply copies the present fields onto a. It reports whether the movies
// association must be replaced.
func (r *UpdateActorRequest) Apply(a *Actor) (replaceMovies bool) {
	if r.Name != nil {
		a.Name = *r.Name
	}
	if r.Age != nil {
		a.Age = *r.Age
	}
	if r.Gender != nil {
		a.Gender = *r.Gender
	}
	if r.Movies != nil {
		a.Movies = r.Movies
		return true
	}
	return false
}
