package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format of release dates
const DateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String implements fmt.Stringer
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Movie represents a production actors are cast in
type Movie struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	ReleaseDate Date      `json:"release_date" db:"release_date"`
	Actors      []int64   `json:"actors"` // ids of the cast
	CreatedAt   time.Time `json:"-" db:"created_at"`
	UpdatedAt   time.Time `json:"-" db:"updated_at"`
}

// TableName returns the table name for the Movie model
func (Movie) TableName() string {
	return "movies"
}

// CreateMovieRequest is the body of POST /movies
type CreateMovieRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	ReleaseDate string  `json:"release_date" validate:"required,datetime=2006-01-02"`
	Actors      []int64 `json:"actors" validate:"omitempty,unique,dive,gt=0"`
}

// ToMovie builds the Movie to insert. The request must have been validated.
func (r *CreateMovieRequest) ToMovie() (*Movie, error) {
	date, err := ParseDate(r.ReleaseDate)
	if err != nil {
		return nil, err
	}
	return &Movie{
		Title:       r.Title,
		ReleaseDate: date,
		Actors:      r.Actors,
	}, nil
}

// UpdateMovieRequest is the body of PATCH /movies/{id}. Absent fields are left
// unchanged; a present actors list replaces the cast.
type UpdateMovieRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	ReleaseDate *string `json:"release_date" validate:"omitempty,datetime=2006-01-02"`
	Actors      []int64 `json:"actors" validate:"omitempty,unique,dive,gt=0"`
}

// Apply copies the present fields onto m. It reports whether the cast must be
// replaced.
func (r *UpdateMovieRequest) Apply(m *Movie) (replaceActors bool, err error) {
	if r.Title != nil {
		m.Title = *r.Title
	}
	if r.ReleaseDate != nil {
		date, err := ParseDate(*r.ReleaseDate)
		if err != nil {
			return false, err
		}
		m.ReleaseDate = date
	}
	if r.Actors != nil {
		m.Actors = r.Actors
		return true, nil
	}
	return false, nil
}

// CastActorRequest is the body of POST /movies/{id}/actors
type CastActorRequest struct {
	ActorID *int64 `json:"actor_id" validate:"required,gt=0"`
}
