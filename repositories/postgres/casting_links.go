package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/upb/casting-agency/repositories"
)

// foreignKeyViolation is the PostgreSQL SQLSTATE for a missing referenced row.
const foreignKeyViolation = "23503"

// castingLink describes one direction of the actor_movie association.
type castingLink struct {
	owner      string // actor_movie column holding the owning id
	other      string // actor_movie column holding the linked id
	otherTable string
}

var (
	actorMovies = castingLink{owner: "actor_id", other: "movie_id", otherTable: "movies"}
	movieActors = castingLink{owner: "movie_id", other: "actor_id", otherTable: "actors"}
)

// load returns the linked ids of every owner in ids, sorted ascending.
func (l castingLink) load(ctx context.Context, exec Executor, ids []int64) (map[int64][]int64, error) {
	links := make(map[int64][]int64, len(ids))
	if len(ids) == 0 {
		return links, nil
	}

	query := fmt.Sprintf(`
		SELECT %[1]s, %[2]s
		FROM actor_movie
		WHERE %[1]s = ANY($1)
		ORDER BY %[1]s, %[2]s
	`, l.owner, l.other)

	rows, err := exec.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s links: %w", l.otherTable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner, other int64
		if err := rows.Scan(&owner, &other); err != nil {
			return nil, fmt.Errorf("failed to scan %s link: %w", l.otherTable, err)
		}
		links[owner] = append(links[owner], other)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s links: %w", l.otherTable, err)
	}

	return links, nil
}

// replace swaps the linked ids of owner for ids. It must run inside a
// transaction so a failed insert leaves the previous links in place.
func (l castingLink) replace(ctx context.Context, exec Executor, owner int64, ids []int64) error {
	if len(ids) > 0 {
		var found int
		countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id = ANY($1)`, l.otherTable)
		if err := exec.QueryRowContext(ctx, countQuery, pq.Array(ids)).Scan(&found); err != nil {
			return fmt.Errorf("failed to check %s: %w", l.otherTable, err)
		}
		if found != len(ids) {
			return fmt.Errorf("%w: %d of %d %s exist", repositories.ErrInvalidReference, found, len(ids), l.otherTable)
		}
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM actor_movie WHERE %s = $1`, l.owner)
	if _, err := exec.ExecContext(ctx, deleteQuery, owner); err != nil {
		return fmt.Errorf("failed to clear %s links: %w", l.otherTable, err)
	}

	if len(ids) == 0 {
		return nil
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO actor_movie (%s, %s)
		SELECT $1, UNNEST($2::BIGINT[])
	`, l.owner, l.other)
	if _, err := exec.ExecContext(ctx, insertQuery, owner, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to link %s: %w", l.otherTable, mapWriteError(err))
	}

	return nil
}

// add links other to owner. An existing link is left as is.
func (l castingLink) add(ctx context.Context, exec Executor, owner, other int64) error {
	query := fmt.Sprintf(`
		INSERT INTO actor_movie (%s, %s)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, l.owner, l.other)
	if _, err := exec.ExecContext(ctx, query, owner, other); err != nil {
		return fmt.Errorf("failed to link %s: %w", l.otherTable, mapWriteError(err))
	}
	return nil
}

// remove unlinks other from owner. A missing link is not an error.
func (l castingLink) remove(ctx context.Context, exec Executor, owner, other int64) error {
	query := fmt.Sprintf(`DELETE FROM actor_movie WHERE %s = $1 AND %s = $2`, l.owner, l.other)
	if _, err := exec.ExecContext(ctx, query, owner, other); err != nil {
		return fmt.Errorf("failed to unlink %s: %w", l.otherTable, err)
	}
	return nil
}

// mapWriteError turns a foreign key violation into ErrInvalidReference.
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return fmt.Errorf("%w: %s", repositories.ErrInvalidReference, pqErr.Detail)
	}
	return err
}
