package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicrecords/api/internal/platform/db"
)

type storePG struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

const entryCols = `id, user_id, action, route, resource_kind, resource_id, ip, COALESCE(request_id, ''), COALESCE(status, 0), created_at`

func (s *storePG) Insert(ctx context.Context, e *Entry) error {
	err := db.Conn(ctx, s.pool).QueryRow(ctx, `
		INSERT INTO audit_event (user_id, action, route, resource_kind, resource_id, ip, request_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, 0), $9)
		RETURNING id`,
		e.UserID, e.Action, e.Route, e.ResourceKind, e.ResourceID, e.IP, e.RequestID, e.Status, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", db.MapError(err))
	}
	return nil
}

func (s *storePG) List(ctx context.Context, limit, offset int) ([]*Entry, int, error) {
	q := db.Conn(ctx, s.pool)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM audit_event`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit events: %w", err)
	}

	rows, err := q.Query(ctx, `SELECT `+entryCols+` FROM audit_event ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	if err := row.Scan(&e.ID, &e.UserID, &e.Action, &e.Route, &e.ResourceKind, &e.ResourceID, &e.IP, &e.RequestID, &e.Status, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan audit event: %w", err)
	}
	return &e, nil
}
