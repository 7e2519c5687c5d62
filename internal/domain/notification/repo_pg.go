package notification

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicrecords/api/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const notificationCols = `id, patient_id, type, message, channel, created_at`

func (r *repoPG) Create(ctx context.Context, n *Notification) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO notification (patient_id, type, message, channel)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		n.PatientID, n.Type, n.Message, n.Channel,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", db.MapError(err))
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Notification, int, error) {
	lq := db.NewListQuery("notification", notificationCols)
	lq.Eq("patient_id", patientID)
	lq.OrderBy("id DESC")

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, lq.CountSQL(), lq.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := conn.Query(ctx, lq.DataSQL(), lq.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.PatientID, &n.Type, &n.Message, &n.Channel, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, &n)
	}
	return out, total, rows.Err()
}
