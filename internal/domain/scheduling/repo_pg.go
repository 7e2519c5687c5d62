package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicrecords/api/internal/platform/db"
)

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const apptCols = `id, patient_id, professional_id, scheduled_at, status, reason, cancellation_reason, created_at, updated_at`

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO appointment (patient_id, professional_id, scheduled_at, status, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		a.PatientID, a.ProfessionalID, a.ScheduledAt, a.Status, a.Reason,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", db.MapError(err))
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	return scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) FindActive(ctx context.Context, professionalID int64, at time.Time, statuses []Status) (*Appointment, error) {
	return scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE professional_id = $1 AND scheduled_at = $2 AND status = ANY($3)
		LIMIT 1`,
		professionalID, at, statusStrings(statuses),
	))
}

func (r *appointmentRepoPG) Transition(ctx context.Context, id int64, from, to Status, cancellationReason *string) (*Appointment, error) {
	return scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE appointment
		SET status = $3, cancellation_reason = COALESCE($4, cancellation_reason), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+apptCols,
		id, from, to, cancellationReason,
	))
}

func (r *appointmentRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	lq := db.NewListQuery("appointment", apptCols)
	if f.PatientID != nil {
		lq.Eq("patient_id", *f.PatientID)
	}
	if f.ProfessionalID != nil {
		lq.Eq("professional_id", *f.ProfessionalID)
	}
	if f.Status != nil {
		lq.Eq("status", string(*f.Status))
	}
	lq.OrderBy("scheduled_at DESC, id DESC")

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, lq.CountSQL(), lq.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	rows, err := conn.Query(ctx, lq.DataSQL(), lq.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *appointmentRepoPG) CountByStatus(ctx context.Context, from, to *time.Time) (map[Status]int, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT status, COUNT(*) FROM appointment
		WHERE ($1::timestamptz IS NULL OR scheduled_at >= $1)
		  AND ($2::timestamptz IS NULL OR scheduled_at <= $2)
		GROUP BY status`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("count appointments by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.ProfessionalID, &a.ScheduledAt, &a.Status,
		&a.Reason, &a.CancellationReason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan appointment: %w", db.MapError(err))
	}
	a.ScheduledAt = a.ScheduledAt.UTC()
	return &a, nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
