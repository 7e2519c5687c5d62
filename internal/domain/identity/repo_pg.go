package identity

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicrecords/api/internal/platform/apperr"
	"github.com/clinicrecords/api/internal/platform/auth"
	"github.com/clinicrecords/api/internal/platform/db"
)

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, name, national_id, birth_date, phone, address, emergency_contact, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patient (name, national_id, birth_date, phone, address, emergency_contact)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		p.Name, p.NationalID, p.BirthDate, p.Phone, p.Address, p.EmergencyContact,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", db.MapError(err))
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	return scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patient SET name = $2, phone = $3, address = $4, emergency_contact = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Name, p.Phone, p.Address, p.EmergencyContact,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update patient %d: %w", p.ID, db.MapError(err))
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient %d: %w", id, db.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete patient %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	lq := db.NewListQuery("patient", patientCols)
	if q != "" {
		lq.Contains(q, "name", "national_id")
	}
	lq.OrderBy("name, id")

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, lq.CountSQL(), lq.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := conn.Query(ctx, lq.DataSQL(), lq.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.NationalID, &p.BirthDate, &p.Phone, &p.Address, &p.EmergencyContact, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan patient: %w", db.MapError(err))
	}
	return &p, nil
}

// -- Caregiver Link Repository --

type caregiverLinkRepoPG struct {
	pool *pgxpool.Pool
}

func NewCaregiverLinkRepo(pool *pgxpool.Pool) CaregiverLinkRepository {
	return &caregiverLinkRepoPG{pool: pool}
}

const linkCols = `id, patient_id, caregiver_user_id, degree, created_at`

func (r *caregiverLinkRepoPG) Create(ctx context.Context, l *CaregiverLink) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO caregiver_link (patient_id, caregiver_user_id, degree)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		l.PatientID, l.CaregiverUserID, l.Degree,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert caregiver link: %w", db.MapError(err))
	}
	return nil
}

func (r *caregiverLinkRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*CaregiverLink, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+linkCols+` FROM caregiver_link WHERE patient_id = $1 ORDER BY id`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list caregiver links: %w", err)
	}
	defer rows.Close()

	var links []*CaregiverLink
	for rows.Next() {
		var l CaregiverLink
		if err := rows.Scan(&l.ID, &l.PatientID, &l.CaregiverUserID, &l.Degree, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan caregiver link: %w", err)
		}
		links = append(links, &l)
	}
	return links, rows.Err()
}

func (r *caregiverLinkRepoPG) Exists(ctx context.Context, patientID, caregiverUserID int64) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM caregiver_link WHERE patient_id = $1 AND caregiver_user_id = $2)`,
		patientID, caregiverUserID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check caregiver link: %w", err)
	}
	return exists, nil
}

func (r *caregiverLinkRepoPG) UserRole(ctx context.Context, userID int64) (auth.Role, error) {
	var role auth.Role
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT role FROM app_user WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		return "", fmt.Errorf("get caregiver role: %w", db.MapError(err))
	}
	return role, nil
}
