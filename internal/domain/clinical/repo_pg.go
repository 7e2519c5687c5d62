package clinical

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicrecords/api/internal/platform/db"
)

// -- Clinical Note Repository --

type noteRepoPG struct {
	pool *pgxpool.Pool
}

func NewNoteRepo(pool *pgxpool.Pool) NoteRepository {
	return &noteRepoPG{pool: pool}
}

const noteCols = `n.id, n.appointment_id, a.patient_id, a.professional_id, n.narrative, n.vitals, n.created_at`

const noteFrom = ` FROM clinical_note n JOIN appointment a ON a.id = n.appointment_id`

func (r *noteRepoPG) Create(ctx context.Context, n *ClinicalNote) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO clinical_note (appointment_id, narrative, vitals)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		n.AppointmentID, n.Narrative, n.Vitals,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert clinical note: %w", db.MapError(err))
	}
	return nil
}

func (r *noteRepoPG) GetByID(ctx context.Context, id int64) (*ClinicalNote, error) {
	return scanNote(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+noteCols+noteFrom+` WHERE n.id = $1`, id))
}

func (r *noteRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*ClinicalNote, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+noteCols+noteFrom+` WHERE a.patient_id = $1 ORDER BY n.created_at DESC, n.id DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list clinical notes: %w", err)
	}
	defer rows.Close()

	var notes []*ClinicalNote
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func scanNote(row pgx.Row) (*ClinicalNote, error) {
	var n ClinicalNote
	err := row.Scan(&n.ID, &n.AppointmentID, &n.PatientID, &n.ProfessionalID, &n.Narrative, &n.Vitals, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan clinical note: %w", db.MapError(err))
	}
	return &n, nil
}

// -- Prescription Repository --

type prescriptionRepoPG struct {
	pool *pgxpool.Pool
}

func NewPrescriptionRepo(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

const rxCols = `p.id, p.clinical_note_id, a.patient_id, p.medication, p.dosage, p.duration_days, p.notes, p.created_at`

const rxFrom = ` FROM prescription p
	JOIN clinical_note n ON n.id = p.clinical_note_id
	JOIN appointment a ON a.id = n.appointment_id`

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO prescription (clinical_note_id, medication, dosage, duration_days, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		p.ClinicalNoteID, p.Medication, p.Dosage, p.DurationDays, p.Notes,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert prescription: %w", db.MapError(err))
	}
	return nil
}

func (r *prescriptionRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*Prescription, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+rxCols+rxFrom+` WHERE a.patient_id = $1 ORDER BY p.created_at DESC, p.id DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.ID, &p.ClinicalNoteID, &p.PatientID, &p.Medication, &p.Dosage, &p.DurationDays, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
