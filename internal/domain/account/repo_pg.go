package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicrecords/api/internal/platform/apperr"
	"github.com/clinicrecords/api/internal/platform/db"
)

type userRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

const userCols = `id, name, email, password_hash, role, patient_id, active, created_at`

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO app_user (name, email, password_hash, role, patient_id, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		u.Name, strings.ToLower(u.Email), u.PasswordHash, u.Role, u.PatientID, u.Active,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", db.MapError(err))
	}
	return nil
}

func (r *userRepoPG) GetByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE id = $1`, id))
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE email = $1`, strings.ToLower(email)))
}

func (r *userRepoPG) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `UPDATE app_user SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.PatientID, &u.Active, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", db.MapError(err))
	}
	return &u, nil
}
