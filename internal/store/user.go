package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"health-reminder-api/internal/model"
)

const userCols = `id, email, full_name, hashed_password, is_active, dob, address,
	reset_password_token, reset_token_expires_at, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var dob *time.Time
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.HashedPassword, &u.IsActive, &dob, &u.Address,
		&u.ResetTokenHash, &u.ResetTokenExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, dbErr(err)
	}
	if dob != nil {
		u.DOB = &model.Date{Time: *dob}
	}
	return u, nil
}

func dobArg(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return dbErr(s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, full_name, hashed_password, is_active, dob, address)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at, updated_at`,
		u.ID, u.Email, u.FullName, u.HashedPassword, u.IsActive, dobArg(u.DOB), u.Address,
	).Scan(&u.CreatedAt, &u.UpdatedAt))
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (s *Store) UpdateUser(ctx context.Context, id string, p model.UserPatch) (*model.User, error) {
	var out *model.User
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		p.Apply(u)
		err = tx.QueryRow(ctx,
			`UPDATE users SET full_name=$1, dob=$2, address=$3, updated_at=NOW()
			 WHERE id=$4 RETURNING updated_at`,
			u.FullName, dobArg(u.DOB), u.Address, id,
		).Scan(&u.UpdatedAt)
		if err != nil {
			return dbErr(err)
		}
		out = u
		return nil
	})
	return out, err
}

func (s *Store) SetUserActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET is_active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	if err != nil {
		return dbErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) ListActiveUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userCols+` FROM users WHERE is_active ORDER BY created_at, id`)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, dbErr(rows.Err())
}
