package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"health-reminder-api/internal/model"
)

// SetResetToken stores the hash of a freshly issued reset token,
// replacing any earlier one.
func (s *Store) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET reset_password_token=$1, reset_token_expires_at=$2, updated_at=NOW()
		 WHERE id=$3`,
		tokenHash, expiresAt, userID,
	)
	if err != nil {
		return dbErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ResetPassword consumes the token: the password is replaced and the token
// cleared in one transaction, so a token works once.
func (s *Store) ResetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var (
			id      string
			expires *time.Time
		)
		err := tx.QueryRow(ctx,
			`SELECT id, reset_token_expires_at FROM users
			 WHERE reset_password_token = $1 FOR UPDATE`, tokenHash,
		).Scan(&id, &expires)
		if err != nil {
			if dbErr(err) == model.ErrNotFound {
				return model.ErrInvalidToken
			}
			return dbErr(err)
		}
		if expires == nil || !now.Before(*expires) {
			return model.ErrInvalidToken
		}

		_, err = tx.Exec(ctx,
			`UPDATE users
			 SET hashed_password=$1, reset_password_token=NULL, reset_token_expires_at=NULL, updated_at=NOW()
			 WHERE id=$2`,
			passwordHash, id,
		)
		return dbErr(err)
	})
}
