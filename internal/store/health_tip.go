package store

import (
	"context"

	"health-reminder-api/internal/model"
)

func (s *Store) RandomHealthTip(ctx context.Context) (*model.HealthTip, error) {
	t := &model.HealthTip{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, tip_text, category FROM health_tips ORDER BY random() LIMIT 1`,
	).Scan(&t.ID, &t.Text, &t.Category)
	if err != nil {
		return nil, dbErr(err)
	}
	return t, nil
}
