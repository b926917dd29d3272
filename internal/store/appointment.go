package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"health-reminder-api/internal/model"
)

const appointmentCols = `id, owner_id, doctor_name, appointment_datetime, location, purpose`

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := row.Scan(&a.ID, &a.OwnerID, &a.Doctor, &a.At, &a.Location, &a.Purpose)
	if err != nil {
		return nil, dbErr(err)
	}
	return a, nil
}

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO appointments (id, owner_id, doctor_name, appointment_datetime, location, purpose)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.OwnerID, a.Doctor, a.At, a.Location, a.Purpose,
	)
	return dbErr(err)
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	return scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

// ListAppointments returns the owner's appointments, latest first.
func (s *Store) ListAppointments(ctx context.Context, ownerID string) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+appointmentCols+` FROM appointments
		 WHERE owner_id = $1
		 ORDER BY appointment_datetime DESC, id`, ownerID)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, dbErr(rows.Err())
}

func (s *Store) UpdateAppointment(ctx context.Context, id string, p model.AppointmentPatch) (*model.Appointment, error) {
	var out *model.Appointment
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		a, err := scanAppointment(tx.QueryRow(ctx,
			`SELECT `+appointmentCols+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		p.Apply(a)
		if err := a.Validate(); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE appointments
			 SET doctor_name=$1, appointment_datetime=$2, location=$3, purpose=$4, updated_at=NOW()
			 WHERE id=$5`,
			a.Doctor, a.At, a.Location, a.Purpose, id,
		)
		if err != nil {
			return dbErr(err)
		}
		out = a
		return nil
	})
	return out, err
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	return scanAppointment(s.pool.QueryRow(ctx,
		`DELETE FROM appointments WHERE id=$1 RETURNING `+appointmentCols, id))
}
