package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"health-reminder-api/internal/model"
)

const medicationCols = `id, owner_id, name, dosage, timing_type, meal_timing, specific_time, frequency, last_taken_at`

func scanMedication(row pgx.Row) (*model.Medication, error) {
	m := &model.Medication{}
	var (
		timing, freq string
		at           pgtype.Time
	)
	err := row.Scan(&m.ID, &m.OwnerID, &m.Name, &m.Dosage, &timing, &m.MealTiming, &at, &freq, &m.LastTakenAt)
	if err != nil {
		return nil, dbErr(err)
	}
	m.TimingType = model.TimingType(timing)
	m.Frequency = model.Frequency(freq)
	if at.Valid {
		tod := model.FromDuration(time.Duration(at.Microseconds) * time.Microsecond)
		m.SpecificTime = &tod
	}
	if m.LastTakenAt != nil {
		utc := m.LastTakenAt.UTC()
		m.LastTakenAt = &utc
	}
	return m, nil
}

func timeArg(t *model.TimeOfDay) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	return pgtype.Time{Microseconds: t.Duration().Microseconds(), Valid: true}
}

func (s *Store) CreateMedication(ctx context.Context, m *model.Medication) error {
	m.Normalize()
	if err := m.Validate(); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO medications (id, owner_id, name, dosage, timing_type, meal_timing, specific_time, frequency, last_taken_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		m.ID, m.OwnerID, m.Name, m.Dosage, string(m.TimingType), m.MealTiming, timeArg(m.SpecificTime),
		string(m.Frequency), m.LastTakenAt,
	)
	return dbErr(err)
}

func (s *Store) GetMedication(ctx context.Context, id string) (*model.Medication, error) {
	return scanMedication(s.pool.QueryRow(ctx,
		`SELECT `+medicationCols+` FROM medications WHERE id = $1`, id))
}

func (s *Store) ListMedications(ctx context.Context, ownerID string) ([]model.Medication, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+medicationCols+` FROM medications
		 WHERE owner_id = $1
		 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	var out []model.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, dbErr(rows.Err())
}

func (s *Store) UpdateMedication(ctx context.Context, id string, p model.MedicationPatch) (*model.Medication, error) {
	var out *model.Medication
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		m, err := scanMedication(tx.QueryRow(ctx,
			`SELECT `+medicationCols+` FROM medications WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		p.Apply(m)
		if err := m.Validate(); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE medications
			 SET name=$1, dosage=$2, timing_type=$3, meal_timing=$4, specific_time=$5, frequency=$6, updated_at=NOW()
			 WHERE id=$7`,
			m.Name, m.Dosage, string(m.TimingType), m.MealTiming, timeArg(m.SpecificTime), string(m.Frequency), id,
		)
		if err != nil {
			return dbErr(err)
		}
		out = m
		return nil
	})
	return out, err
}

// MarkMedicationTaken overwrites last_taken_at. Repeated calls on the same
// day are allowed for multi-dose medications.
func (s *Store) MarkMedicationTaken(ctx context.Context, id string, at time.Time) (*model.Medication, error) {
	return scanMedication(s.pool.QueryRow(ctx,
		`UPDATE medications SET last_taken_at=$1, updated_at=NOW()
		 WHERE id=$2
		 RETURNING `+medicationCols, at.UTC(), id))
}

func (s *Store) DeleteMedication(ctx context.Context, id string) (*model.Medication, error) {
	return scanMedication(s.pool.QueryRow(ctx,
		`DELETE FROM medications WHERE id=$1 RETURNING `+medicationCols, id))
}
