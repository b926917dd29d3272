package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"health-reminder-api/internal/model"
)

// Repository is the entity store used by the HTTP and gRPC layers and the
// reminder batch. Unknown ids yield model.ErrNotFound; create and update
// validate before writing and return model.ErrValidation errors untouched.
type Repository interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, p model.UserPatch) (*model.User, error)
	SetUserActive(ctx context.Context, id string, active bool) error
	ListActiveUsers(ctx context.Context) ([]model.User, error)

	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	ResetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) error

	CreateMedication(ctx context.Context, m *model.Medication) error
	GetMedication(ctx context.Context, id string) (*model.Medication, error)
	ListMedications(ctx context.Context, ownerID string) ([]model.Medication, error)
	UpdateMedication(ctx context.Context, id string, p model.MedicationPatch) (*model.Medication, error)
	MarkMedicationTaken(ctx context.Context, id string, at time.Time) (*model.Medication, error)
	DeleteMedication(ctx context.Context, id string) (*model.Medication, error)

	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, ownerID string) ([]model.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, p model.AppointmentPatch) (*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) (*model.Appointment, error)

	CreateContact(ctx context.Context, c *model.EmergencyContact) error
	GetContact(ctx context.Context, id string) (*model.EmergencyContact, error)
	ListContacts(ctx context.Context, ownerID string) ([]model.EmergencyContact, error)
	UpdateContact(ctx context.Context, id string, p model.ContactPatch) (*model.EmergencyContact, error)
	DeleteContact(ctx context.Context, id string) (*model.EmergencyContact, error)

	RandomHealthTip(ctx context.Context) (*model.HealthTip, error)

	Ping(ctx context.Context) error
	Close()
}

// Store is the Postgres implementation.
type Store struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects and pings before returning.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return New(pool), nil
}

func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() { s.pool.Close() }

func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return dbErr(err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return dbErr(tx.Commit(ctx))
}

const uniqueViolation = "23505"

// dbErr maps driver errors onto the model sentinels.
func dbErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return model.ErrAlreadyExists
	}
	return fmt.Errorf("db error: %w", err)
}
