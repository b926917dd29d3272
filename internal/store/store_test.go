package store_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-reminder-api/internal/model"
	"health-reminder-api/internal/store"
)

func ptr[T any](v T) *T { return &v }

func TestMemoryRepository(t *testing.T) {
	testRepository(t, store.NewMemory())
}

func TestPostgresRepository(t *testing.T) {
	_ = godotenv.Load("../../.env")
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	st, err := store.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	require.NoError(t, st.Migrate(ctx, "up", zerolog.Nop()))

	testRepository(t, st)

	t.Run("health tip catalog is seeded", func(t *testing.T) {
		tip, err := st.RandomHealthTip(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, tip.Text)
	})
}

func newUser(t *testing.T, repo store.Repository) *model.User {
	t.Helper()
	u := &model.User{
		Email:          fmt.Sprintf("test-%s@test.com", uuid.New().String()[:8]),
		FullName:       ptr("Asha Rao"),
		HashedPassword: "x",
		IsActive:       true,
	}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func testRepository(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	t.Run("users", func(t *testing.T) {
		u := newUser(t, repo)

		dup := &model.User{Email: u.Email, HashedPassword: "y", IsActive: true}
		assert.ErrorIs(t, repo.CreateUser(ctx, dup), model.ErrAlreadyExists)

		got, err := repo.UserByEmail(ctx, u.Email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		dob := &model.Date{Time: time.Date(1950, 3, 14, 0, 0, 0, 0, time.UTC)}
		upd, err := repo.UpdateUser(ctx, u.ID, model.UserPatch{DOB: dob})
		require.NoError(t, err)
		assert.Equal(t, "Asha Rao", *upd.FullName)
		require.NotNil(t, upd.DOB)
		assert.Equal(t, "1950-03-14", upd.DOB.Format(time.DateOnly))

		_, err = repo.UserByID(ctx, uuid.New().String())
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("active users", func(t *testing.T) {
		u := newUser(t, repo)
		require.NoError(t, repo.SetUserActive(ctx, u.ID, false))

		active, err := repo.ListActiveUsers(ctx)
		require.NoError(t, err)
		for _, a := range active {
			assert.NotEqual(t, u.ID, a.ID, "inactive user listed")
		}
		assert.ErrorIs(t, repo.SetUserActive(ctx, uuid.New().String(), true), model.ErrNotFound)
	})

	t.Run("password reset consumes token", func(t *testing.T) {
		u := newUser(t, repo)
		now := time.Now()
		hash := "hash-" + uuid.New().String()

		require.NoError(t, repo.SetResetToken(ctx, u.ID, hash, now.Add(time.Hour)))
		require.NoError(t, repo.ResetPassword(ctx, hash, "new-hash", now))

		got, err := repo.UserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", got.HashedPassword)
		assert.Nil(t, got.ResetTokenHash)

		assert.ErrorIs(t, repo.ResetPassword(ctx, hash, "again", now), model.ErrInvalidToken)
	})

	t.Run("expired reset token", func(t *testing.T) {
		u := newUser(t, repo)
		now := time.Now()
		hash := "hash-" + uuid.New().String()
		require.NoError(t, repo.SetResetToken(ctx, u.ID, hash, now.Add(-time.Second)))
		assert.ErrorIs(t, repo.ResetPassword(ctx, hash, "x", now), model.ErrInvalidToken)
	})

	t.Run("medications", func(t *testing.T) {
		u := newUser(t, repo)

		bad := &model.Medication{OwnerID: u.ID, Name: "A", Dosage: "1", TimingType: model.TimingSpecific, Frequency: model.FrequencyDaily}
		assert.ErrorIs(t, repo.CreateMedication(ctx, bad), model.ErrValidation)
		list, err := repo.ListMedications(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, list, "invalid medication must not be written")

		m := &model.Medication{
			OwnerID: u.ID, Name: "Metformin", Dosage: "500mg",
			TimingType: model.TimingMeal, MealTiming: ptr("After Breakfast"),
			SpecificTime: &model.TimeOfDay{Hour: 7},
			Frequency:    model.FrequencyDaily,
		}
		require.NoError(t, repo.CreateMedication(ctx, m))
		assert.Nil(t, m.SpecificTime, "non-applicable timing field cleared")

		second := &model.Medication{
			OwnerID: u.ID, Name: "Amlodipine", Dosage: "5mg",
			TimingType: model.TimingSpecific, SpecificTime: &model.TimeOfDay{Hour: 21, Minute: 30},
			Frequency: model.FrequencyAsNeeded,
		}
		require.NoError(t, repo.CreateMedication(ctx, second))

		list, err = repo.ListMedications(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, m.ID, list[0].ID)
		require.NotNil(t, list[1].SpecificTime)
		assert.Equal(t, "21:30:00", list[1].SpecificTime.String())

		// switching timing type without the matching field is rejected
		tt := model.TimingSpecific
		_, err = repo.UpdateMedication(ctx, m.ID, model.MedicationPatch{TimingType: &tt})
		assert.ErrorIs(t, err, model.ErrValidation)
		got, err := repo.GetMedication(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TimingMeal, got.TimingType, "failed patch must not be written")

		upd, err := repo.UpdateMedication(ctx, m.ID, model.MedicationPatch{
			TimingType: &tt, SpecificTime: &model.TimeOfDay{Hour: 8, Minute: 15},
		})
		require.NoError(t, err)
		assert.Nil(t, upd.MealTiming)
		assert.Equal(t, "Metformin", upd.Name)

		first := time.Now().Add(-time.Hour)
		taken, err := repo.MarkMedicationTaken(ctx, m.ID, first)
		require.NoError(t, err)
		require.NotNil(t, taken.LastTakenAt)
		againAt := time.Now()
		taken, err = repo.MarkMedicationTaken(ctx, m.ID, againAt)
		require.NoError(t, err, "marking twice a day is allowed")
		assert.WithinDuration(t, againAt, *taken.LastTakenAt, time.Millisecond)
		assert.Equal(t, time.UTC, taken.LastTakenAt.Location())

		del, err := repo.DeleteMedication(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, m.ID, del.ID)
		_, err = repo.GetMedication(ctx, m.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
		_, err = repo.DeleteMedication(ctx, m.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("appointments", func(t *testing.T) {
		u := newUser(t, repo)
		base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

		early := &model.Appointment{OwnerID: u.ID, Doctor: "Iyer", At: base}
		late := &model.Appointment{OwnerID: u.ID, Doctor: "Rao", At: base.Add(48 * time.Hour), Location: ptr("City Clinic")}
		require.NoError(t, repo.CreateAppointment(ctx, early))
		require.NoError(t, repo.CreateAppointment(ctx, late))
		assert.ErrorIs(t, repo.CreateAppointment(ctx, &model.Appointment{OwnerID: u.ID}), model.ErrValidation)

		list, err := repo.ListAppointments(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, late.ID, list[0].ID, "latest first")

		upd, err := repo.UpdateAppointment(ctx, early.ID, model.AppointmentPatch{Purpose: ptr("Checkup")})
		require.NoError(t, err)
		assert.Equal(t, "Iyer", upd.Doctor)
		assert.Equal(t, "Checkup", *upd.Purpose)
		assert.True(t, upd.At.Equal(base))

		_, err = repo.DeleteAppointment(ctx, early.ID)
		require.NoError(t, err)
		_, err = repo.GetAppointment(ctx, early.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("contacts", func(t *testing.T) {
		u := newUser(t, repo)
		c := &model.EmergencyContact{OwnerID: u.ID, Name: "Ravi", Phone: "+91 98765 43210", Relationship: ptr("Son")}
		require.NoError(t, repo.CreateContact(ctx, c))

		upd, err := repo.UpdateContact(ctx, c.ID, model.ContactPatch{Phone: ptr("100")})
		require.NoError(t, err)
		assert.Equal(t, "100", upd.Phone)
		assert.Equal(t, "Son", *upd.Relationship)

		_, err = repo.UpdateContact(ctx, c.ID, model.ContactPatch{Name: ptr("")})
		assert.ErrorIs(t, err, model.ErrValidation)

		list, err := repo.ListContacts(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Ravi", list[0].Name)

		_, err = repo.DeleteContact(ctx, c.ID)
		require.NoError(t, err)
		list, err = repo.ListContacts(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestMemoryHealthTip(t *testing.T) {
	ctx := context.Background()
	_, err := store.NewMemory().RandomHealthTip(ctx)
	assert.ErrorIs(t, err, model.ErrNotFound)

	tip, err := store.NewMemory(model.HealthTip{ID: "1", Text: "Walk daily", Category: "Exercise"}).RandomHealthTip(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Walk daily", tip.Text)
}
