package store

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"health-reminder-api/internal/model"
)

// Memory is an in-process Repository for local runs and tests. Lists come
// back in insertion order, matching the created_at ordering of Store.
type Memory struct {
	mu           sync.RWMutex
	users        []*model.User
	medications  []*model.Medication
	appointments []*model.Appointment
	contacts     []*model.EmergencyContact
	tips         []model.HealthTip
}

var _ Repository = (*Memory)(nil)

func NewMemory(tips ...model.HealthTip) *Memory {
	return &Memory{tips: tips}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.FullName = clonePtr(u.FullName)
	c.DOB = clonePtr(u.DOB)
	c.Address = clonePtr(u.Address)
	c.ResetTokenHash = clonePtr(u.ResetTokenHash)
	c.ResetTokenExpiresAt = clonePtr(u.ResetTokenExpiresAt)
	return &c
}

func cloneMedication(m *model.Medication) *model.Medication {
	c := *m
	c.MealTiming = clonePtr(m.MealTiming)
	c.SpecificTime = clonePtr(m.SpecificTime)
	c.LastTakenAt = clonePtr(m.LastTakenAt)
	return &c
}

func cloneAppointment(a *model.Appointment) *model.Appointment {
	c := *a
	c.Location = clonePtr(a.Location)
	c.Purpose = clonePtr(a.Purpose)
	return &c
}

func cloneContact(ec *model.EmergencyContact) *model.EmergencyContact {
	c := *ec
	c.Relationship = clonePtr(ec.Relationship)
	return &c
}

func find[T any](items []*T, match func(*T) bool) (int, *T) {
	for i, it := range items {
		if match(it) {
			return i, it
		}
	}
	return -1, nil
}

func remove[T any](items []*T, i int) []*T {
	return append(items[:i:i], items[i+1:]...)
}

func sortAppointmentsDesc(as []model.Appointment) {
	slices.SortStableFunc(as, func(a, b model.Appointment) int {
		if c := b.At.Compare(a.At); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// users

func (s *Memory) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := find(s.users, func(x *model.User) bool { return x.Email == u.Email }); dup != nil {
		return model.ErrAlreadyExists
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users = append(s.users, cloneUser(u))
	return nil
}

func (s *Memory) userLocked(match func(*model.User) bool) (*model.User, error) {
	_, u := find(s.users, match)
	if u == nil {
		return nil, model.ErrNotFound
	}
	return u, nil
}

func (s *Memory) UserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := s.userLocked(func(x *model.User) bool { return x.ID == id })
	if err != nil {
		return nil, err
	}
	return cloneUser(u), nil
}

func (s *Memory) UserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := s.userLocked(func(x *model.User) bool { return x.Email == email })
	if err != nil {
		return nil, err
	}
	return cloneUser(u), nil
}

func (s *Memory) UpdateUser(_ context.Context, id string, p model.UserPatch) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.userLocked(func(x *model.User) bool { return x.ID == id })
	if err != nil {
		return nil, err
	}
	p.Apply(u)
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (s *Memory) SetUserActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.userLocked(func(x *model.User) bool { return x.ID == id })
	if err != nil {
		return err
	}
	u.IsActive = active
	return nil
}

func (s *Memory) ListActiveUsers(context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.User
	for _, u := range s.users {
		if u.IsActive {
			out = append(out, *cloneUser(u))
		}
	}
	return out, nil
}

func (s *Memory) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.userLocked(func(x *model.User) bool { return x.ID == userID })
	if err != nil {
		return err
	}
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (s *Memory) ResetPassword(_ context.Context, tokenHash, passwordHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, u := find(s.users, func(x *model.User) bool {
		return x.ResetTokenHash != nil && *x.ResetTokenHash == tokenHash
	})
	if u == nil || u.ResetTokenExpiresAt == nil || !now.Before(*u.ResetTokenExpiresAt) {
		return model.ErrInvalidToken
	}
	u.HashedPassword = passwordHash
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
	return nil
}

// medications

func (s *Memory) CreateMedication(_ context.Context, m *model.Medication) error {
	m.Normalize()
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	s.medications = append(s.medications, cloneMedication(m))
	return nil
}

func (s *Memory) medicationLocked(id string) (int, *model.Medication, error) {
	i, m := find(s.medications, func(x *model.Medication) bool { return x.ID == id })
	if m == nil {
		return -1, nil, model.ErrNotFound
	}
	return i, m, nil
}

func (s *Memory) GetMedication(_ context.Context, id string) (*model.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, m, err := s.medicationLocked(id)
	if err != nil {
		return nil, err
	}
	return cloneMedication(m), nil
}

func (s *Memory) ListMedications(_ context.Context, ownerID string) ([]model.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Medication
	for _, m := range s.medications {
		if m.OwnerID == ownerID {
			out = append(out, *cloneMedication(m))
		}
	}
	return out, nil
}

func (s *Memory) UpdateMedication(_ context.Context, id string, p model.MedicationPatch) (*model.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, cur, err := s.medicationLocked(id)
	if err != nil {
		return nil, err
	}
	next := cloneMedication(cur)
	p.Apply(next)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	*cur = *next
	return cloneMedication(cur), nil
}

func (s *Memory) MarkMedicationTaken(_ context.Context, id string, at time.Time) (*model.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, m, err := s.medicationLocked(id)
	if err != nil {
		return nil, err
	}
	at = at.UTC()
	m.LastTakenAt = &at
	return cloneMedication(m), nil
}

func (s *Memory) DeleteMedication(_ context.Context, id string) (*model.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, m, err := s.medicationLocked(id)
	if err != nil {
		return nil, err
	}
	s.medications = remove(s.medications, i)
	return m, nil
}

// appointments

func (s *Memory) CreateAppointment(_ context.Context, a *model.Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	s.appointments = append(s.appointments, cloneAppointment(a))
	return nil
}

func (s *Memory) appointmentLocked(id string) (int, *model.Appointment, error) {
	i, a := find(s.appointments, func(x *model.Appointment) bool { return x.ID == id })
	if a == nil {
		return -1, nil, model.ErrNotFound
	}
	return i, a, nil
}

func (s *Memory) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, a, err := s.appointmentLocked(id)
	if err != nil {
		return nil, err
	}
	return cloneAppointment(a), nil
}

// ListAppointments returns the owner's appointments, latest first.
func (s *Memory) ListAppointments(_ context.Context, ownerID string) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Appointment
	for _, a := range s.appointments {
		if a.OwnerID == ownerID {
			out = append(out, *cloneAppointment(a))
		}
	}
	sortAppointmentsDesc(out)
	return out, nil
}

func (s *Memory) UpdateAppointment(_ context.Context, id string, p model.AppointmentPatch) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, cur, err := s.appointmentLocked(id)
	if err != nil {
		return nil, err
	}
	next := cloneAppointment(cur)
	p.Apply(next)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	*cur = *next
	return cloneAppointment(cur), nil
}

func (s *Memory) DeleteAppointment(_ context.Context, id string) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, a, err := s.appointmentLocked(id)
	if err != nil {
		return nil, err
	}
	s.appointments = remove(s.appointments, i)
	return a, nil
}

// contacts

func (s *Memory) CreateContact(_ context.Context, c *model.EmergencyContact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	s.contacts = append(s.contacts, cloneContact(c))
	return nil
}

func (s *Memory) contactLocked(id string) (int, *model.EmergencyContact, error) {
	i, c := find(s.contacts, func(x *model.EmergencyContact) bool { return x.ID == id })
	if c == nil {
		return -1, nil, model.ErrNotFound
	}
	return i, c, nil
}

func (s *Memory) GetContact(_ context.Context, id string) (*model.EmergencyContact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, c, err := s.contactLocked(id)
	if err != nil {
		return nil, err
	}
	return cloneContact(c), nil
}

func (s *Memory) ListContacts(_ context.Context, ownerID string) ([]model.EmergencyContact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.EmergencyContact
	for _, c := range s.contacts {
		if c.OwnerID == ownerID {
			out = append(out, *cloneContact(c))
		}
	}
	return out, nil
}

func (s *Memory) UpdateContact(_ context.Context, id string, p model.ContactPatch) (*model.EmergencyContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, cur, err := s.contactLocked(id)
	if err != nil {
		return nil, err
	}
	next := cloneContact(cur)
	p.Apply(next)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	*cur = *next
	return cloneContact(cur), nil
}

func (s *Memory) DeleteContact(_ context.Context, id string) (*model.EmergencyContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, c, err := s.contactLocked(id)
	if err != nil {
		return nil, err
	}
	s.contacts = remove(s.contacts, i)
	return c, nil
}

func (s *Memory) RandomHealthTip(context.Context) (*model.HealthTip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.tips) == 0 {
		return nil, model.ErrNotFound
	}
	t := s.tips[rand.IntN(len(s.tips))]
	return &t, nil
}

func (s *Memory) Ping(context.Context) error { return nil }

func (s *Memory) Close() {}
