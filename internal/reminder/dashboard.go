package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"health-reminder-api/internal/model"
)

const (
	NoMedicationsPlaceholder = "No pending medications for today."
	NoAppointmentPlaceholder = "No upcoming appointments."
)

type DashboardMedication struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
	Timing string `json:"timing"`
}

type Placeholders struct {
	Medications string `json:"medications,omitempty"`
	Appointment string `json:"appointment,omitempty"`
}

// Dashboard is the per-request snapshot. It is always complete: empty
// sections carry a placeholder instead of being left out.
type Dashboard struct {
	UserFullName     string                `json:"user_full_name"`
	MedicationsToday []DashboardMedication `json:"medications_today"`
	NextAppointment  *model.Appointment    `json:"next_appointment"`
	HealthTip        string                `json:"health_tip"`
	Placeholders     Placeholders          `json:"placeholders"`
}

func BuildDashboard(u model.User, due DueToday, next *model.Appointment, tip string) Dashboard {
	d := Dashboard{
		UserFullName:     u.DisplayName(),
		MedicationsToday: make([]DashboardMedication, 0, len(due.Medications)),
		NextAppointment:  next,
		HealthTip:        tip,
	}
	for _, m := range due.Medications {
		d.MedicationsToday = append(d.MedicationsToday, DashboardMedication{
			Name: m.Name, Dosage: m.Dosage, Timing: m.TimingLabel(),
		})
	}
	if len(d.MedicationsToday) == 0 {
		d.Placeholders.Medications = NoMedicationsPlaceholder
	}
	if next == nil {
		d.Placeholders.Appointment = NoAppointmentPlaceholder
	}
	if d.HealthTip == "" {
		d.HealthTip = model.DefaultHealthTip
	}
	return d
}

// DashboardStore is what the dashboard reads besides the evaluator inputs.
type DashboardStore interface {
	Source
	UserByID(ctx context.Context, id string) (*model.User, error)
	RandomHealthTip(ctx context.Context) (*model.HealthTip, error)
}

type DashboardService struct {
	store DashboardStore
	eval  *Evaluator
}

func NewDashboardService(st DashboardStore, eval *Evaluator) *DashboardService {
	return &DashboardService{store: st, eval: eval}
}

// Dashboard builds the snapshot for userID as of now.
func (s *DashboardService) Dashboard(ctx context.Context, userID string, now time.Time) (Dashboard, error) {
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load user: %w", err)
	}
	due, next, err := s.eval.Snapshot(ctx, userID, now)
	if err != nil {
		return Dashboard{}, err
	}
	tip, err := s.tip(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(*u, due, next, tip), nil
}

// an empty catalog falls back to the default tip
func (s *DashboardService) tip(ctx context.Context) (string, error) {
	t, err := s.store.RandomHealthTip(ctx)
	if errors.Is(err, model.ErrNotFound) {
		return model.DefaultHealthTip, nil
	}
	if err != nil {
		return "", fmt.Errorf("health tip: %w", err)
	}
	return t.Text, nil
}
