// Package reminder computes what each user has due today and delivers the
// daily digest.
//
// The same evaluation backs both the scheduled email batch and the
// dashboard read path, so the two always agree on what is "due today".
// Day boundaries are taken in one reference zone for all users.
package reminder

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"health-reminder-api/internal/model"
)

// DueToday is the evaluation result for one user and one instant.
type DueToday struct {
	Medications  []model.Medication
	Appointments []model.Appointment
}

// Empty reports whether there is nothing to remind the user about.
func (d DueToday) Empty() bool {
	return len(d.Medications) == 0 && len(d.Appointments) == 0
}

// DayBounds returns the first and last instant of now's calendar day in loc.
func DayBounds(now time.Time, loc *time.Location) (start, end time.Time) {
	l := now.In(loc)
	start = time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
	end = start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}

// MedicationDue reports whether a medication still has to be taken today.
// Only Daily medications are ever due; one taken exactly at midnight counts
// as taken.
func MedicationDue(m model.Medication, dayStart time.Time) bool {
	if m.Frequency != model.FrequencyDaily {
		return false
	}
	return m.LastTakenAt == nil || m.LastTakenAt.Before(dayStart)
}

// Evaluate selects the due medications and today's appointments. It is
// pure: inputs are not modified and nothing is read besides the arguments.
// Medications keep their input order; appointments are sorted by time.
func Evaluate(meds []model.Medication, appts []model.Appointment, now time.Time, loc *time.Location) DueToday {
	start, end := DayBounds(now, loc)

	var out DueToday
	for _, m := range meds {
		if MedicationDue(m, start) {
			out.Medications = append(out.Medications, m)
		}
	}
	for _, a := range appts {
		if !a.At.Before(start) && !a.At.After(end) {
			out.Appointments = append(out.Appointments, a)
		}
	}
	slices.SortStableFunc(out.Appointments, byTimeThenID)
	return out
}

func byTimeThenID(a, b model.Appointment) int {
	if c := a.At.Compare(b.At); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// NextAppointment returns the earliest appointment at or after now, ties
// going to the lowest id, or nil.
func NextAppointment(appts []model.Appointment, now time.Time) *model.Appointment {
	var next *model.Appointment
	for i := range appts {
		a := &appts[i]
		if a.At.Before(now) {
			continue
		}
		if next == nil || byTimeThenID(*a, *next) < 0 {
			next = a
		}
	}
	if next == nil {
		return nil
	}
	c := *next
	return &c
}

// Source is the slice of the entity store the evaluator reads.
type Source interface {
	ListMedications(ctx context.Context, ownerID string) ([]model.Medication, error)
	ListAppointments(ctx context.Context, ownerID string) ([]model.Appointment, error)
}

// Evaluator binds Evaluate to the store and the reference zone.
type Evaluator struct {
	src Source
	loc *time.Location
}

func NewEvaluator(src Source, loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{src: src, loc: loc}
}

func (e *Evaluator) Location() *time.Location { return e.loc }

func (e *Evaluator) load(ctx context.Context, userID string) ([]model.Medication, []model.Appointment, error) {
	meds, err := e.src.ListMedications(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list medications: %w", err)
	}
	appts, err := e.src.ListAppointments(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list appointments: %w", err)
	}
	return meds, appts, nil
}

// DueToday evaluates one user at now. Store errors are returned as is.
func (e *Evaluator) DueToday(ctx context.Context, userID string, now time.Time) (DueToday, error) {
	meds, appts, err := e.load(ctx, userID)
	if err != nil {
		return DueToday{}, err
	}
	return Evaluate(meds, appts, now, e.loc), nil
}

// Snapshot is DueToday plus the next upcoming appointment, from one read.
func (e *Evaluator) Snapshot(ctx context.Context, userID string, now time.Time) (DueToday, *model.Appointment, error) {
	meds, appts, err := e.load(ctx, userID)
	if err != nil {
		return DueToday{}, nil, err
	}
	return Evaluate(meds, appts, now, e.loc), NextAppointment(appts, now), nil
}
