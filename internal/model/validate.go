package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

func checkLen(field, v string, min, max int) error {
	n := utf8.RuneCountInString(v)
	if n < min {
		if min == 1 {
			return invalid(fmt.Sprintf("%s is required", field))
		}
		return invalid(fmt.Sprintf("%s must be at least %d characters", field, min))
	}
	if n > max {
		return invalid(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}

func checkOptLen(field string, v *string, max int) error {
	if v == nil {
		return nil
	}
	return checkLen(field, *v, 0, max)
}

func (m Medication) Validate() error {
	if err := checkLen("name", m.Name, 1, 100); err != nil {
		return err
	}
	if err := checkLen("dosage", m.Dosage, 1, 100); err != nil {
		return err
	}
	if !m.TimingType.Valid() {
		return invalid(fmt.Sprintf("timing_type must be %q or %q", TimingMeal, TimingSpecific))
	}
	if !m.Frequency.Valid() {
		return invalid(fmt.Sprintf("frequency must be %q or %q", FrequencyDaily, FrequencyAsNeeded))
	}
	if m.TimingType == TimingSpecific && m.SpecificTime == nil {
		return invalid("Specific time is required for this timing type.")
	}
	if m.TimingType == TimingMeal && (m.MealTiming == nil || strings.TrimSpace(*m.MealTiming) == "") {
		return invalid("Meal timing is required for this timing type.")
	}
	return nil
}

func (a Appointment) Validate() error {
	if err := checkLen("doctor_name", a.Doctor, 1, 100); err != nil {
		return err
	}
	if a.At.IsZero() {
		return invalid("appointment_datetime is required")
	}
	if err := checkOptLen("location", a.Location, 200); err != nil {
		return err
	}
	return checkOptLen("purpose", a.Purpose, 300)
}

func (c EmergencyContact) Validate() error {
	if err := checkLen("contact_name", c.Name, 1, 100); err != nil {
		return err
	}
	if err := checkLen("phone_number", c.Phone, 1, 20); err != nil {
		return err
	}
	return checkOptLen("relationship_type", c.Relationship, 50)
}
