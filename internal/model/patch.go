package model

import "time"

// Patch types list the updatable fields of each entity. A nil field is
// absent and leaves the target unchanged.

type UserPatch struct {
	FullName *string `json:"full_name"`
	DOB      *Date   `json:"dob"`
	Address  *string `json:"address"`
}

func (p UserPatch) Apply(u *User) {
	if p.FullName != nil {
		u.FullName = p.FullName
	}
	if p.DOB != nil {
		u.DOB = p.DOB
	}
	if p.Address != nil {
		u.Address = p.Address
	}
}

type MedicationPatch struct {
	Name         *string     `json:"name"`
	Dosage       *string     `json:"dosage"`
	TimingType   *TimingType `json:"timing_type"`
	MealTiming   *string     `json:"meal_timing"`
	SpecificTime *TimeOfDay  `json:"specific_time"`
	Frequency    *Frequency  `json:"frequency"`
}

// Apply merges p into m and re-normalises the timing fields. Callers
// validate the result before persisting.
func (p MedicationPatch) Apply(m *Medication) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Dosage != nil {
		m.Dosage = *p.Dosage
	}
	if p.TimingType != nil {
		m.TimingType = *p.TimingType
	}
	if p.MealTiming != nil {
		m.MealTiming = p.MealTiming
	}
	if p.SpecificTime != nil {
		m.SpecificTime = p.SpecificTime
	}
	if p.Frequency != nil {
		m.Frequency = *p.Frequency
	}
	m.Normalize()
}

type AppointmentPatch struct {
	Doctor   *string    `json:"doctor_name"`
	At       *time.Time `json:"appointment_datetime"`
	Location *string    `json:"location"`
	Purpose  *string    `json:"purpose"`
}

func (p AppointmentPatch) Apply(a *Appointment) {
	if p.Doctor != nil {
		a.Doctor = *p.Doctor
	}
	if p.At != nil {
		a.At = *p.At
	}
	if p.Location != nil {
		a.Location = p.Location
	}
	if p.Purpose != nil {
		a.Purpose = p.Purpose
	}
}

type ContactPatch struct {
	Name         *string `json:"contact_name"`
	Phone        *string `json:"phone_number"`
	Relationship *string `json:"relationship_type"`
}

func (p ContactPatch) Apply(c *EmergencyContact) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Relationship != nil {
		c.Relationship = p.Relationship
	}
}
