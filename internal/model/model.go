package model

import "time"

type User struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	FullName            *string    `json:"full_name"`
	HashedPassword      string     `json:"-"`
	IsActive            bool       `json:"is_active"`
	DOB                 *Date      `json:"dob"`
	Address             *string    `json:"address"`
	ResetTokenHash      *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// DisplayName is the name used in greetings; falls back to the email.
func (u User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Email
}

type Medication struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	Name         string     `json:"name"`
	Dosage       string     `json:"dosage"`
	TimingType   TimingType `json:"timing_type"`
	MealTiming   *string    `json:"meal_timing"`
	SpecificTime *TimeOfDay `json:"specific_time"`
	Frequency    Frequency  `json:"frequency"`
	LastTakenAt  *time.Time `json:"last_taken_at"`
}

// TimingLabel is the human-readable "when": the meal label if set,
// otherwise the specific time on a 12-hour clock.
func (m Medication) TimingLabel() string {
	if m.MealTiming != nil && *m.MealTiming != "" {
		return *m.MealTiming
	}
	if m.SpecificTime != nil {
		return m.SpecificTime.Format12h()
	}
	return ""
}

// Normalize clears whichever timing field does not belong to TimingType.
func (m *Medication) Normalize() {
	switch m.TimingType {
	case TimingMeal:
		m.SpecificTime = nil
	case TimingSpecific:
		m.MealTiming = nil
	}
}

type Appointment struct {
	ID       string    `json:"id"`
	OwnerID  string    `json:"owner_id"`
	Doctor   string    `json:"doctor_name"`
	At       time.Time `json:"appointment_datetime"`
	Location *string   `json:"location"`
	Purpose  *string   `json:"purpose"`
}

type EmergencyContact struct {
	ID           string  `json:"id"`
	OwnerID      string  `json:"owner_id"`
	Name         string  `json:"contact_name"`
	Phone        string  `json:"phone_number"`
	Relationship *string `json:"relationship_type"`
}

type HealthTip struct {
	ID       string `json:"id"`
	Text     string `json:"tip_text"`
	Category string `json:"category"`
}

const DefaultHealthTip = "Stay hydrated by drinking plenty of water throughout the day."
