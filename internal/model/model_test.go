package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestMedicationValidate(t *testing.T) {
	nine := TimeOfDay{Hour: 9}
	tests := []struct {
		name    string
		med     Medication
		wantMsg string
	}{
		{"meal ok", Medication{Name: "A", Dosage: "1", TimingType: TimingMeal, MealTiming: ptr("After Breakfast"), Frequency: FrequencyDaily}, ""},
		{"specific ok", Medication{Name: "A", Dosage: "1", TimingType: TimingSpecific, SpecificTime: &nine, Frequency: FrequencyAsNeeded}, ""},
		{"specific missing", Medication{Name: "A", Dosage: "1", TimingType: TimingSpecific, Frequency: FrequencyDaily}, "Specific time is required for this timing type."},
		{"meal missing", Medication{Name: "A", Dosage: "1", TimingType: TimingMeal, Frequency: FrequencyDaily}, "Meal timing is required for this timing type."},
		{"meal blank", Medication{Name: "A", Dosage: "1", TimingType: TimingMeal, MealTiming: ptr("  "), Frequency: FrequencyDaily}, "Meal timing is required for this timing type."},
		{"empty name", Medication{Dosage: "1", TimingType: TimingMeal, MealTiming: ptr("x"), Frequency: FrequencyDaily}, "name is required"},
		{"long dosage", Medication{Name: "A", Dosage: strings.Repeat("x", 101), TimingType: TimingMeal, MealTiming: ptr("x"), Frequency: FrequencyDaily}, "dosage must be at most 100 characters"},
		{"bad timing type", Medication{Name: "A", Dosage: "1", TimingType: "Sometimes", Frequency: FrequencyDaily}, `timing_type must be "Meal-Related" or "Specific-Time"`},
		{"bad frequency", Medication{Name: "A", Dosage: "1", TimingType: TimingMeal, MealTiming: ptr("x"), Frequency: "Weekly"}, `frequency must be "Daily" or "As-Needed"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.med.Validate()
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("got %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestMedicationPatchSwitchesTiming(t *testing.T) {
	m := Medication{Name: "A", Dosage: "1", TimingType: TimingMeal, MealTiming: ptr("After Lunch"), Frequency: FrequencyDaily}

	tt := TimingSpecific
	MedicationPatch{TimingType: &tt, SpecificTime: &TimeOfDay{Hour: 21, Minute: 30}}.Apply(&m)

	if m.MealTiming != nil {
		t.Errorf("meal timing should be cleared, got %q", *m.MealTiming)
	}
	if m.SpecificTime == nil || m.SpecificTime.String() != "21:30:00" {
		t.Fatalf("specific time not applied: %+v", m.SpecificTime)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if m.Name != "A" || m.Dosage != "1" {
		t.Error("absent fields must stay unchanged")
	}
}

func TestMedicationPatchSwitchWithoutTimeFails(t *testing.T) {
	m := Medication{Name: "A", Dosage: "1", TimingType: TimingMeal, MealTiming: ptr("After Lunch"), Frequency: FrequencyDaily}
	tt := TimingSpecific
	MedicationPatch{TimingType: &tt}.Apply(&m)
	if err := m.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTimingLabel(t *testing.T) {
	pm := TimeOfDay{Hour: 15, Minute: 4}
	if got := (Medication{SpecificTime: &pm}).TimingLabel(); got != "03:04 PM" {
		t.Errorf("got %q", got)
	}
	if got := (Medication{MealTiming: ptr("Before Dinner"), SpecificTime: &pm}).TimingLabel(); got != "Before Dinner" {
		t.Errorf("got %q", got)
	}
	if got := (Medication{}).TimingLabel(); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestMedicationJSON(t *testing.T) {
	in := `{"name":"Metformin","dosage":"500mg","timing_type":"Specific-Time","specific_time":"08:15","frequency":"As Needed"}`
	var m Medication
	if err := json.Unmarshal([]byte(in), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Frequency != FrequencyAsNeeded {
		t.Errorf("frequency = %q", m.Frequency)
	}
	if m.SpecificTime == nil || *m.SpecificTime != (TimeOfDay{Hour: 8, Minute: 15}) {
		t.Fatalf("specific time = %+v", m.SpecificTime)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"specific_time":"08:15:00"`) {
		t.Errorf("unexpected json: %s", out)
	}
}

func TestTimeOfDayRejectsGarbage(t *testing.T) {
	var tod TimeOfDay
	if err := json.Unmarshal([]byte(`"25:99"`), &tod); err == nil {
		t.Fatal("expected error")
	}
}

func TestFromDuration(t *testing.T) {
	d := 13*time.Hour + 5*time.Minute + 7*time.Second
	if got := FromDuration(d); got != (TimeOfDay{13, 5, 7}) || got.Duration() != d {
		t.Errorf("got %+v", got)
	}
}

func TestAppointmentValidate(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	if err := (Appointment{Doctor: "Rao", At: at}).Validate(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if err := (Appointment{Doctor: "Rao"}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("missing datetime should fail, got %v", err)
	}
	if err := (Appointment{Doctor: "Rao", At: at, Purpose: ptr(strings.Repeat("p", 301))}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("long purpose should fail, got %v", err)
	}
}

func TestContactValidate(t *testing.T) {
	if err := (EmergencyContact{Name: "Ravi", Phone: "+91 98765 43210"}).Validate(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if err := (EmergencyContact{Name: "Ravi", Phone: strings.Repeat("9", 21)}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("long phone should fail, got %v", err)
	}
}

func TestUserPatchApply(t *testing.T) {
	u := User{Email: "a@b.com", FullName: ptr("Old"), Address: ptr("Here")}
	UserPatch{FullName: ptr("New")}.Apply(&u)
	if u.DisplayName() != "New" || *u.Address != "Here" {
		t.Errorf("got %+v", u)
	}
	if (User{Email: "x@y.z"}).DisplayName() != "x@y.z" {
		t.Error("display name should fall back to email")
	}
}

func TestTimestampResolve(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-15T10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, ist)},
		{"2024-01-15 10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, ist)},
		{"2024-01-15T10:30:00.123456", time.Date(2024, 1, 15, 10, 30, 0, 123456000, ist)},
		{"2024-01-15T10:30:00Z", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-15T10:30:00-04:00", time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		var ts Timestamp
		if err := json.Unmarshal([]byte(`"`+tt.in+`"`), &ts); err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if got := ts.Resolve(ist); !got.Equal(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.in, got, tt.want)
		}
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"15/01/2024"`), &ts); err == nil {
		t.Error("expected error")
	}
}
