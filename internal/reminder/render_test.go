package reminder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-reminder-api/internal/model"
)

func TestRenderDigest(t *testing.T) {
	nine := model.TimeOfDay{Hour: 21, Minute: 30}
	meal := daily("m1")
	meal.Name, meal.Dosage = "Metformin", "500mg"
	timed := model.Medication{ID: "m2", Name: "Amlodipine", Dosage: "5mg", TimingType: model.TimingSpecific, SpecificTime: &nine, Frequency: model.FrequencyDaily}

	due := DueToday{
		Medications:  []model.Medication{meal, timed},
		Appointments: []model.Appointment{{ID: "a1", Doctor: "Iyer", At: at(2024, 1, 15, 15, 4)}},
	}

	d, err := NewRenderer(ist).Render("Asha", due, at(2024, 1, 15, 8, 0))
	require.NoError(t, err)

	assert.Equal(t, "Your Daily Health Reminders", d.Subject)
	assert.Equal(t, "Hello Asha,\nHere are your reminders for today:\n"+
		"\n--- Medications to Take ---\n"+
		"- Metformin (500mg) - Take After Breakfast\n"+
		"- Amlodipine (5mg) - Take 09:30 PM\n"+
		"\n--- Appointments Today ---\n"+
		"- Dr. Iyer at 03:04 PM\n", d.Text)

	assert.Equal(t, "<html><body><h2>Hello Asha,</h2><p>Here are your health reminders for today, January 15, 2024:</p>"+
		"<h3>💊 Medications to Take:</h3><ul>"+
		"<li><b>Metformin</b> (500mg) - Take After Breakfast</li>"+
		"<li><b>Amlodipine</b> (5mg) - Take 09:30 PM</li></ul>"+
		"<h3>🗓️ Appointments Today:</h3><ul>"+
		"<li><b>Dr. Iyer</b> at 03:04 PM</li></ul>"+
		"<p>Have a healthy day!</p></body></html>", d.HTML)
}

func TestRenderOmitsEmptySections(t *testing.T) {
	due := DueToday{Appointments: []model.Appointment{{ID: "a1", Doctor: "Rao", At: at(2024, 1, 15, 10, 0)}}}
	d, err := NewRenderer(ist).Render("Asha", due, at(2024, 1, 15, 8, 0))
	require.NoError(t, err)

	assert.NotContains(t, d.Text, "Medications to Take")
	assert.NotContains(t, d.HTML, "Medications to Take")
	assert.Contains(t, d.Text, "- Dr. Rao at 10:00 AM\n")
}

func TestRenderEscapesHTML(t *testing.T) {
	m := daily("m1")
	m.Name = "<script>alert(1)</script>"
	d, err := NewRenderer(ist).Render("Tom & Jerry", DueToday{Medications: []model.Medication{m}}, at(2024, 1, 15, 8, 0))
	require.NoError(t, err)

	assert.NotContains(t, d.HTML, "<script>")
	assert.Contains(t, d.HTML, "Tom &amp; Jerry")
	assert.Contains(t, d.Text, "<script>alert(1)</script>", "plain text is not escaped")
}

func TestRenderUsesRendererZone(t *testing.T) {
	// 09:30 UTC is 15:00 in IST
	appt := model.Appointment{ID: "a1", Doctor: "Iyer", At: at(2024, 1, 15, 15, 0).UTC()}
	d, err := NewRenderer(ist).Render("Asha", DueToday{Appointments: []model.Appointment{appt}}, appt.At)
	require.NoError(t, err)
	assert.True(t, strings.Contains(d.Text, "at 03:00 PM"), d.Text)
}
