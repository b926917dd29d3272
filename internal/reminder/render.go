package reminder

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"
	"time"
)

const DigestSubject = "Your Daily Health Reminders"

const textDigest = "Hello {{.Name}},\nHere are your reminders for today:\n" +
	"{{if .Medications}}\n--- Medications to Take ---\n" +
	"{{range .Medications}}- {{.Name}} ({{.Dosage}}) - Take {{.Timing}}\n{{end}}{{end}}" +
	"{{if .Appointments}}\n--- Appointments Today ---\n" +
	"{{range .Appointments}}- Dr. {{.Doctor}} at {{.Time}}\n{{end}}{{end}}"

const htmlDigest = `<html><body><h2>Hello {{.Name}},</h2><p>Here are your health reminders for today, {{.Date}}:</p>` +
	`{{if .Medications}}<h3>💊 Medications to Take:</h3><ul>` +
	`{{range .Medications}}<li><b>{{.Name}}</b> ({{.Dosage}}) - Take {{.Timing}}</li>{{end}}</ul>{{end}}` +
	`{{if .Appointments}}<h3>🗓️ Appointments Today:</h3><ul>` +
	`{{range .Appointments}}<li><b>Dr. {{.Doctor}}</b> at {{.Time}}</li>{{end}}</ul>{{end}}` +
	`<p>Have a healthy day!</p></body></html>`

// Digest is one user's rendered reminder email.
type Digest struct {
	Subject string
	Text    string
	HTML    string
}

type medLine struct {
	Name, Dosage, Timing string
}

type apptLine struct {
	Doctor, Time string
}

type digestData struct {
	Name         string
	Date         string
	Medications  []medLine
	Appointments []apptLine
}

// Renderer formats DueToday into the plain-text and HTML bodies. Times are
// shown in the renderer's zone on a 12-hour clock.
type Renderer struct {
	loc  *time.Location
	text *template.Template
	html *htmltemplate.Template
}

func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{
		loc:  loc,
		text: template.Must(template.New("digest.txt").Parse(textDigest)),
		html: htmltemplate.Must(htmltemplate.New("digest.html").Parse(htmlDigest)),
	}
}

func (r *Renderer) data(name string, due DueToday, day time.Time) digestData {
	d := digestData{
		Name: name,
		Date: day.In(r.loc).Format("January 02, 2006"),
	}
	for _, m := range due.Medications {
		d.Medications = append(d.Medications, medLine{Name: m.Name, Dosage: m.Dosage, Timing: m.TimingLabel()})
	}
	for _, a := range due.Appointments {
		d.Appointments = append(d.Appointments, apptLine{Doctor: a.Doctor, Time: a.At.In(r.loc).Format("03:04 PM")})
	}
	return d
}

// Render builds both bodies from the same data so they always list the
// same items.
func (r *Renderer) Render(name string, due DueToday, day time.Time) (Digest, error) {
	d := r.data(name, due, day)

	var text, html bytes.Buffer
	if err := r.text.Execute(&text, d); err != nil {
		return Digest{}, err
	}
	if err := r.html.Execute(&html, d); err != nil {
		return Digest{}, err
	}
	return Digest{Subject: DigestSubject, Text: text.String(), HTML: html.String()}, nil
}
