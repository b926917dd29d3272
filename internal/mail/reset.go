package mail

import (
	"bytes"
	"html/template"
)

const ResetSubject = "Reset Your Password"

var resetHTML = template.Must(template.New("reset.html").Parse(`<html><body>` +
	`<p>Hi,<br>Please click the button below to reset your password:</p>` +
	`<a href="{{.}}" style="background-color:#1E90FF; color:white; padding:15px 25px; text-align:center; text-decoration:none; display:inline-block; border-radius:5px;">Reset Your Password</a>` +
	`</body></html>`))

// PasswordReset builds the reset-link email for to.
func PasswordReset(to, link string) (Message, error) {
	var html bytes.Buffer
	if err := resetHTML.Execute(&html, link); err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: ResetSubject,
		HTML:    html.String(),
		Text:    "Hi, Click the link to reset your password: " + link,
	}, nil
}
