// Package mail renders account emails and delivers them through the
// transactional outbox.
package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Kind identifies an account email.
type Kind string

const (
	KindPasswordReset     Kind = "password_reset"
	KindWelcome           Kind = "welcome"
	KindEmailConfirmation Kind = "email_confirmation"
)

var subjects = map[Kind]string{
	KindPasswordReset:     "إعادة تعيين كلمة المرور",
	KindWelcome:           "مرحباً بك في النظام",
	KindEmailConfirmation: "تأكيد البريد الإلكتروني",
}

// Data is the template input of every account email.
type Data struct {
	UserName    string
	Link        string
	ExpiryHours int
}

// Message is a rendered email ready for a Sender.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Renderer holds the parsed templates, one set per Kind.
type Renderer struct {
	sets map[Kind]*template.Template
	now  func() time.Time
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{sets: make(map[Kind]*template.Template, len(subjects)), now: time.Now}
	for kind := range subjects {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+string(kind)+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		r.sets[kind] = t
	}
	return r, nil
}

// Render produces the message of kind for recipient to.
func (r *Renderer) Render(kind Kind, to string, data Data) (Message, error) {
	t, ok := r.sets[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown mail kind %q", kind)
	}

	view := struct {
		Data
		Title string
		Year  int
	}{Data: data, Title: subjects[kind], Year: r.now().Year()}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", view); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", kind, err)
	}
	return Message{To: to, Subject: subjects[kind], HTML: buf.String()}, nil
}
