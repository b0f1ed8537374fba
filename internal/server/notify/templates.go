package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

type template struct {
	subject string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

var (
	welcomeTemplate = template{
		subject: "Welcome to democracy365",
		html: htmltemplate.Must(htmltemplate.New("welcome").Parse(
			`<html><body><p>Welcome to democracy365!</p>` +
				`<p>Please use the following code when you sign in to your account:</p>` +
				`<h3>{{.Code}}</h3></body></html>`)),
		text: texttemplate.Must(texttemplate.New("welcome").Parse(
			`Welcome to democracy365. Your secret login code is: {{.Code}}`)),
	}

	signinTemplate = template{
		subject: "Your secret login code",
		html: htmltemplate.Must(htmltemplate.New("signin").Parse(
			`<html><body><p>This is your secret login code:</p><h3>{{.Code}}</h3></body></html>`)),
		text: texttemplate.Must(texttemplate.New("signin").Parse(
			`Your secret login code: {{.Code}}`)),
	}
)

func (t template) render(to, code string) (Message, error) {
	data := struct{ Code string }{Code: code}

	var html, text bytes.Buffer
	if err := t.html.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	return Message{To: to, Subject: t.subject, HTML: html.String(), Text: text.String()}, nil
}

// WelcomeMessage is sent right after a user has been created.
func WelcomeMessage(to, code string) (Message, error) {
	return welcomeTemplate.render(to, code)
}

// SigninCodeMessage is sent to existing users asking for their code.
func SigninCodeMessage(to, code string) (Message, error) {
	return signinTemplate.render(to, code)
}
