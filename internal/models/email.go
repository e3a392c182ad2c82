package models

// EmailModel is the body of the send-email endpoints.
type EmailModel struct {
	Recipient string        `json:"recipient" validate:"omitempty,email"`
	Theming   *EmailTheming `json:"theming,omitempty" validate:"omitempty"`
}

// EmailTheming selects the template and theme used to render a free-form email.
type EmailTheming struct {
	SubjectKey         string            `json:"subjectKey"`
	SubjectParameters  []string          `json:"subjectParameters,omitempty"`
	Template           string            `json:"template"`
	TemplateParameters map[string]string `json:"templateParameters,omitempty"`
	ThemeRealmName     string            `json:"themeRealmName,omitempty"`
	Locale             string            `json:"locale,omitempty" validate:"omitempty,max=16"`
}

// EmailMessage is a rendered email ready for a transport.
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}
