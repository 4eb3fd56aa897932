package notify

import (
	"fmt"
	"strings"
	"text/template"
)

type mailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[string]mailTemplate{
	TemplateSignupCode: {
		subject: "Your WIL application was accepted",
		body: template.Must(template.New(TemplateSignupCode).Option("missingkey=zero").Parse(
			"Dear {{.first_names}} {{.surname}},\n\n" +
				"Your work-integrated learning application has been accepted.\n" +
				"Use signup code {{.code}} to create your student account.\n")),
	},
	TemplateApplicationRejected: {
		subject: "Your WIL application",
		body: template.Must(template.New(TemplateApplicationRejected).Option("missingkey=zero").Parse(
			"Dear {{.first_names}} {{.surname}},\n\n" +
				"We regret that your work-integrated learning application was not successful.\n")),
	},
	TemplateStaffCode: {
		subject: "Your WIL portal registration code",
		body: template.Must(template.New(TemplateStaffCode).Option("missingkey=zero").Parse(
			"Dear {{.name}},\n\n" +
				"Use code {{.code}} to register your {{.role}} account on the WIL portal.\n")),
	},
	TemplateStudentSuspended: {
		subject: "WIL account suspended",
		body: template.Must(template.New(TemplateStudentSuspended).Option("missingkey=zero").Parse(
			"Dear {{.first_names}},\n\nYour WIL account ({{.student_number}}) has been suspended.\n")),
	},
	TemplateStudentUnenrolled: {
		subject: "WIL account unenrolled",
		body: template.Must(template.New(TemplateStudentUnenrolled).Option("missingkey=zero").Parse(
			"Dear {{.first_names}},\n\nYou have been unenrolled from the WIL programme ({{.student_number}}).\n")),
	},
	TemplateStudentEnrolled: {
		subject: "WIL account enrolled",
		body: template.Must(template.New(TemplateStudentEnrolled).Option("missingkey=zero").Parse(
			"Dear {{.first_names}},\n\nYou have been enrolled in the WIL programme ({{.student_number}}).\n")),
	},
	TemplateStudentReactivated: {
		subject: "WIL account reactivated",
		body: template.Must(template.New(TemplateStudentReactivated).Option("missingkey=zero").Parse(
			"Dear {{.first_names}},\n\nYour WIL account ({{.student_number}}) is active again.\n")),
	},
}

// Render 渲染主题与正文
func Render(n Notification) (subject, body string, err error) {
	t, ok := templates[n.Template]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, n.Template)
	}
	fields := n.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	var sb strings.Builder
	if err := t.body.Execute(&sb, fields); err != nil {
		return "", "", err
	}
	return t.subject, sb.String(), nil
}
