package cli

import "text/template"

var profileTemplate = template.Must(template.New("profile").Parse(`
=== Profile ===

Name:   {{.FullName}}
Email:  {{.Email}}
Role:   {{.Role}}
Active: {{.IsActive}}
{{- if .Phone }}
Phone:  {{.Phone}}
{{- end}}
{{- if .LastLoginAt }}
Last login: {{.LastLoginAt.Format "2006-01-02 15:04"}}
{{- end}}
`))

var statusTemplate = template.Must(template.New("status").Parse(`
=== Session Status ===

Status: Authenticated
User:   {{.User.Email}} ({{.User.Role}})
{{- if .HasExpiry }}
Token expires: {{.Expires}}
{{- if .Expired }}
Access token has expired; it will be refreshed on the next request.
{{- else }}
Time remaining: {{.Remaining}}
{{- end}}
{{- end}}
`))
