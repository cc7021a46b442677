// Package render turns view-models into HTML. All text goes through
// html/template, so message and metadata content is always escaped.
package render

import (
	"embed"
	"html/template"
	"strings"
	"sync"

	"github.com/kapu/video-qa-client/internal/constants"
	"github.com/kapu/video-qa-client/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	pageTemplates *template.Template
	templatesOnce sync.Once
	templatesErr  error
)

const appTitle = "Video Q&A"

type IndexData struct {
	Title       string
	URL         string
	InvalidURL  string
	ButtonLabel string
}

type ChatData struct {
	Title    string
	Metadata domain.VideoMetadata
	Presets  []string
	Messages []domain.Message
}

func bubbleClass(role domain.Role) string {
	if role == domain.RoleUser {
		return "bg-blue-600 text-white"
	}
	return "bg-slate-50 text-slate-700 border border-slate-100"
}

func cornerClass(role domain.Role) string {
	if role == domain.RoleUser {
		return "rounded-tr-none"
	}
	return "rounded-tl-none"
}

func execute(name string, data any) (string, error) {
	templatesOnce.Do(func() {
		funcMap := template.FuncMap{
			"bubbleClass": bubbleClass,
			"cornerClass": cornerClass,
		}
		pageTemplates, templatesErr = template.New("render").Funcs(funcMap).ParseFS(templateFS, "templates/*.tmpl")
	})

	if templatesErr != nil {
		return "", templatesErr
	}

	var builder strings.Builder
	if err := pageTemplates.ExecuteTemplate(&builder, name, data); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// Bubble renders one chat message.
func Bubble(msg domain.Message) (template.HTML, error) {
	out, err := execute("bubble", msg)
	if err != nil {
		return "", err
	}
	return template.HTML(out), nil
}

func IndexPage(data IndexData) (string, error) {
	if data.Title == "" {
		data.Title = appTitle
	}
	if data.InvalidURL == "" {
		data.InvalidURL = constants.Messages.InvalidURL
	}
	if data.ButtonLabel == "" {
		data.ButtonLabel = constants.Messages.ButtonIdle
	}
	return execute("index", data)
}

func ChatPage(data ChatData) (string, error) {
	if data.Title == "" {
		data.Title = appTitle
	}
	return execute("chat", data)
}
