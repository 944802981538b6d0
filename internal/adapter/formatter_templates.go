package adapter

import (
	"embed"
	"strings"
	sync "sync"
	"text/template"
	"time"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

//go:embed templates/*.tmpl
var formatterTemplateFS embed.FS

var (
	formatterTemplates *template.Template
	formatterOnce      sync.Once
	formatterErr       error
)

func executeFormatterTemplate(name string, data any) (string, error) {
	formatterOnce.Do(func() {
		funcMap := template.FuncMap{
			"add":      func(a, b int) int { return a + b },
			"join":     strings.Join,
			"truncate": util.TruncateString,
			"wrap":     wrapText,
			"clock":    func(t time.Time) string { return t.Format("15:04:05") },
			"speaker":  speakerLabel,
			"topics": func(labels []domain.TopicLabel) []string {
				return domain.QuestionClassification{Topics: labels}.TopicStrings()
			},
		}
		tmpl := template.New("formatter").Funcs(funcMap)
		formatterTemplates, formatterErr = tmpl.ParseFS(formatterTemplateFS, "templates/*.tmpl")
	})

	if formatterErr != nil {
		return "", formatterErr
	}

	var builder strings.Builder
	if err := formatterTemplates.ExecuteTemplate(&builder, name, data); err != nil {
		return "", err
	}

	return strings.TrimRight(builder.String(), "\n"), nil
}
