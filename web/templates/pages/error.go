package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// ErrorPageProps describes a rendered HTTP error
type ErrorPageProps struct {
	Title        string
	ErrorTitle   string
	ErrorMessage string
	BackLink     string
	BackText     string
}

func ErrorPage(props ErrorPageProps) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		html := fmt.Sprintf(`<main class="error"><h1>%s</h1><p>%s</p>`,
			templ.EscapeString(props.ErrorTitle), templ.EscapeString(props.ErrorMessage))
		if props.BackLink != "" {
			html += fmt.Sprintf(`<a href="%s">%s</a>`,
				templ.EscapeString(props.BackLink), templ.EscapeString(props.BackText))
		}
		_, err := io.WriteString(w, html+`</main>`)
		return err
	})
	return layout(props.Title, body)
}
