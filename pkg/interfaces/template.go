package interfaces

import "io"

// TemplateRenderer executes named page templates. When out is supplied the
// output is streamed to the first writer and the returned string is empty.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
}
