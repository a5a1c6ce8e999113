package main

import (
	"embed"
	"html/template"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

// loadTemplates compila as páginas embutidas uma única vez na subida do serviço
func loadTemplates() (*template.Template, error) {
	return template.New("").
		Funcs(template.FuncMap{"money": FormatMoney}).
		ParseFS(templatesFS, "templates/*.gohtml")
}
