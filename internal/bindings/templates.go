package bindings

import (
	"sort"
	"text/template"
)

// goTemplates holds the named templates of a generated Go file; "file" is the entry point
var goTemplates = map[string]string{
	"file": `// Code generated by bindgen. DO NOT EDIT.
// Library: {{.LibraryID}}{{if .CdylibName}} (shared library {{.CdylibName}}){{end}}

{{with .Doc}}{{.}}
{{end}}package {{.Package}}
{{if .Imports}}
import (
{{range .Imports}}	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}})
{{end}}
{{- range .Records}}{{template "record" .}}{{end}}
{{- range .FlatEnums}}{{template "flat-enum" .}}{{end}}
{{- range .DataEnums}}{{template "data-enum" .}}{{end}}
{{- range .Customs}}{{template "custom" .}}{{end}}
{{- range .Interfaces}}{{template "interface" .}}{{end}}
{{- with .Library}}{{template "interface" .}}{{end}}`,

	"record": `
{{.Doc}}
type {{.Name}} struct {
{{range .Fields}}{{with .Doc}}	{{.}}
{{end}}	{{.Name}} {{.Type}} {{.Tag}}
{{end}}}
`,

	"flat-enum": `{{$enum := .}}
{{with .Doc}}{{.}}
{{end}}type {{.Name}} int

const (
{{range $i, $v := .Variants}}	{{$v.Name}}{{if eq $i 0}} {{$enum.Name}} = iota{{end}}
{{end}})

// String returns the variant name
func (e {{.Name}}) String() string {
	switch e {
{{range .Variants}}	case {{.Name}}:
		return {{printf "%q" .Raw}}
{{end}}	}
	return fmt.Sprintf("{{.Name}}(%d)", int(e))
}
{{if .IsError}}
// Error implements error
func (e {{.Name}}) Error() string {
	return e.String()
}
{{end}}`,

	"data-enum": `{{$enum := .}}
{{with .Doc}}{{.}}
{{end}}type {{.Name}} interface {
{{if .IsError}}	error
{{end}}	{{.Marker}}()
}
{{range .Variants}}
{{with .Doc}}{{.}}
{{end}}type {{.Type}} struct {
{{range .Fields}}	{{.Name}} {{.Type}} {{.Tag}}
{{end}}}

func ({{.Type}}) {{$enum.Marker}}() {}
{{if $enum.IsError}}
func (v {{.Type}}) Error() string {
	return {{printf "%q" .Raw}}
}
{{end}}{{end}}`,

	"custom": `
{{with .Doc}}{{.}}
{{end}}type {{.Name}} {{.Builtin}}
`,

	"interface": `
{{with .Doc}}{{.}}
{{end}}type {{.Name}} interface {
{{range .Methods}}{{with .Doc}}	{{.}}
{{end}}	{{.Name}}({{.Params}}){{.Results}}
{{end}}}
`,
}

// mustParseTemplates parses every named template into one set
func mustParseTemplates(name string, templates map[string]string) *template.Template {
	names := make([]string, 0, len(templates))
	for n := range templates {
		names = append(names, n)
	}
	sort.Strings(names)

	root := template.New(name)
	for _, n := range names {
		template.Must(root.New(n).Parse(templates[n]))
	}
	return root
}
