package bindings

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/toyz/bindgen/internal/component"
	"github.com/toyz/bindgen/internal/config"
	"github.com/toyz/bindgen/internal/metadata"
	"github.com/toyz/bindgen/internal/utils"
)

type goImport struct {
	Alias string
	Path  string
}

type goField struct {
	Name string
	Type string
	Tag  string
	Doc  string
}

type goRecord struct {
	Name   string
	Doc    string
	Fields []goField
}

type goConst struct {
	Name string
	Raw  string
}

type goFlatEnum struct {
	Name     string
	Doc      string
	IsError  bool
	Variants []goConst
}

type goVariant struct {
	Type   string
	Raw    string
	Doc    string
	Fields []goField
}

type goDataEnum struct {
	Name     string
	Doc      string
	IsError  bool
	Marker   string
	Variants []goVariant
}

type goMethod struct {
	Name    string
	Doc     string
	Params  string
	Results string
}

type goInterface struct {
	Name    string
	Doc     string
	Methods []goMethod
}

type goCustom struct {
	Name    string
	Doc     string
	Builtin string
}

type goFile struct {
	Package    string
	LibraryID  string
	CdylibName string
	Doc        string
	Imports    []goImport
	Records    []goRecord
	FlatEnums  []goFlatEnum
	DataEnums  []goDataEnum
	Interfaces []goInterface
	Library    *goInterface
	Customs    []goCustom
}

// GoWriter renders a library as a Go package of interfaces and value types
type GoWriter struct {
	tmpl *template.Template
}

// NewGoWriter creates the Go bindings writer
func NewGoWriter() *GoWriter {
	return &GoWriter{tmpl: mustParseTemplates("go", goTemplates)}
}

// Language implements Writer
func (w *GoWriter) Language() string { return "go" }

// OutputFiles implements Writer
func (w *GoWriter) OutputFiles(ci *component.Interface, cfg *config.Config) []string {
	pkg := goPackageName(ci, cfg)
	return []string{filepath.Join(pkg, config.PackageName(ci.Namespace)+".go")}
}

// Write implements Writer
func (w *GoWriter) Write(ci *component.Interface, cfg *config.Config, outDir string) error {
	src, err := w.Render(ci, cfg)
	if err != nil {
		return err
	}
	return writeFile(outDir, w.OutputFiles(ci, cfg)[0], src)
}

// Render returns the formatted Go source for ci
func (w *GoWriter) Render(ci *component.Interface, cfg *config.Config) ([]byte, error) {
	file := buildGoFile(ci, cfg)

	var buf bytes.Buffer
	if err := w.tmpl.ExecuteTemplate(&buf, "file", file); err != nil {
		return nil, fmt.Errorf("failed to execute template file: %w", err)
	}
	return utils.FormatGoSource(config.PackageName(ci.Namespace)+".go", buf.Bytes())
}

func goPackageName(ci *component.Interface, cfg *config.Config) string {
	if cfg != nil && cfg.Bindings.Go.PackageName != "" {
		return cfg.Bindings.Go.PackageName
	}
	return config.PackageName(ci.Namespace)
}

func buildGoFile(ci *component.Interface, cfg *config.Config) *goFile {
	var goCfg config.GoConfig
	if cfg != nil {
		goCfg = cfg.Bindings.Go
	}
	r := newTypeRenderer(&goCfg)

	file := &goFile{
		Package:   goPackageName(ci, cfg),
		LibraryID: ci.LibraryID,
		Doc:       comment(ci.NamespaceDocstring, ""),
	}
	if cfg != nil {
		file.CdylibName = cfg.CdylibName
	}

	for _, rec := range ci.Records {
		gr := goRecord{Name: exported(rec.Name), Doc: comment(rec.Docstring, exported(rec.Name)+" is a record of "+ci.LibraryID)}
		gr.Fields = goFields(r, rec.Fields)
		file.Records = append(file.Records, gr)
	}

	if len(ci.Enums) > 0 {
		r.use("fmt", "")
	}
	for _, e := range ci.Enums {
		isError := e.Shape == metadata.EnumShapeError || ci.IsErrorType(metadata.Enum(e.Module, e.Name))
		name := exported(e.Name)
		if e.IsFlat() {
			fe := goFlatEnum{Name: name, Doc: comment(e.Docstring, ""), IsError: isError}
			for _, v := range e.Variants {
				fe.Variants = append(fe.Variants, goConst{Name: name + exported(v.Name), Raw: v.Name})
			}
			file.FlatEnums = append(file.FlatEnums, fe)
			continue
		}
		de := goDataEnum{Name: name, Doc: comment(e.Docstring, ""), IsError: isError, Marker: "is" + name}
		for _, v := range e.Variants {
			de.Variants = append(de.Variants, goVariant{
				Type:   name + exported(v.Name),
				Raw:    e.Name + "." + v.Name,
				Doc:    comment(v.Docstring, ""),
				Fields: goFields(r, v.Fields),
			})
		}
		file.DataEnums = append(file.DataEnums, de)
	}

	for _, obj := range ci.Objects {
		gi := goInterface{Name: exported(obj.Name), Doc: comment(obj.Docstring, "")}
		for _, m := range obj.Methods {
			params, results := r.signature(m.IsAsync, m.Inputs, m.ReturnType, m.Throws)
			gi.Methods = append(gi.Methods, goMethod{Name: exported(m.Name), Doc: comment(m.Docstring, ""), Params: params, Results: results})
		}
		for _, m := range obj.TraitMethods {
			params, results := r.signature(m.IsAsync, m.Inputs, m.ReturnType, m.Throws)
			gi.Methods = append(gi.Methods, goMethod{Name: exported(m.Name), Doc: comment(m.Docstring, ""), Params: params, Results: results})
		}
		file.Interfaces = append(file.Interfaces, gi)
	}

	for _, cb := range ci.CallbackInterfaces {
		gi := goInterface{Name: exported(cb.Name), Doc: comment(cb.Docstring, "")}
		for _, m := range cb.Methods {
			params, results := r.signature(m.IsAsync, m.Inputs, m.ReturnType, m.Throws)
			gi.Methods = append(gi.Methods, goMethod{Name: exported(m.Name), Doc: comment(m.Docstring, ""), Params: params, Results: results})
		}
		file.Interfaces = append(file.Interfaces, gi)
	}

	lib := &goInterface{Name: "Library", Doc: comment("", "Library lists the functions and constructors exported by "+ci.LibraryID)}
	for _, f := range ci.Functions {
		params, results := r.signature(f.IsAsync, f.Inputs, f.ReturnType, f.Throws)
		lib.Methods = append(lib.Methods, goMethod{Name: exported(f.Name), Doc: comment(f.Docstring, ""), Params: params, Results: results})
	}
	for _, obj := range ci.Objects {
		self := metadata.Object(obj.Module, obj.Name)
		for _, c := range obj.Constructors {
			params, results := r.signature(c.IsAsync, c.Inputs, &self, c.Throws)
			lib.Methods = append(lib.Methods, goMethod{Name: constructorName(obj.Name, c.Name), Doc: comment(c.Docstring, ""), Params: params, Results: results})
		}
	}
	if len(lib.Methods) > 0 {
		file.Library = lib
	}

	for _, c := range ci.CustomTypes {
		file.Customs = append(file.Customs, goCustom{Name: exported(c.Name), Doc: comment(c.Docstring, ""), Builtin: r.goType(c.Builtin)})
	}

	file.Imports = r.importList()
	return file
}

func goFields(r *typeRenderer, fields []metadata.Field) []goField {
	out := make([]goField, 0, len(fields))
	for _, f := range fields {
		out = append(out, goField{
			Name: exported(f.Name),
			Type: r.goType(f.Type),
			Tag:  fmt.Sprintf("`json:%q`", f.Name),
			Doc:  comment(f.Docstring, ""),
		})
	}
	return out
}

// constructorName names a constructor after its object; the primary
// constructor "new" becomes New<Object>
func constructorName(object, ctor string) string {
	if ctor == "new" {
		return "New" + exported(object)
	}
	return exported(object) + exported(ctor)
}
