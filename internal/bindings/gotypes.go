package bindings

import (
	"fmt"
	"go/token"
	"sort"
	"strings"
	"unicode"

	"github.com/toyz/bindgen/internal/config"
	"github.com/toyz/bindgen/internal/metadata"
)

// exported converts a snake_case or camelCase name into an exported Go identifier
func exported(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' || r == '-' || r == ' ' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || unicode.IsDigit(rune(out[0])) {
		out = "X" + out
	}
	return out
}

// unexported converts name into an unexported Go identifier that is not a keyword
func unexported(name string) string {
	out := exported(name)
	runes := []rune(out)
	runes[0] = unicode.ToLower(runes[0])
	out = string(runes)
	if token.IsKeyword(out) {
		out += "_"
	}
	return out
}

// typeRenderer maps metadata types to Go type expressions and records the
// imports those expressions need
type typeRenderer struct {
	cfg     *config.GoConfig
	imports map[string]string // import path -> alias, "" for no alias
}

func newTypeRenderer(cfg *config.GoConfig) *typeRenderer {
	return &typeRenderer{cfg: cfg, imports: make(map[string]string)}
}

func (r *typeRenderer) use(path, alias string) {
	r.imports[path] = alias
}

func (r *typeRenderer) goType(t metadata.Type) string {
	switch t.Kind {
	case metadata.TypeUInt8:
		return "uint8"
	case metadata.TypeInt8:
		return "int8"
	case metadata.TypeUInt16:
		return "uint16"
	case metadata.TypeInt16:
		return "int16"
	case metadata.TypeUInt32:
		return "uint32"
	case metadata.TypeInt32:
		return "int32"
	case metadata.TypeUInt64:
		return "uint64"
	case metadata.TypeInt64:
		return "int64"
	case metadata.TypeFloat32:
		return "float32"
	case metadata.TypeFloat64:
		return "float64"
	case metadata.TypeBoolean:
		return "bool"
	case metadata.TypeString:
		return "string"
	case metadata.TypeBytes:
		return "[]byte"
	case metadata.TypeTimestamp:
		r.use("time", "")
		return "time.Time"
	case metadata.TypeDuration:
		r.use("time", "")
		return "time.Duration"
	case metadata.TypeObject, metadata.TypeRecord, metadata.TypeEnum,
		metadata.TypeCallbackInterface, metadata.TypeCustom:
		return exported(t.Name)
	case metadata.TypeOptional:
		inner := r.goType(*t.Inner)
		if isNilable(*t.Inner) {
			return inner
		}
		return "*" + inner
	case metadata.TypeSequence:
		return "[]" + r.goType(*t.Inner)
	case metadata.TypeMap:
		return fmt.Sprintf("map[%s]%s", r.goType(*t.Key), r.goType(*t.Value))
	case metadata.TypeExternal:
		alias := config.PackageName(t.Namespace)
		path, ok := r.cfg.ExternalPackages[t.Namespace]
		if !ok {
			path = alias
		}
		r.use(path, alias)
		return alias + "." + exported(t.Name)
	}
	return "any"
}

// isNilable reports whether the Go rendering of t already admits nil
func isNilable(t metadata.Type) bool {
	switch t.Kind {
	case metadata.TypeObject, metadata.TypeCallbackInterface,
		metadata.TypeBytes, metadata.TypeSequence, metadata.TypeMap:
		return true
	case metadata.TypeExternal:
		return t.ExternalKind == metadata.ExternalInterface
	}
	return false
}

// importList returns the recorded imports, standard library first
func (r *typeRenderer) importList() []goImport {
	out := make([]goImport, 0, len(r.imports))
	for path, alias := range r.imports {
		out = append(out, goImport{Path: path, Alias: alias})
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := !strings.Contains(out[i].Path, "."), !strings.Contains(out[j].Path, ".")
		if si != sj {
			return si
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// signature renders the parameter list and results of a callable
func (r *typeRenderer) signature(async bool, inputs []metadata.Param, ret, throws *metadata.Type) (string, string) {
	var params []string
	if async {
		r.use("context", "")
		params = append(params, "ctx context.Context")
	}
	for _, p := range inputs {
		params = append(params, unexported(p.Name)+" "+r.goType(p.Type))
	}

	var results []string
	if ret != nil {
		results = append(results, r.goType(*ret))
	}
	if throws != nil {
		results = append(results, "error")
	}

	var res string
	switch len(results) {
	case 0:
	case 1:
		res = " " + results[0]
	default:
		res = " (" + strings.Join(results, ", ") + ")"
	}
	return strings.Join(params, ", "), res
}

// comment renders a docstring as Go line comments
func comment(doc, fallback string) string {
	if doc == "" {
		doc = fallback
	}
	if doc == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(doc), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight("// "+line, " ")
	}
	return strings.Join(lines, "\n")
}
