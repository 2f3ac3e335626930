// Package udl parses legacy interface definition files into metadata groups.
package udl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// File is the root of an interface definition file
type File struct {
	Definitions []*Definition `parser:"@@*"`
}

// Definition is one top-level declaration
type Definition struct {
	Pos lexer.Position

	Attributes []*Attribute `parser:"( '[' @@ ( ',' @@ )* ']' )?"`
	Namespace  *Namespace   `parser:"( @@"`
	Dictionary *Dictionary  `parser:"| @@"`
	Enum       *Enum        `parser:"| @@"`
	Callback   *Callback    `parser:"| @@"`
	Interface  *Interface   `parser:"| @@"`
	Typedef    *Typedef     `parser:"| @@ ) ';'"`
}

// Attribute is a bracketed annotation such as [Throws=Error] or [Enum]
type Attribute struct {
	Name  string  `parser:"@Ident"`
	Value *string `parser:"( '=' ( @String | @Ident ) )?"`
}

// Namespace declares the public namespace and its functions
type Namespace struct {
	Name      string    `parser:"'namespace' @Ident '{'"`
	Functions []*Member `parser:"@@* '}'"`
}

// Dictionary declares a record
type Dictionary struct {
	Name   string       `parser:"'dictionary' @Ident '{'"`
	Fields []*DictField `parser:"@@* '}'"`
}

// DictField is a dictionary member
type DictField struct {
	Pos lexer.Position

	Required bool     `parser:"@'required'?"`
	Type     *TypeRef `parser:"@@"`
	Name     string   `parser:"@Ident"`
	Default  *Literal `parser:"( '=' @@ )? ';'"`
}

// Literal is a default value
type Literal struct {
	String *string `parser:"  @String"`
	Number *string `parser:"| @Number"`
	Ident  *string `parser:"| @Ident"`
}

// Enum declares a flat enum with string variants
type Enum struct {
	Name     string   `parser:"'enum' @Ident '{'"`
	Variants []string `parser:"( @String ( ',' @String )* ','? )? '}'"`
}

// Callback declares a callback interface
type Callback struct {
	Name    string    `parser:"'callback' 'interface' @Ident '{'"`
	Members []*Member `parser:"@@* '}'"`
}

// Interface declares an object, or a data enum / error when attributed
type Interface struct {
	Name    string    `parser:"'interface' @Ident '{'"`
	Members []*Member `parser:"@@* '}'"`
}

// Member is a constructor, a method or an enum variant
type Member struct {
	Pos lexer.Position

	Attributes  []*Attribute `parser:"( '[' @@ ( ',' @@ )* ']' )?"`
	Constructor *Constructor `parser:"( @@"`
	Method      *Method      `parser:"| @@"`
	Variant     *VariantDef  `parser:"| @@ ) ';'"`
}

// Constructor is an object constructor
type Constructor struct {
	Params []*Param `parser:"'constructor' '(' ( @@ ( ',' @@ )* )? ')'"`
}

// Method is a function or method with a return type (or void)
type Method struct {
	Void   bool     `parser:"( @'void'"`
	Return *TypeRef `parser:"| @@ )"`
	Name   string   `parser:"@Ident"`
	Params []*Param `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
}

// VariantDef is a data-enum variant: a name and its fields
type VariantDef struct {
	Name   string   `parser:"@Ident"`
	Params []*Param `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
}

// Param is a named argument or variant field
type Param struct {
	Attributes []*Attribute `parser:"( '[' @@ ( ',' @@ )* ']' )?"`
	Type       *TypeRef     `parser:"@@"`
	Name       string       `parser:"@Ident"`
}

// Typedef declares a custom or external type
type Typedef struct {
	Extern  bool     `parser:"'typedef' ( @'extern'"`
	Builtin *TypeRef `parser:"| @@ )"`
	Name    string   `parser:"@Ident"`
}

// TypeRef is a type expression
type TypeRef struct {
	Sequence *TypeRef `parser:"( 'sequence' '<' @@ '>'"`
	Map      *MapRef  `parser:"| 'record' '<' @@ '>'"`
	Name     string   `parser:"| @Ident )"`
	Optional bool     `parser:"@'?'?"`
}

// MapRef is the key and value of a record<K, V> type
type MapRef struct {
	Key   *TypeRef `parser:"@@ ','"`
	Value *TypeRef `parser:"@@"`
}

var udlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*([^*]|\*+[^*/])*\*+/`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Number", Pattern: `-?[0-9]+(\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[{}()\[\];,=<>?]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var fileParser = participle.MustBuild[File](
	participle.Lexer(udlLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(4),
)
