package utils

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"

	"golang.org/x/tools/imports"
)

// FormatGoSource formats source as gofmt would and drops unused imports
func FormatGoSource(filename string, source []byte) ([]byte, error) {
	formatted, err := imports.Process(filename, source, &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		if parseErr := ValidateGoCode(string(source)); parseErr != nil {
			return nil, fmt.Errorf("invalid Go syntax in %s: %w", filename, parseErr)
		}
		return nil, fmt.Errorf("failed to format %s: %w", filename, err)
	}
	return formatted, nil
}

// FormatAndWriteGoFile formats Go code and writes it to filename
func FormatAndWriteGoFile(filename string, code []byte) error {
	formatted, err := FormatGoSource(filename, code)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, formatted, 0644)
}

// ValidateGoCode checks if the provided code is valid Go syntax
func ValidateGoCode(code string) error {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "", code, parser.ParseComments)
	return err
}
