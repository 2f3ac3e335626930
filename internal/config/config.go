// Package config loads per-library bindings configuration.
package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/viper"
	"golang.org/x/mod/module"

	"github.com/toyz/bindgen/internal/component"
	"github.com/toyz/bindgen/internal/errors"
	"github.com/toyz/bindgen/internal/utils"
)

// FileName is the configuration file searched for when no override is given
const FileName = "uniffi.toml"

// EnvPrefix prefixes environment variables that override configuration keys
const EnvPrefix = "BINDGEN"

// Config is the bindings configuration of one library
type Config struct {
	CdylibName string         `mapstructure:"cdylib_name"`
	Bindings   BindingsConfig `mapstructure:"bindings"`
}

// BindingsConfig holds the per-language sections
type BindingsConfig struct {
	Go   GoConfig   `mapstructure:"go"`
	JSON JSONConfig `mapstructure:"json"`
}

// GoConfig configures the Go bindings writer
type GoConfig struct {
	PackageName      string            `mapstructure:"package_name"`
	ImportPathPrefix string            `mapstructure:"import_path_prefix"`
	ExternalPackages map[string]string `mapstructure:"external_packages"` // namespace -> import path
}

// JSONConfig configures the JSON interface writer
type JSONConfig struct {
	FileName string `mapstructure:"file_name"`
	Indent   string `mapstructure:"indent"`
}

// Loader reads configuration files through a cached file reader
type Loader struct {
	reader     *utils.FileReader
	searchDirs []string
}

// NewLoader creates a loader that looks for FileName in searchDirs, or the working directory
func NewLoader(reader *utils.FileReader, searchDirs ...string) *Loader {
	if reader == nil {
		reader = utils.NewFileReader()
	}
	if len(searchDirs) == 0 {
		searchDirs = []string{"."}
	}
	return &Loader{reader: reader, searchDirs: searchDirs}
}

// Load returns a fresh Config. overridePath, when set, must exist; otherwise
// the first FileName found in the search directories is used, if any.
func (l *Loader) Load(overridePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.SetDefault("cdylib_name", "")
	v.SetDefault("bindings.go.package_name", "")
	v.SetDefault("bindings.go.import_path_prefix", "")
	v.SetDefault("bindings.go.external_packages", map[string]string{})
	v.SetDefault("bindings.json.file_name", "")
	v.SetDefault("bindings.json.indent", "  ")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := overridePath
	if configPath == "" {
		configPath = l.find()
	}
	if configPath != "" {
		content, err := l.reader.ReadFile(configPath)
		if err != nil {
			return nil, errors.WrapConfigError("", err)
		}
		if err := v.ReadConfig(strings.NewReader(content)); err != nil {
			cfgErr := errors.NewConfigError("", fmt.Sprintf("failed to read config file %s", configPath))
			cfgErr.WithCause(err)
			return nil, cfgErr
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WrapConfigError("", fmt.Errorf("failed to unmarshal config: %w", err))
	}
	if cfg.Bindings.Go.ExternalPackages == nil {
		cfg.Bindings.Go.ExternalPackages = make(map[string]string)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) find() string {
	for _, dir := range l.searchDirs {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// Validate checks the user-supplied values
func (c *Config) Validate() error {
	if c.Bindings.Go.PackageName != "" {
		if err := utils.IsValidGoIdentifier("bindings.go.package_name")(c.Bindings.Go.PackageName); err != nil {
			return errors.WrapConfigError("", err)
		}
	}
	if c.Bindings.Go.ImportPathPrefix != "" {
		if err := module.CheckImportPath(c.Bindings.Go.ImportPathPrefix); err != nil {
			return errors.WrapConfigError("", fmt.Errorf("bindings.go.import_path_prefix: %w", err))
		}
	}
	for ns, importPath := range c.Bindings.Go.ExternalPackages {
		if err := module.CheckImportPath(importPath); err != nil {
			return errors.WrapConfigError("", fmt.Errorf("bindings.go.external_packages.%s: %w", ns, err))
		}
	}
	indent := utils.Custom("bindings.json.indent", "must contain only spaces or tabs", func(s string) bool {
		return strings.Trim(s, " \t") == ""
	})
	if err := indent(c.Bindings.JSON.Indent); err != nil {
		return errors.WrapConfigError("", err)
	}
	return nil
}

// UpdateFromLibraryName records the shared library name unless one is configured
func (c *Config) UpdateFromLibraryName(name string) {
	if c.CdylibName == "" {
		c.CdylibName = name
	}
}

// UpdateFromComponentInterface fills the defaults that depend on the
// library's interface: the Go package name and the import path of every
// external namespace it references.
func (c *Config) UpdateFromComponentInterface(ci *component.Interface) error {
	goCfg := &c.Bindings.Go
	if goCfg.PackageName == "" {
		goCfg.PackageName = PackageName(ci.Namespace)
	}
	if err := utils.IsValidGoIdentifier("bindings.go.package_name")(goCfg.PackageName); err != nil {
		return errors.WrapConfigError(ci.LibraryID, err)
	}

	if goCfg.ExternalPackages == nil {
		goCfg.ExternalPackages = make(map[string]string)
	}
	for _, ns := range ci.ExternalNamespaces() {
		if _, ok := goCfg.ExternalPackages[ns]; ok {
			continue
		}
		importPath := PackageName(ns)
		if goCfg.ImportPathPrefix != "" {
			importPath = path.Join(goCfg.ImportPathPrefix, importPath)
		}
		if err := module.CheckImportPath(importPath); err != nil {
			return errors.WrapConfigError(ci.LibraryID, fmt.Errorf("import path for namespace '%s': %w", ns, err))
		}
		goCfg.ExternalPackages[ns] = importPath
	}
	return nil
}

// PackageName derives a Go package name from a namespace
func PackageName(namespace string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(namespace) {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "pkg" + name
	}
	if err := utils.IsValidGoIdentifier("")(name); err != nil {
		// keywords such as "type" or "func"
		return name + "_"
	}
	return name
}
