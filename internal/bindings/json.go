package bindings

import (
	"encoding/json"
	"fmt"

	"github.com/toyz/bindgen/internal/component"
	"github.com/toyz/bindgen/internal/config"
	"github.com/toyz/bindgen/internal/metadata"
)

type jsonObject struct {
	*metadata.ObjectItem
	Constructors []*metadata.ConstructorItem `json:"constructors"`
	Methods      []*metadata.MethodItem      `json:"methods"`
	TraitMethods []*metadata.TraitMethodItem `json:"trait_methods,omitempty"`
}

type jsonCallbackInterface struct {
	*metadata.CallbackInterfaceItem
	Methods []*metadata.TraitMethodItem `json:"methods"`
}

type jsonInterface struct {
	Library            string                     `json:"library"`
	Namespace          string                     `json:"namespace"`
	CdylibName         string                     `json:"cdylib_name,omitempty"`
	Docstring          string                     `json:"docstring,omitempty"`
	Functions          []*metadata.FuncItem       `json:"functions"`
	Records            []*metadata.RecordItem     `json:"records"`
	Enums              []*metadata.EnumItem       `json:"enums"`
	Objects            []jsonObject               `json:"objects"`
	CallbackInterfaces []jsonCallbackInterface    `json:"callback_interfaces"`
	CustomTypes        []*metadata.CustomTypeItem `json:"custom_types"`
	ExternalTypes      []metadata.Type            `json:"external_types"`
}

// JSONWriter dumps a component interface as an indented JSON document
type JSONWriter struct{}

// NewJSONWriter creates the JSON interface writer
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{}
}

// Language implements Writer
func (w *JSONWriter) Language() string { return "json" }

// OutputFiles implements Writer
func (w *JSONWriter) OutputFiles(ci *component.Interface, cfg *config.Config) []string {
	if cfg != nil && cfg.Bindings.JSON.FileName != "" {
		return []string{cfg.Bindings.JSON.FileName}
	}
	return []string{config.PackageName(ci.Namespace) + ".json"}
}

// Write implements Writer
func (w *JSONWriter) Write(ci *component.Interface, cfg *config.Config, outDir string) error {
	data, err := w.Render(ci, cfg)
	if err != nil {
		return err
	}
	return writeFile(outDir, w.OutputFiles(ci, cfg)[0], data)
}

// Render returns the JSON document for ci
func (w *JSONWriter) Render(ci *component.Interface, cfg *config.Config) ([]byte, error) {
	doc := jsonInterface{
		Library:            ci.LibraryID,
		Namespace:          ci.Namespace,
		Docstring:          ci.NamespaceDocstring,
		Functions:          nonNil(ci.Functions),
		Records:            nonNil(ci.Records),
		Enums:              nonNil(ci.Enums),
		Objects:            []jsonObject{},
		CallbackInterfaces: []jsonCallbackInterface{},
		CustomTypes:        nonNil(ci.CustomTypes),
		ExternalTypes:      nonNil(ci.ExternalTypes()),
	}
	indent := "  "
	if cfg != nil {
		doc.CdylibName = cfg.CdylibName
		if cfg.Bindings.JSON.Indent != "" {
			indent = cfg.Bindings.JSON.Indent
		}
	}
	for _, obj := range ci.Objects {
		doc.Objects = append(doc.Objects, jsonObject{
			ObjectItem:   obj.ObjectItem,
			Constructors: nonNil(obj.Constructors),
			Methods:      nonNil(obj.Methods),
			TraitMethods: obj.TraitMethods,
		})
	}
	for _, cb := range ci.CallbackInterfaces {
		doc.CallbackInterfaces = append(doc.CallbackInterfaces, jsonCallbackInterface{
			CallbackInterfaceItem: cb.CallbackInterfaceItem,
			Methods:               nonNil(cb.Methods),
		})
	}

	data, err := json.MarshalIndent(doc, "", indent)
	if err != nil {
		return nil, fmt.Errorf("failed to encode interface of %s: %w", ci.LibraryID, err)
	}
	return append(data, '\n'), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
