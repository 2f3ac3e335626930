// Package extract reads metadata items out of compiled shared libraries.
package extract

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/toyz/bindgen/internal/errors"
	"github.com/toyz/bindgen/internal/metadata"
)

// symbol is a metadata symbol located inside a section
type symbol struct {
	name    string
	section io.ReaderAt
	offset  uint64
	size    uint64 // zero when the object format does not record it
	limit   uint64 // section length
}

// Introspector extracts metadata items from ELF, Mach-O and PE shared libraries
type Introspector struct{}

// New creates a new artifact introspector
func New() *Introspector {
	return &Introspector{}
}

// Extract returns every metadata item embedded in the library at path, in symbol name order
func (i *Introspector) Extract(path string) ([]metadata.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		extractErr := errors.NewExtractionError(path, "cannot open file")
		extractErr.WithCause(err)
		return nil, extractErr
	}
	defer f.Close()

	var magic [4]byte
	if _, err := f.ReadAt(magic[:], 0); err != nil {
		return nil, errors.NewExtractionError(path, "file is too small to be a shared library")
	}

	var symbols []symbol
	switch {
	case bytes.Equal(magic[:], []byte(elf.ELFMAG)):
		symbols, err = elfSymbols(f)
	case isMachO(magic):
		symbols, err = machoSymbols(f)
	case magic[0] == 'M' && magic[1] == 'Z':
		symbols, err = peSymbols(f)
	default:
		return nil, errors.NewExtractionError(path, "unrecognized object file format")
	}
	if err != nil {
		return nil, errors.NewExtractionError(path, err.Error())
	}
	if len(symbols) == 0 {
		return nil, errors.NewExtractionError(path, "no metadata symbols found")
	}

	sort.Slice(symbols, func(a, b int) bool { return symbols[a].name < symbols[b].name })
	items := make([]metadata.Item, 0, len(symbols))
	for _, sym := range symbols {
		payload, err := readPayload(sym)
		if err != nil {
			return nil, errors.WrapExtractionError(path, sym.name, err)
		}
		item, err := metadata.DecodePayload(payload)
		if err != nil {
			return nil, errors.WrapExtractionError(path, sym.name, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func readPayload(sym symbol) ([]byte, error) {
	if sym.offset >= sym.limit {
		return nil, fmt.Errorf("payload offset %d is past the end of its section (%d bytes)", sym.offset, sym.limit)
	}
	avail := sym.limit - sym.offset
	size := sym.size
	if size == 0 {
		if avail < 4 {
			return nil, fmt.Errorf("payload length header is truncated")
		}
		var hdr [4]byte
		if _, err := sym.section.ReadAt(hdr[:], int64(sym.offset)); err != nil {
			return nil, fmt.Errorf("failed to read payload length: %w", err)
		}
		size = 4 + uint64(binary.LittleEndian.Uint32(hdr[:]))
	}
	if size > avail {
		return nil, fmt.Errorf("payload size %d exceeds the %d bytes left in its section", size, avail)
	}
	buf := make([]byte, size)
	n, err := sym.section.ReadAt(buf, int64(sym.offset))
	if err != nil && !(err == io.EOF && n == len(buf)) {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return buf, nil
}

func isMetadataSymbol(name string) bool {
	return strings.HasPrefix(name, metadata.SymbolPrefix)
}

func elfSymbols(r io.ReaderAt) ([]symbol, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, err
	}
	if f.Type != elf.ET_DYN {
		return nil, fmt.Errorf("not a shared library (ELF type %s)", f.Type)
	}

	syms, err := f.Symbols()
	if err != nil && err != elf.ErrNoSymbols {
		return nil, err
	}
	dyn, err := f.DynamicSymbols()
	if err != nil && err != elf.ErrNoSymbols {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []symbol
	for _, s := range append(syms, dyn...) {
		if !isMetadataSymbol(s.Name) || seen[s.Name] {
			continue
		}
		idx := int(s.Section)
		if s.Section == elf.SHN_UNDEF || idx >= len(f.Sections) {
			continue
		}
		sect := f.Sections[idx]
		if s.Value < sect.Addr {
			return nil, fmt.Errorf("symbol %s lies outside section %s", s.Name, sect.Name)
		}
		seen[s.Name] = true
		out = append(out, symbol{name: s.Name, section: sect, offset: s.Value - sect.Addr, size: s.Size, limit: sect.Size})
	}
	return out, nil
}

func isMachO(magic [4]byte) bool {
	be := binary.BigEndian.Uint32(magic[:])
	le := binary.LittleEndian.Uint32(magic[:])
	for _, m := range []uint32{macho.Magic32, macho.Magic64, macho.MagicFat} {
		if be == m || le == m {
			return true
		}
	}
	return false
}

func machoSymbols(r io.ReaderAt) ([]symbol, error) {
	f, err := macho.NewFile(r)
	if err != nil {
		fat, ferr := macho.NewFatFile(r)
		if ferr != nil {
			return nil, err
		}
		if len(fat.Arches) == 0 {
			return nil, fmt.Errorf("universal binary has no architectures")
		}
		// every slice carries the same metadata
		f = fat.Arches[0].File
	}
	if f.Type != macho.TypeDylib && f.Type != macho.TypeBundle {
		return nil, fmt.Errorf("not a shared library (Mach-O type %s)", f.Type)
	}
	if f.Symtab == nil {
		return nil, nil
	}

	var out []symbol
	for _, s := range f.Symtab.Syms {
		name := strings.TrimPrefix(s.Name, "_")
		if !isMetadataSymbol(name) || s.Sect == 0 || int(s.Sect) > len(f.Sections) {
			continue
		}
		sect := f.Sections[s.Sect-1]
		if s.Value < sect.Addr {
			return nil, fmt.Errorf("symbol %s lies outside section %s", name, sect.Name)
		}
		out = append(out, symbol{name: name, section: sect, offset: s.Value - sect.Addr, limit: sect.Size})
	}
	return out, nil
}

func peSymbols(r io.ReaderAt) ([]symbol, error) {
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, err
	}
	if f.Characteristics&pe.IMAGE_FILE_DLL == 0 {
		return nil, fmt.Errorf("not a shared library (PE image is not a DLL)")
	}

	var out []symbol
	for _, s := range f.Symbols {
		if !isMetadataSymbol(s.Name) || s.SectionNumber <= 0 || int(s.SectionNumber) > len(f.Sections) {
			continue
		}
		sect := f.Sections[s.SectionNumber-1]
		out = append(out, symbol{name: s.Name, section: sect, offset: uint64(s.Value), limit: uint64(sect.Size)})
	}
	return out, nil
}
