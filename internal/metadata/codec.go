package metadata

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// SymbolPrefix starts the name of every exported symbol carrying a metadata item
const SymbolPrefix = "UNIFFI_META_"

// envelope is the tagged JSON form of an Item
type envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Encode serializes an item into its tagged JSON form
func Encode(item Item) ([]byte, error) {
	if item == nil {
		return nil, fmt.Errorf("cannot encode nil metadata item")
	}
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", item.Kind(), err)
	}
	return json.Marshal(envelope{Kind: item.Kind().String(), Data: data})
}

// Decode parses the tagged JSON form produced by Encode
func Decode(data []byte) (Item, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode metadata envelope: %w", err)
	}
	kind, ok := parseItemKind(env.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown metadata item kind %q", env.Kind)
	}

	var item Item
	switch kind {
	case KindNamespace:
		item = &NamespaceItem{}
	case KindUdlFile:
		item = &UdlFileItem{}
	case KindFunc:
		item = &FuncItem{}
	case KindMethod:
		item = &MethodItem{}
	case KindTraitMethod:
		item = &TraitMethodItem{}
	case KindConstructor:
		item = &ConstructorItem{}
	case KindRecord:
		item = &RecordItem{}
	case KindEnum:
		item = &EnumItem{}
	case KindObject:
		item = &ObjectItem{}
	case KindCallbackInterface:
		item = &CallbackInterfaceItem{}
	case KindCustomType:
		item = &CustomTypeItem{}
	}
	if err := json.Unmarshal(env.Data, item); err != nil {
		return nil, fmt.Errorf("failed to decode %s item: %w", env.Kind, err)
	}
	if item.ModulePath() == "" {
		return nil, fmt.Errorf("%s item has no module path", env.Kind)
	}
	return item, nil
}

// EncodePayload produces the bytes stored behind a metadata symbol: a
// little-endian uint32 length followed by the tagged JSON encoding.
func EncodePayload(item Item) ([]byte, error) {
	data, err := Encode(item)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(out, uint32(len(data)))
	copy(out[4:], data)
	return out, nil
}

// DecodePayload reads one item from the start of data. Trailing bytes are
// ignored since some object formats do not record symbol sizes.
func DecodePayload(data []byte) (Item, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("metadata payload too short (%d bytes)", len(data))
	}
	n := binary.LittleEndian.Uint32(data)
	if uint64(n) > uint64(len(data)-4) {
		return nil, fmt.Errorf("metadata payload truncated: want %d bytes, have %d", n, len(data)-4)
	}
	return Decode(data[4 : 4+n])
}

// Key returns the canonical structural key of item. Two items are equal
// exactly when their keys are equal, and keys order items canonically.
func Key(item Item) string {
	data, err := Encode(item)
	if err != nil {
		// only reachable for nil items
		return fmt.Sprintf("%#v", item)
	}
	return string(data)
}
