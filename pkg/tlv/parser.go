// Package tlv maps BER-TLV data objects, as found in SECCOS transparent and
// record files, onto Go structs and renders them for reports.
//
// Fields are bound with a `tlv:"<tag>"` struct tag. A single field tagged
// `tlv:",unknown"` of type []bertlv.TLV collects the objects no other field
// claimed. Supported field kinds are []byte (raw value), string (hex of the
// value), nested structs for constructed tags, slices of those for repeated
// tags, and any type implementing Unmarshaler.
package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Unmarshaler is implemented by types that decode their own value field.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

const unknownOption = "unknown"

// Unmarshal decodes data and maps the top-level objects into target, which
// must be a non-nil pointer to a struct.
func Unmarshal(data []byte, target any) error {
	objects, err := bertlv.Decode(data)
	if err != nil {
		return fmt.Errorf("bertlv decode failed: %w", err)
	}
	return UnmarshalFromPackets(objects, target)
}

// UnmarshalFromPackets maps already decoded objects into target.
func UnmarshalFromPackets(objects []bertlv.TLV, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a non-nil pointer to a struct, got %T", target)
	}
	st := rv.Elem()

	byTag := make(map[string][]int, len(objects))
	for i, obj := range objects {
		tag := strings.ToUpper(obj.Tag)
		byTag[tag] = append(byTag[tag], i)
	}

	claimed := make([]bool, len(objects))
	var rest reflect.Value

	for i := 0; i < st.NumField(); i++ {
		tag, isRest := fieldTag(st.Type().Field(i))
		switch {
		case isRest:
			rest = st.Field(i)
			continue
		case tag == "":
			continue
		}

		for _, idx := range byTag[tag] {
			if err := assign(objects[idx], st.Field(i)); err != nil {
				return fmt.Errorf("tag %s: %w", tag, err)
			}
			claimed[idx] = true
		}
	}

	if !rest.IsValid() || !rest.CanSet() {
		return nil
	}
	var leftovers []bertlv.TLV
	for i, obj := range objects {
		if !claimed[i] {
			leftovers = append(leftovers, obj)
		}
	}
	if len(leftovers) > 0 {
		rest.Set(reflect.ValueOf(leftovers))
	}
	return nil
}

// fieldTag returns the upper-case tag bound to f, or isRest for the field
// that collects unclaimed objects. A field named Unknown is treated as the
// collector even without a struct tag.
func fieldTag(f reflect.StructField) (tag string, isRest bool) {
	value, ok := f.Tag.Lookup("tlv")
	if !ok {
		return "", f.Name == "Unknown"
	}
	name, opts, _ := strings.Cut(value, ",")
	if opts == unknownOption || f.Name == "Unknown" {
		return "", true
	}
	return strings.ToUpper(name), false
}

// assign stores obj in field. Repeated tags append to slice fields, other
// than []byte which always holds a single value.
func assign(obj bertlv.TLV, field reflect.Value) error {
	if field.Kind() != reflect.Slice || isBytes(field.Type()) {
		return decodeValue(obj, field)
	}
	elem := reflect.New(field.Type().Elem()).Elem()
	if err := decodeValue(obj, elem); err != nil {
		return err
	}
	field.Set(reflect.Append(field, elem))
	return nil
}

func decodeValue(obj bertlv.TLV, field reflect.Value) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(valueOf(obj))
		}
	}

	switch {
	case isBytes(field.Type()):
		field.SetBytes(valueOf(obj))
	case field.Kind() == reflect.String:
		field.SetString(hex.EncodeToString(obj.Value))
	case field.Kind() == reflect.Struct:
		return nested(obj, field.Addr())
	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return nested(obj, field)
	}
	return nil
}

func nested(obj bertlv.TLV, ptr reflect.Value) error {
	if len(obj.TLVs) > 0 {
		return UnmarshalFromPackets(obj.TLVs, ptr.Interface())
	}
	return Unmarshal(obj.Value, ptr.Interface())
}

// valueOf returns the value field of obj. bertlv splits constructed objects
// into children, so those are encoded back.
func valueOf(obj bertlv.TLV) []byte {
	if len(obj.TLVs) == 0 {
		return obj.Value
	}
	if enc, err := bertlv.Encode(obj.TLVs); err == nil {
		return enc
	}
	return obj.Value
}

func isBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}
