package tlv

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

var tlvSliceType = reflect.TypeOf([]bertlv.TLV(nil))

// WriteStructFields writes one "    - prefix.Field (tag): value" line per
// non-empty []byte field of s, rendered according to its `fmt` tag, then one
// line per unknown TLV. Lines are newline-separated with no trailing newline;
// a non-empty builder gets a leading newline first.
func WriteStructFields(sb *strings.Builder, prefix string, s any) {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}

	var lines []string
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if field.Kind() != reflect.Slice || field.Len() == 0 {
			continue
		}

		sf := val.Type().Field(i)
		switch {
		case field.Type() == tlvSliceType:
			for _, obj := range field.Interface().([]bertlv.TLV) {
				lines = append(lines, fmt.Sprintf("    - %s.Unknown Tag %s: %X", prefix, obj.Tag, obj.Value))
			}
		case isBytes(field.Type()):
			name := sf.Name
			if tag, _ := fieldTag(sf); tag != "" {
				name = fmt.Sprintf("%s (%s)", name, tag)
			}
			lines = append(lines, fmt.Sprintf("    - %s.%s: %s", prefix, name, formatByteValue(field.Bytes(), sf.Tag.Get("fmt"))))
		}
	}

	if len(lines) == 0 {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Join(lines, "\n"))
}

// byteFormats maps the `fmt` struct tag to a renderer. Untagged fields are
// printed as plain hex.
var byteFormats = map[string]func([]byte) string{
	"ascii": func(b []byte) string {
		return fmt.Sprintf("%X (%q)", b, MakeSafeASCII(b))
	},
	"latin1": func(b []byte) string {
		return fmt.Sprintf("%X (%q)", b, Latin1(b))
	},
	"bcd": func(b []byte) string {
		return fmt.Sprintf("%X (BCD: %s)", b, BCD(b))
	},
	"date": func(b []byte) string {
		if d, ok := Date(b); ok {
			return fmt.Sprintf("%X (%s)", b, d)
		}
		return fmt.Sprintf("%X (BCD: %s)", b, BCD(b))
	},
	"int": func(b []byte) string {
		var integer int
		for _, x := range b {
			integer = (integer << 8) | int(x)
		}
		return fmt.Sprintf("%X (Dec: %d)", b, integer)
	},
}

func formatByteValue(data []byte, format string) string {
	if render, ok := byteFormats[format]; ok {
		return render(data)
	}
	return fmt.Sprintf("%X", data)
}

// MakeSafeASCII replaces every byte outside the printable ASCII range with '.'.
func MakeSafeASCII(data []byte) string {
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '.'
	}, string(data))
}
