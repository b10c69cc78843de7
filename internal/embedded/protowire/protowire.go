// Package protowire is a thin field-oriented layer over
// google.golang.org/protobuf/encoding/protowire, giving
// internal/embedded/proto tagged-field helpers (AppendVarintField,
// AppendStringField, ...) and a single generic Walk decoder instead of
// requiring every message type to repeat ConsumeTag/ConsumeVarint
// dispatch loops by hand.
package protowire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

type Type = protowire.Type

const (
	VarintType Type = protowire.VarintType
	BytesType  Type = protowire.BytesType
)

// Value is whichever field representation Walk's callback needs,
// populated according to the wire type actually present on the field.
type Value struct {
	Varint uint64
	Bytes  []byte
	String string
}

func AppendVarintField(b []byte, num int32, v uint64) []byte {
	b = protowire.AppendTag(b, protowire.Number(num), protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func AppendBoolField(b []byte, num int32, v bool) []byte {
	n := uint64(0)
	if v {
		n = 1
	}
	return AppendVarintField(b, num, n)
}

func AppendBytesField(b []byte, num int32, v []byte) []byte {
	b = protowire.AppendTag(b, protowire.Number(num), protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func AppendStringField(b []byte, num int32, v string) []byte {
	return AppendBytesField(b, num, []byte(v))
}

// Walk decodes every top-level field in b, in wire order, calling fn
// once per field with a Value populated for whichever representation
// fits the field's wire type (Varint for VarintType, both Bytes and
// String for BytesType so callers can use whichever they need).
func Walk(b []byte, fn func(num int32, typ protowire.Type, v Value) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("protowire: invalid tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("protowire: invalid varint: %w", protowire.ParseError(n))
			}
			b = b[n:]
			if err := fn(int32(num), typ, Value{Varint: v}); err != nil {
				return err
			}

		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("protowire: invalid length-delimited field: %w", protowire.ParseError(n))
			}
			b = b[n:]
			if err := fn(int32(num), typ, Value{Bytes: v, String: string(v)}); err != nil {
				return err
			}

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("protowire: cannot skip field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}
