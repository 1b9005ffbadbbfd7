// Package kproto encodes typed edge values as protobuf well-known wrapper
// messages, so consumers in any language can decode them without a shared
// schema.
package kproto

import (
	"github.com/birdayz/kedgeio/kserde"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Serializer returns a protobuf serializer for any proto.Message type.
func Serializer[T proto.Message]() kserde.Serializer[T] {
	return func(v T) ([]byte, error) {
		return proto.Marshal(v)
	}
}

// DeserializerFor returns a protobuf deserializer that creates new
// instances through the message's reflection descriptor.
func DeserializerFor[T proto.Message]() kserde.Deserializer[T] {
	return func(data []byte) (T, error) {
		var zero T
		msg := zero.ProtoReflect().New().Interface().(T)
		if err := proto.Unmarshal(data, msg); err != nil {
			return zero, err
		}
		return msg, nil
	}
}

// wrap adapts a scalar to a wrapper message serde.
func wrap[T any, M proto.Message](box func(T) M, unbox func(M) T) kserde.Serde[T] {
	ser := Serializer[M]()
	deser := DeserializerFor[M]()
	return kserde.Serde[T]{
		Serializer: func(v T) ([]byte, error) {
			return ser(box(v))
		},
		Deserializer: func(b []byte) (T, error) {
			m, err := deser(b)
			if err != nil {
				var zero T
				return zero, err
			}
			return unbox(m), nil
		},
	}
}

// Float64 encodes weights as google.protobuf.DoubleValue.
var Float64 = wrap(wrapperspb.Double, func(m *wrapperspb.DoubleValue) float64 { return m.GetValue() })

// Int64 encodes weights as google.protobuf.Int64Value.
var Int64 = wrap(wrapperspb.Int64, func(m *wrapperspb.Int64Value) int64 { return m.GetValue() })

// String encodes text values as google.protobuf.StringValue.
var String = wrap(wrapperspb.String, func(m *wrapperspb.StringValue) string { return m.GetValue() })
