// Package kserde converts edge values between their typed form and bytes.
// Text codecs read the raw value field of an edge line; binary and JSON
// codecs are used when typed edges leave the process.
package kserde

type Serde[T any] struct {
	Serializer   Serializer[T]
	Deserializer Deserializer[T]
}

type Serializer[T any] func(T) ([]byte, error)

type Deserializer[T any] func([]byte) (T, error)

// FromString runs a deserializer over a raw edge value.
func FromString[T any](d Deserializer[T], raw string) (T, error) {
	return d([]byte(raw))
}
