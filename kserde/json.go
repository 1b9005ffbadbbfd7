package kserde

import (
	"encoding/json"
)

// JSONSerializer encodes values with encoding/json. Typed edges written this
// way carry their field names, which makes them readable by non-Go engines.
func JSONSerializer[T any]() Serializer[T] {
	return func(t T) ([]byte, error) {
		return json.Marshal(t)
	}
}

// JSONDeserializer is the inverse of JSONSerializer. On error the zero value
// is returned.
func JSONDeserializer[T any]() Deserializer[T] {
	return func(b []byte) (T, error) {
		var out T
		if err := json.Unmarshal(b, &out); err != nil {
			var zero T
			return zero, err
		}
		return out, nil
	}
}

func JSON[T any]() Serde[T] {
	return Serde[T]{JSONSerializer[T](), JSONDeserializer[T]()}
}
