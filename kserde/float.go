package kserde

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

var Float64Deserializer = func(data []byte) (float64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("float64 deserialization requires exactly 8 bytes, got %d", len(data))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
}

var Float64Serializer = func(data float64) ([]byte, error) {
	res := make([]byte, 8)
	binary.BigEndian.PutUint64(res, math.Float64bits(data))
	return res, nil
}

var Float64 = Serde[float64]{
	Serializer:   Float64Serializer,
	Deserializer: Float64Deserializer,
}

// Float64TextDeserializer parses a decimal or exponent float. Surrounding
// whitespace is not accepted.
var Float64TextDeserializer = func(data []byte) (float64, error) {
	return strconv.ParseFloat(string(data), 64)
}

// Float64TextSerializer writes the shortest representation that parses back
// to the same value.
var Float64TextSerializer = func(data float64) ([]byte, error) {
	return strconv.AppendFloat(nil, data, 'g', -1, 64), nil
}

var Float64Text = Serde[float64]{
	Serializer:   Float64TextSerializer,
	Deserializer: Float64TextDeserializer,
}
