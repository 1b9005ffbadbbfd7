package kserde

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// Int64Serializer serializes int64 to big-endian bytes
var Int64Serializer = func(data int64) ([]byte, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(data))
	return buf, nil
}

// Int64Deserializer deserializes big-endian bytes to int64
var Int64Deserializer = func(data []byte) (int64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("int64 deserialization requires exactly 8 bytes, got %d", len(data))
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}

// Int64 is a SerDe for int64 values
var Int64 = Serde[int64]{
	Serializer:   Int64Serializer,
	Deserializer: Int64Deserializer,
}

// Int64TextDeserializer parses a base-10 integer with an optional sign
var Int64TextDeserializer = func(data []byte) (int64, error) {
	return strconv.ParseInt(string(data), 10, 64)
}

// Int64TextSerializer writes v in base 10
var Int64TextSerializer = func(data int64) ([]byte, error) {
	return strconv.AppendInt(nil, data, 10), nil
}

// Int64Text is a SerDe for int64 values written as decimal text
var Int64Text = Serde[int64]{
	Serializer:   Int64TextSerializer,
	Deserializer: Int64TextDeserializer,
}
