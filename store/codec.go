package store

import (
	json "github.com/goccy/go-json"

	"github.com/kbukum/cachekit/errors"
)

// Codec converts values to and from bytes for serializing tiers.
type Codec interface {
	Marshal(value any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// JSONCodec encodes values as JSON. Decoded values take their generic JSON
// shape: numbers become float64, objects become map[string]any.
type JSONCodec struct{}

func (JSONCodec) Marshal(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Serialization("encode", err)
	}
	return data, nil
}

func (JSONCodec) Unmarshal(data []byte) (any, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, errors.Serialization("decode", err)
	}
	return value, nil
}

// BytesCodec passes []byte and string values through untouched and decodes to []byte.
type BytesCodec struct{}

func (BytesCodec) Marshal(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.Serialization("encode", nil).
			WithDetail("reason", "BytesCodec accepts only []byte or string")
	}
}

func (BytesCodec) Unmarshal(data []byte) (any, error) {
	return data, nil
}
