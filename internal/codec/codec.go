// Package codec transforms serialized daily logs before they reach disk.
//
// The base64 codec is opacity against casual inspection, not a security
// control. Anything that needs confidentiality should plug in its own Codec
// without touching the DailyLog model or the stores.
package codec

import (
	"encoding/base64"
	"fmt"
)

// Codec is a reversible byte transform applied after JSON serialization.
type Codec interface {
	Name() string
	Encode(plain []byte) ([]byte, error)
	Decode(encoded []byte) ([]byte, error)
}

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	switch name {
	case "base64":
		return Base64{}, nil
	case "plain":
		return Plain{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

// Base64 encodes with the standard base64 alphabet.
type Base64 struct{}

func (Base64) Name() string { return "base64" }

func (Base64) Encode(plain []byte) ([]byte, error) {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(plain)))
	base64.StdEncoding.Encode(out, plain)
	return out, nil
}

func (Base64) Decode(encoded []byte) ([]byte, error) {
	out := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(out, encoded)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return out[:n], nil
}

// Plain stores bytes unchanged. Useful when inspecting logs by hand.
type Plain struct{}

func (Plain) Name() string { return "plain" }

func (Plain) Encode(plain []byte) ([]byte, error) {
	return append([]byte(nil), plain...), nil
}

func (Plain) Decode(encoded []byte) ([]byte, error) {
	return append([]byte(nil), encoded...), nil
}
