package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// UnmarshalFlex tries to unmarshal model output into v with best effort:
// 1) direct unmarshal, 2) unwrap a quoted-JSON string and retry. Model
// backends occasionally return the payload double-encoded.
func UnmarshalFlex(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	inner, err := unwrapQuoted(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(inner, v)
}

// UnmarshalRaw accepts json.RawMessage directly.
func UnmarshalRaw(raw json.RawMessage, v any) error {
	return UnmarshalFlex([]byte(raw), v)
}

// unwrapQuoted peels up to two levels of string-encoded JSON.
func unwrapQuoted(raw []byte) ([]byte, error) {
	cur := raw
	for i := 0; i < 2; i++ {
		var s string
		if err := json.Unmarshal(cur, &s); err != nil {
			return nil, errors.New("jsonutil: payload is not valid JSON")
		}
		cur = []byte(strings.TrimSpace(s))
		var scratch any
		if err := json.Unmarshal(cur, &scratch); err == nil {
			return cur, nil
		}
	}
	return nil, errors.New("jsonutil: payload is not valid JSON")
}

// MarshalNoEscape encodes v into JSON without escaping <, >, & into <, etc.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalNoEscapeIndent encodes v with indentation but without HTML escaping.
func MarshalNoEscapeIndent(v any, prefix, indent string) ([]byte, error) {
	b, err := MarshalNoEscape(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
