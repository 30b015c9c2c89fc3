// Package jsonutil provides a JSON encoding/decoding wrapper around
// github.com/go-json-experiment/json.
//
// Canonical encodings (deterministic member order, no HTML escaping, no
// whitespace) come from MarshalCanonical. Every surface that serializes the
// dashboard snapshot goes through it so the bytes never drift.
//
// Usage:
//
//	import "github.com/dashdeck/dashboard-server/pkg/jsonutil"
//
//	data, err := jsonutil.MarshalCanonical(v)
//	err = jsonutil.UnmarshalStrict(data, &v)
package jsonutil

import (
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Unmarshal parses the JSON-encoded data and stores the result in v.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// UnmarshalStrict is Unmarshal that rejects object members with no
// matching Go field.
func UnmarshalStrict(data []byte, v any) error {
	return json.Unmarshal(data, v, json.RejectUnknownMembers(true))
}

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalCanonical returns the deterministic JSON encoding of v: map keys
// sorted, compact, HTML characters left unescaped.
func MarshalCanonical(v any) ([]byte, error) {
	return json.Marshal(v, json.Deterministic(true))
}

// MarshalIndent returns the indented JSON encoding of v.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	// go-json-experiment uses jsontext options for indentation
	return json.Marshal(v, json.Deterministic(true), jsontext.WithIndentPrefix(prefix), jsontext.WithIndent(indent))
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return jsontext.Value(data).IsValid()
}

// Encoder provides a streaming JSON encoder compatible with encoding/json.Encoder.
type Encoder struct {
	w      io.Writer
	prefix string
	indent string
}

// NewStreamEncoder creates an encoder that writes to w.
func NewStreamEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the deterministic JSON encoding of v to the stream,
// followed by a newline.
func (e *Encoder) Encode(v any) error {
	var err error
	if e.indent != "" {
		err = json.MarshalWrite(e.w, v, json.Deterministic(true),
			jsontext.WithIndentPrefix(e.prefix), jsontext.WithIndent(e.indent))
	} else {
		err = json.MarshalWrite(e.w, v, json.Deterministic(true))
	}
	if err != nil {
		return err
	}
	// Add trailing newline to match encoding/json behavior
	_, err = e.w.Write([]byte{'\n'})
	return err
}

// SetIndent instructs the encoder to format each subsequent encoded value
// with the given indentation.
func (e *Encoder) SetIndent(prefix, indent string) {
	e.prefix = prefix
	e.indent = indent
}
