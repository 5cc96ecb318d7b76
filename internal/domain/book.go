package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Book is the only stored entity. Name doubles as its identifier.
type Book struct {
	Name      string `json:"name"`
	Author    string `json:"author"`
	Published Date   `json:"published"`
}

// EncodeBook renders b as compact JSON with fields in name, author,
// published order. Strings are written without HTML escaping so the stored
// bytes match what the client sent.
func EncodeBook(b Book) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("encode book: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DecodeBook parses a JSON object into a Book. Every field must be present
// under its exact lower-case key and hold a string; published must be a real
// calendar date. Other keys, including case variants of the known ones, are
// ignored. All failures match ErrDeserialization.
func DecodeBook(data []byte) (Book, error) {
	if !utf8.Valid(data) {
		return Book{}, fmt.Errorf("%w: body is not valid UTF-8", ErrDeserialization)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Book{}, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	if err := bookSchema().Validate(raw); err != nil {
		return Book{}, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}

	// The schema guarantees an object whose three fields are strings.
	obj := raw.(map[string]any)
	published, err := ParseDate(obj["published"].(string))
	if err != nil {
		return Book{}, err
	}
	return Book{
		Name:      obj["name"].(string),
		Author:    obj["author"].(string),
		Published: published,
	}, nil
}
