package transform

import (
	"bytes"
	"encoding/json"
	"errors"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Builtins returns a new registry holding the built-in transforms:
//
//	json       JSON document -> module.exports = <document>;
//	raw        any text      -> module.exports = "<text>";
//	strip-bom  drops a leading UTF-8 byte order mark
func Builtins() Registry {
	return Registry{
		"json":      JSON,
		"raw":       Raw,
		"strip-bom": StripBOM,
	}
}

// JSON turns a JSON document into a module exporting it.
func JSON(_ string, source []byte) ([]byte, error) {
	doc := bytes.TrimSpace(bytes.TrimPrefix(source, bom))
	if !json.Valid(doc) {
		return nil, errors.New("invalid JSON document")
	}
	var b bytes.Buffer
	b.WriteString("module.exports = ")
	b.Write(doc)
	b.WriteString(";\n")
	return b.Bytes(), nil
}

// Raw turns any text into a module exporting it as a string.
func Raw(_ string, source []byte) ([]byte, error) {
	lit, err := json.Marshal(string(source))
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.WriteString("module.exports = ")
	b.Write(lit)
	b.WriteString(";\n")
	return b.Bytes(), nil
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(_ string, source []byte) ([]byte, error) {
	return bytes.TrimPrefix(source, bom), nil
}
