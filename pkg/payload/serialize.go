package payload

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/ifcwatch/pkg/errors"
)

// Indent is the indentation used by Serialize.
const Indent = "  "

// Serialize encodes v as pretty-printed JSON with two-space indentation.
//
// Object keys keep their natural order, plain Go maps are sorted, HTML
// characters are not escaped and non-finite numbers are written as null,
// so the output is identical across repeated calls for the same value.
func Serialize(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	if err := enc.Encode(sanitize(Normalize(v))); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPayload, err, "serialize value")
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// MustSerialize is like Serialize but returns the error text in place of
// the document. It is used where a rendering must never fail.
func MustSerialize(v any) string {
	s, err := Serialize(v)
	if err != nil {
		return errors.UserMessage(err)
	}
	return s
}
