// Package iojson reads and writes the JSON documents exchanged by the CLI
// and the correction backend.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// Error is the body of every non-2xx backend response.
type Error struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func jsonError(msg string, jsonErr error) string {
	msgBytes, _ := json.Marshal(msg)
	errBytes, _ := json.Marshal(jsonErr.Error())
	return fmt.Sprintf(`{"message":%s,"data":{"json_error":%s}}`, msgBytes, errBytes)
}

// MarshalError renders an Error. If data cannot be marshaled the result
// still carries msg, with the marshal failure under data.json_error.
func MarshalError(msg string, data map[string]any) string {
	bits, err := json.Marshal(Error{Message: msg, Data: data})
	if err != nil {
		return jsonError(msg, err)
	}
	return string(bits)
}

// ParseError extracts the message from an Error body. It reports false for
// anything else, including plain text and JSON without a message.
func ParseError(body []byte) (Error, bool) {
	var e Error
	if err := json.Unmarshal(body, &e); err != nil || e.Message == "" {
		return Error{}, false
	}
	return e, true
}

// WriteWith writes obj as indented JSON to w. Marshal failures are reported
// as an Error on ew.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_, err = fmt.Fprintln(ew, jsonError("error marshaling in iojson.WriteWith", err))
		return err
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}
