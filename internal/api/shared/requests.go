package shared

import (
	"encoding/json"
	"io"
	"net/http"
)

// maxRequestBodyBytes caps request bodies; generation prompts are short and
// anything larger is noise or abuse.
const maxRequestBodyBytes = 1 << 20

// DecodeJSON decodes a JSON request body into v, enforcing the body size
// cap. A body with trailing garbage after the JSON value is rejected.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return io.ErrUnexpectedEOF
	}
	return nil
}
