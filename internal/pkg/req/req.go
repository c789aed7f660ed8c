/*
Package req provides helpers for parsing and validating inbound data.

BindJSON binds HTTP request bodies. DecodePayload binds the data object of an
inbound connection event. Both run go-playground validator struct tags and
report failures as *errs.CustomError values ready to be sent back to the client.
*/
package req

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"vcturbo/internal/pkg/errs"
)

// MaxBodyBytes caps HTTP JSON request bodies.
const MaxBodyBytes int64 = 64 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalizer is implemented by payloads that clean their fields (trimming,
// case folding) before the validator tags run.
type Normalizer interface {
	Normalize()
}

// BindJSON binds the JSON body of r into dst and validates it.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return Validate(dst)
}

// DecodePayload binds an event data object into dst and validates it.
// An absent or null payload decodes to the zero value before validation, so
// required fields still fail with ErrInvalidParams.
func DecodePayload(raw json.RawMessage, dst any) *errs.CustomError {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, dst); err != nil {
			return errs.NewError(errs.ErrInvalidJSONFormat)
		}
	}

	return Validate(dst)
}

// Validate normalizes v when it implements Normalizer, then runs its validator struct tags.
func Validate(v any) *errs.CustomError {
	if n, ok := v.(Normalizer); ok {
		n.Normalize()
	}
	if err := validate.Struct(v); err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}
	return nil
}
