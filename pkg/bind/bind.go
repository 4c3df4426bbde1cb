// Package bind decodes and validates JSON request bodies.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// ErrEmptyBody is returned for a request without a JSON body.
var ErrEmptyBody = errors.New("request body is empty")

func maxBodyBytes() int64 {
	n := int64(config.Int("MAX_BODY_BYTES", 4<<20))
	if n <= 0 {
		return 4 << 20
	}
	return n
}

// JSON decodes r.Body into dest and validates it. A malformed or oversized
// body yields err; rule failures yield errs.
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	if r.Body == nil {
		return nil, ErrEmptyBody
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	if err = json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return nil, ErrEmptyBody
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}
