// Package controllers adapts HTTP requests to the services. Handlers are
// ctx.HandlerFunc values; routes wrap them with ctx.Wrap.
package controllers

import (
	"errors"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

// fail writes err: client errors with their status and message,
// validation errors as 422, anything else as a logged 500.
func fail(c *ctx.Context, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		c.ValidationError(ve.Fields)
		return
	}
	if e, ok := services.AsError(err); ok {
		c.Error(e.Status, e.Message)
		return
	}
	c.ServerError(err)
}

// idParam reads a positive integer path parameter, writing a 404 when it
// is missing or malformed.
func idParam(c *ctx.Context, name string) (uint, bool) {
	id, ok := c.ParamUint(name)
	if !ok || id == 0 {
		c.NotFound()
		return 0, false
	}
	return id, true
}
