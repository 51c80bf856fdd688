package http

import (
	"errors"

	apperrors "github.com/utafrali/configurator/pkg/errors"
	"github.com/utafrali/configurator/pkg/validator"
)

// badRequest keeps validation errors and turns decoding failures into
// INVALID_INPUT.
func badRequest(err error) error {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return err
	}
	return apperrors.InvalidInput("invalid request body")
}
