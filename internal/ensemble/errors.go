package ensemble

import (
	"errors"

	"mlipens/pkg/types"
)

// missingRepresentationError signals that a model's required structure form
// was not supplied on the record. It is contained by the manager as that
// model's error entry, never propagated.
type missingRepresentationError struct {
	model  string
	format types.Format
}

func (e missingRepresentationError) Error() string {
	return "structure in " + e.format.String() + " format not available for model " + e.model
}

func errMissingRepresentation(model string, format types.Format) error {
	return missingRepresentationError{model: model, format: format}
}

// IsMissingRepresentation reports whether err indicates an absent structure
// representation.
func IsMissingRepresentation(err error) bool {
	var me missingRepresentationError
	return errors.As(err, &me)
}
