package mlip

import "errors"

var (
	errNoEnergy = errors.New("calculator returned no energy")
	errNoForces = errors.New("calculator returned no forces")
)

// predictionError wraps a calculator failure with the model it came from.
type predictionError struct {
	model string
	cause error
}

func (e predictionError) Error() string { return "model " + e.model + ": " + e.cause.Error() }

func (e predictionError) Unwrap() error { return e.cause }

// ErrPrediction constructs a predictionError.
func ErrPrediction(model string, cause error) error {
	return predictionError{model: model, cause: cause}
}

// IsPredictionError reports whether err is (or wraps) a model prediction failure.
func IsPredictionError(err error) bool {
	var pe predictionError
	return errors.As(err, &pe)
}

// unsupportedModelError signals an unrecognized model name at configuration
// time. Configuration errors are fatal: better to fail before any expensive
// model loading than to produce a half-configured ensemble.
type unsupportedModelError struct{ name string }

func (e unsupportedModelError) Error() string { return "unsupported model name: " + e.name }

// ErrUnsupportedModel constructs an unsupportedModelError.
func ErrUnsupportedModel(name string) error { return unsupportedModelError{name: name} }

// IsUnsupportedModel reports whether err indicates an unrecognized model name.
func IsUnsupportedModel(err error) bool {
	var ue unsupportedModelError
	return errors.As(err, &ue)
}
