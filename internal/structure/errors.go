package structure

// conversionError signals that a representation conversion was impossible
// because geometry or species data was missing or invalid. It always names
// the offending field and is propagated to the immediate caller.
type conversionError struct {
	field  string
	reason string
}

func (e conversionError) Error() string {
	return "structure conversion: " + e.field + ": " + e.reason
}

// IsConversionError reports whether err is a representation conversion failure.
func IsConversionError(err error) bool {
	_, ok := err.(conversionError)
	return ok
}
