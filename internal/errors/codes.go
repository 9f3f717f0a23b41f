package errors

// Error codes for the query-compilation core. The taxonomy is small on
// purpose: compilation either hit a programmer/invariant violation, was
// asked for something it cannot compile, or was fed malformed input.
// Unsatisfiable predicates and estimation degeneracies are normal values,
// not errors.
const (
	// Internal marks a broken invariant: the caller used an API in a
	// shape it does not support. Raised by panicking with an *Error and
	// recovered at the compilation boundary.
	Internal = "XX000"

	// FeatureNotSupported marks a plan shape the optimizer cannot
	// compile.
	FeatureNotSupported = "0A000"

	// InvalidParameterValue marks malformed caller input, such as an
	// unparsable path or a negative limit.
	InvalidParameterValue = "22023"
)

// Internalf builds an internal-invariant error.
func Internalf(format string, args ...interface{}) *Error {
	return Newf(Internal, format, args...)
}

// Unsupportedf builds a feature-not-supported error.
func Unsupportedf(format string, args ...interface{}) *Error {
	return Newf(FeatureNotSupported, format, args...)
}

// InvalidParameterf builds a malformed-input error.
func InvalidParameterf(format string, args ...interface{}) *Error {
	return Newf(InvalidParameterValue, format, args...)
}
