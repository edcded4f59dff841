package registration

import "fmt"

// Error handling follows the taxonomy of spec.md §7. Each kind is a
// concrete struct implementing error and Is(target error) bool, the same
// shape as the teacher's internal/store.NotFoundError, so callers can use
// errors.Is/errors.As against the sentinel values below.
//
// Validation errors (InvalidInput, BadCropBounds, BadConfig) are detected
// before any heavy work starts. Numerical failures abort the current run
// and carry the latest motion estimate for diagnostics. Convergence
// failure (hitting max_iterations) is not an error at all -- it is
// logged at info level by the residual tracker, see convergence.go.

// InvalidInputError reports an empty stack, mixed/unsupported pixel
// types, an unreadable image file, or a stack whose images do not all
// share dimensions.
type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string { return "invalid input: " + e.Msg }

func (e *InvalidInputError) Is(target error) bool {
	_, ok := target.(*InvalidInputError)
	return ok
}

// ErrInvalidInput is a sentinel for errors.Is checks against any
// InvalidInputError, independent of its message.
var ErrInvalidInput = &InvalidInputError{}

// BadCropBoundsError reports a crop rectangle that exits the image bounds
// or is inverted (spec.md §4.5).
type BadCropBoundsError struct {
	Rect          Rect
	Width, Height int
}

func (e *BadCropBoundsError) Error() string {
	return fmt.Sprintf("crop bounds %+v outside image bounds %dx%d", e.Rect, e.Width, e.Height)
}

func (e *BadCropBoundsError) Is(target error) bool {
	_, ok := target.(*BadCropBoundsError)
	return ok
}

// ErrBadCropBounds is a sentinel for errors.Is checks against any
// BadCropBoundsError.
var ErrBadCropBounds = &BadCropBoundsError{}

// BadConfigError reports a configuration parameter outside its documented
// range (spec.md §3 Configuration).
type BadConfigError struct {
	Field string
	Value any
}

func (e *BadConfigError) Error() string {
	return fmt.Sprintf("bad config: %s = %v", e.Field, e.Value)
}

func (e *BadConfigError) Is(target error) bool {
	_, ok := target.(*BadConfigError)
	return ok
}

// ErrBadConfig is a sentinel for errors.Is checks against any
// BadConfigError.
var ErrBadConfig = &BadConfigError{}

// NumericalFailureError reports a singular reference motion, or an SVD or
// Cholesky failure the solver could not route around. Partial carries the
// best motion estimate available at the time of failure, per spec.md §7.
type NumericalFailureError struct {
	Msg     string
	Partial []MotionParams
}

func (e *NumericalFailureError) Error() string { return "numerical failure: " + e.Msg }

func (e *NumericalFailureError) Is(target error) bool {
	_, ok := target.(*NumericalFailureError)
	return ok
}

// ErrNumericalFailure is a sentinel for errors.Is checks against any
// NumericalFailureError.
var ErrNumericalFailure = &NumericalFailureError{}

// CancelledError reports cooperative cancellation by the host. Partial
// carries the latest motion estimate, per spec.md §5/§7.
type CancelledError struct {
	Partial []MotionParams
}

func (e *CancelledError) Error() string { return "registration cancelled" }

func (e *CancelledError) Is(target error) bool {
	_, ok := target.(*CancelledError)
	return ok
}

// ErrCancelled is a sentinel for errors.Is checks against any
// CancelledError.
var ErrCancelled = &CancelledError{}
