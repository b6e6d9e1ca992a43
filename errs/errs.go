// Package errs defines the five error kinds this system's driver boundary
// distinguishes, layered on top of
// github.com/pkg/errors for context wrapping.
package errs

import "github.com/pkg/errors"

// Kind classifies a terminating condition for the driver.
type Kind int

const (
	// Config is an unknown metric, an unsupported metric for the read
	// type, or a conflicting flag combination. Always fatal. Conflicting
	// flags are detected before any movie is opened; unknown or unsupported
	// metrics are detected while a movie is processed, after its readers
	// are open.
	Config Kind = iota
	// DataAvailability is a required source field that is absent. Warn-and-drop
	// by default, fatal under -failOnMissingData.
	DataAvailability
	// Integrity is a reference/alignment-group lookup miss, a
	// hole-to-read-index miss, or an aligned-sequence mismatch. Always fatal.
	Integrity
	// Bounds is a column offset or pulse index out of range. Always fatal;
	// indicates an implementation defect.
	Bounds
	// IO is a failure to open or read an input, or to write an archive
	// column. Fatal after best-effort resource release.
	IO
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "ConfigError"
	case DataAvailability:
		return "DataAvailabilityError"
	case Integrity:
		return "IntegrityError"
	case Bounds:
		return "BoundsError"
	case IO:
		return "IOError"
	default:
		return "UnknownError"
	}
}

// Error is a Kind-tagged, pkg/errors-wrapped error.
type Error struct {
	Kind Kind
	err  error
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.err.Error() }

// Unwrap lets errors.Is/errors.As from both the standard library and
// pkg/errors see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// New builds a Kind-tagged error with a formatted message.
func New(k Kind, format string, args ...interface{}) error {
	return &Error{Kind: k, err: errors.Errorf(format, args...)}
}

// Wrap tags an existing error with a Kind, preserving its chain.
func Wrap(k Kind, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: k, err: errors.Wrapf(cause, format, args...)}
}

// KindOf returns the Kind of err if it (or something it wraps) is an *Error,
// and false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Fatal reports whether an error of this kind always terminates the run,
// independent of the -failOnMissingData flag.
func (k Kind) Fatal() bool {
	return k != DataAvailability
}
