// SPDX-License-Identifier: MPL-2.0

package pytest

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// CaptureNo disables output capturing. The suite does heavy subprocess
	// IO that the other modes interfere with.
	CaptureNo CaptureMode = "no"
	// CaptureSys captures at the sys.stdout/sys.stderr level.
	CaptureSys CaptureMode = "sys"
	// CaptureFD captures at the file descriptor level.
	CaptureFD CaptureMode = "fd"
	// CaptureTeeSys captures and also passes output through.
	CaptureTeeSys CaptureMode = "tee-sys"

	// ReportTerm prints the coverage table to the terminal.
	ReportTerm ReportFormat = "term"
	// ReportTermMissing adds missing line numbers to the terminal table.
	ReportTermMissing ReportFormat = "term-missing"
	// ReportHTML writes an HTML report under htmlcov/.
	ReportHTML ReportFormat = "html"
	// ReportXML writes coverage.xml.
	ReportXML ReportFormat = "xml"
	// ReportAnnotate writes annotated source copies.
	ReportAnnotate ReportFormat = "annotate"
)

var (
	// ErrInvalidCaptureMode is returned when a CaptureMode value is not recognized.
	ErrInvalidCaptureMode = errors.New("invalid capture mode")
	// ErrInvalidReportFormat is returned when a ReportFormat value is not recognized.
	ErrInvalidReportFormat = errors.New("invalid coverage report format")
	// ErrInvalidModule is returned when a module name cannot name a test file.
	ErrInvalidModule = errors.New("invalid test module")
	// ErrInvalidTestOptions is the sentinel error wrapped by InvalidTestOptionsError.
	ErrInvalidTestOptions = errors.New("invalid test options")
)

type (
	// CaptureMode is the runner's --capture value.
	CaptureMode string

	// InvalidCaptureModeError is returned when a CaptureMode value is not recognized.
	InvalidCaptureModeError struct {
		Value CaptureMode
	}

	// ReportFormat is the runner's --cov-report value.
	ReportFormat string

	// InvalidReportFormatError is returned when a ReportFormat value is not recognized.
	InvalidReportFormatError struct {
		Value ReportFormat
	}

	// InvalidTestOptionsError collects TestOptions field errors.
	InvalidTestOptionsError struct {
		FieldErrors []error
	}

	// TestOptions is everything one test run is parameterized by.
	TestOptions struct {
		Verbose bool
		Color   bool
		Capture CaptureMode
		// Module selects tests/<Module>.py.
		Module string
		// K is a test-name filter expression.
		K string
		// X stops at the first failing test.
		X bool
		// Opts holds extra runner arguments, split with shell rules.
		Opts string
		// PTY attaches the runner to a pseudo-terminal when possible.
		PTY bool
	}
)

// DefaultTestOptions returns the project defaults: no capture, color and a
// pty, quiet output.
func DefaultTestOptions() TestOptions {
	return TestOptions{
		Color:   true,
		Capture: CaptureNo,
		PTY:     true,
	}
}

// String returns the string representation of the CaptureMode.
func (m CaptureMode) String() string { return string(m) }

// IsValid returns whether the CaptureMode is one of the defined modes.
func (m CaptureMode) IsValid() (bool, []error) {
	switch m {
	case CaptureNo, CaptureSys, CaptureFD, CaptureTeeSys:
		return true, nil
	default:
		return false, []error{&InvalidCaptureModeError{Value: m}}
	}
}

// Error implements the error interface for InvalidCaptureModeError.
func (e *InvalidCaptureModeError) Error() string {
	return fmt.Sprintf("invalid capture mode %q (valid: no, sys, fd, tee-sys)", e.Value)
}

// Unwrap returns ErrInvalidCaptureMode for errors.Is() compatibility.
func (e *InvalidCaptureModeError) Unwrap() error { return ErrInvalidCaptureMode }

// String returns the string representation of the ReportFormat.
func (f ReportFormat) String() string { return string(f) }

// IsValid returns whether the ReportFormat is one of the defined formats.
func (f ReportFormat) IsValid() (bool, []error) {
	switch f {
	case ReportTerm, ReportTermMissing, ReportHTML, ReportXML, ReportAnnotate:
		return true, nil
	default:
		return false, []error{&InvalidReportFormatError{Value: f}}
	}
}

// Error implements the error interface for InvalidReportFormatError.
func (e *InvalidReportFormatError) Error() string {
	return fmt.Sprintf("invalid coverage report format %q (valid: term, term-missing, html, xml, annotate)", e.Value)
}

// Unwrap returns ErrInvalidReportFormat for errors.Is() compatibility.
func (e *InvalidReportFormatError) Unwrap() error { return ErrInvalidReportFormat }

// IsValid returns whether every TestOptions field is usable.
func (o TestOptions) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := o.Capture.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if o.Module != "" && (strings.ContainsAny(o.Module, `/\`) || strings.TrimSpace(o.Module) != o.Module) {
		errs = append(errs, fmt.Errorf("%w %q: must be a bare module name", ErrInvalidModule, o.Module))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidTestOptionsError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate returns nil when the options are usable.
func (o TestOptions) Validate() error {
	if valid, errs := o.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// WithOpts returns a copy of o with extra appended to Opts.
func (o TestOptions) WithOpts(extra string) TestOptions {
	o.Opts = strings.TrimSpace(o.Opts + " " + extra)
	return o
}

// Error implements the error interface for InvalidTestOptionsError.
func (e *InvalidTestOptionsError) Error() string {
	return fmt.Sprintf("invalid test options: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidTestOptions and the field errors.
func (e *InvalidTestOptionsError) Unwrap() []error {
	return append([]error{ErrInvalidTestOptions}, e.FieldErrors...)
}
