package control

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection refused, unreachable, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeInvalidResponse indicates an unexpected status code on a status request
	ErrTypeInvalidResponse
	// ErrTypeCommand indicates a control command was rejected by the device
	ErrTypeCommand
	// ErrTypeParse indicates a parsing error (malformed JSON/XML body)
	ErrTypeParse
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeDiscovery indicates a service-discovery failure
	ErrTypeDiscovery
	// ErrTypePermission indicates local network access was denied
	ErrTypePermission
	// ErrTypeNotSupported indicates the operation is not implemented for the device family
	ErrTypeNotSupported
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeInvalidResponse:
		return "Invalid Response"
	case ErrTypeCommand:
		return "Command Failed"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeDiscovery:
		return "Discovery Error"
	case ErrTypePermission:
		return "Permission Denied"
	case ErrTypeNotSupported:
		return "Not Supported"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error represents a failure while talking to a device or browsing for one
type Error struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
	DeviceIP   string    // Device IP address (for context)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a typed error
// with the most specific category it can determine.
func ClassifyNetworkError(err error, deviceIP string) *Error {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &Error{
			Type:     ErrTypeTimeout,
			Message:  "Request timed out",
			Err:      err,
			DeviceIP: deviceIP,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{
			Type:     ErrTypeTimeout,
			Message:  "Request timed out",
			Err:      err,
			DeviceIP: deviceIP,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &Error{
				Type:     ErrTypeNetwork,
				Message:  "Device refused connection",
				Err:      err,
				DeviceIP: deviceIP,
			}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &Error{
				Type:     ErrTypeNetwork,
				Message:  "Host unreachable",
				Err:      err,
				DeviceIP: deviceIP,
			}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &Error{
				Type:     ErrTypeNetwork,
				Message:  "Network unreachable",
				Err:      err,
				DeviceIP: deviceIP,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		// Recursively classify the underlying error
		classified := ClassifyNetworkError(urlErr.Err, deviceIP)
		classified.Err = err
		return classified
	}

	return &Error{
		Type:     ErrTypeNetwork,
		Message:  "Network error occurred",
		Err:      err,
		DeviceIP: deviceIP,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error, deviceIP string) *Error {
	classified := ClassifyNetworkError(err, deviceIP)
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &Error{Type: ErrTypeNetwork, Message: message, Err: err, DeviceIP: deviceIP}
}

// NewInvalidResponseError creates an error for an unexpected status response
func NewInvalidResponseError(statusCode int, deviceIP string) *Error {
	return &Error{
		Type:       ErrTypeInvalidResponse,
		Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		StatusCode: statusCode,
		DeviceIP:   deviceIP,
	}
}

// NewCommandError creates an error for a rejected control command
func NewCommandError(command string, statusCode int, deviceIP string) *Error {
	return &Error{
		Type:       ErrTypeCommand,
		Message:    fmt.Sprintf("%s failed with HTTP %d", command, statusCode),
		StatusCode: statusCode,
		DeviceIP:   deviceIP,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *Error {
	return &Error{Type: ErrTypeParse, Message: message, Err: err}
}

// NewDiscoveryError wraps a failure from the discovery subsystem
func NewDiscoveryError(message string, err error) *Error {
	return &Error{Type: ErrTypeDiscovery, Message: message, Err: err}
}

// NewNotSupportedError reports an operation a device family cannot perform.
// Callers get an explicit outcome instead of a speculative network request.
func NewNotSupportedError(operation string, family string) *Error {
	return &Error{
		Type:    ErrTypeNotSupported,
		Message: fmt.Sprintf("%s is not supported on %s devices", operation, family),
	}
}

// permissionSignatures are substrings that identify an OS-level local
// network permission denial inside a discovery error. "-65555" is the
// DNSServiceErr NoAuth code surfaced by some mDNS stacks.
var permissionSignatures = []string{"noauth", "-65555", "permission denied", "operation not permitted"}

// IsPermissionDenied reports whether an error carries the known local
// network permission-denial signature.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range permissionSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// TypeOf returns the category of a control error, or ErrTypeUnknown for
// anything else.
func TypeOf(err error) ErrorType {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ErrTypeUnknown
}

// IsNotSupported checks whether an error reports an unimplemented operation
func IsNotSupported(err error) bool {
	return TypeOf(err) == ErrTypeNotSupported
}

// IsNetworkError checks if an error is a network error (including timeouts)
func IsNetworkError(err error) bool {
	t := TypeOf(err)
	return t == ErrTypeNetwork || t == ErrTypeTimeout
}
