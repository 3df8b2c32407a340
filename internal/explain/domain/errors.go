package explain

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceUnavailable indicates the generator could not produce a response.
	ErrServiceUnavailable = errors.New("explain: service unavailable")
	// ErrParse indicates the generator response could not be interpreted.
	// It is also an ErrServiceUnavailable.
	ErrParse = fmt.Errorf("%w: malformed response", ErrServiceUnavailable)
	// ErrInvalidMode indicates an unknown audience mode.
	ErrInvalidMode = errors.New("explain: invalid audience mode")
	// ErrInvalidLanguage indicates an unsupported language.
	ErrInvalidLanguage = errors.New("explain: invalid language")
	// ErrNilCache indicates a call without a session cache.
	ErrNilCache = errors.New("explain: nil cache")
)
