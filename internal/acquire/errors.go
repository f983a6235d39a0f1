package acquire

import "fmt"

// Reason classifies why an acquisition exhausted both strategies.
type Reason string

const (
	// ReasonTransport means neither strategy returned markup. The upstream
	// was unreachable or blocking; retrying later may succeed.
	ReasonTransport Reason = "transport"
	// ReasonExtraction means at least one strategy returned markup but no
	// valid listing could be extracted. The site layout likely changed.
	ReasonExtraction Reason = "extraction"
)

// Error reports a failed acquisition, naming both attempted strategies so
// the root cause can be diagnosed without retrying blindly.
type Error struct {
	ExtensionID string
	URL         string
	Reason      Reason
	StaticErr   error
	RenderedErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("acquire %s (%s): static: %v; rendered: %v",
		e.ExtensionID, e.Reason, e.StaticErr, e.RenderedErr)
}
