package stream

import "fmt"

// OpenError indicates the session never opened: the connection failed or the
// server answered with a non-success status. The session resolves straight
// to closed with a single OnDone and no events delivered; the caller can
// recover the distinction through Session.Err.
type OpenError struct {
	// Status is the HTTP status code, or 0 when the connection itself failed.
	Status int
	Err    error
}

func (e *OpenError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("stream: open failed with status %d", e.Status)
	}
	return fmt.Sprintf("stream: open failed: %v", e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// TransportError indicates an I/O failure after the stream opened. By
// policy it terminates the session through OnDone rather than OnError:
// partial output already delivered to the caller stays valid.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("stream: transport failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
