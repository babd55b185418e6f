package lifecycle

import "fmt"

// FailureKind classifies why an attempt failed.
type FailureKind string

const (
	KindService   FailureKind = "service"
	KindTransport FailureKind = "transport"
	KindRender    FailureKind = "render"
)

// Failure is the error a failed attempt reports. Every kind is recoverable
// by generating again.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failure: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }
