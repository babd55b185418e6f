// Package api defines the request/response contracts of the diagram service
// and a client for them.
package api

import (
	"context"
	"errors"
	"fmt"
)

// GenerateRequest asks the service to turn a query into a diagram.
type GenerateRequest struct {
	Query string `json:"query" validate:"required"`
}

// GenerateResponse is the service's answer to a GenerateRequest. Only
// Success, Diagram and Detail are needed by the client core; the rest
// describe how the diagram was produced.
type GenerateResponse struct {
	Success         bool   `json:"success"`
	Diagram         string `json:"diagram,omitempty"`
	Detail          string `json:"detail,omitempty"`
	Query           string `json:"query,omitempty"`
	Description     string `json:"description,omitempty"`
	DiagramType     string `json:"diagram_type,omitempty"`
	RenderType      string `json:"render_type,omitempty"`
	RenderedContent string `json:"rendered_content,omitempty"`
}

// DeepDiveRequest asks a follow-up question about one diagram element.
type DeepDiveRequest struct {
	SelectedText  string `json:"selected_text" validate:"required"`
	Question      string `json:"question" validate:"required"`
	OriginalQuery string `json:"original_query"`
}

// DeepDiveResponse carries the answer to a DeepDiveRequest.
type DeepDiveResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Service is the remote diagram-generation and question-answering service.
// Implementations return an error wrapping ErrServiceFailure,
// ErrMalformedResponse or ErrTransport instead of an unsuccessful response.
type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	DeepDive(ctx context.Context, req DeepDiveRequest) (*DeepDiveResponse, error)
}

var (
	ErrServiceFailure    = errors.New("service reported failure")
	ErrMalformedResponse = errors.New("malformed service response")
	ErrTransport         = errors.New("transport failure")
)

// ServiceError is a failure reported by the service itself.
type ServiceError struct {
	Detail string
}

func (e *ServiceError) Error() string {
	if e.Detail == "" {
		return ErrServiceFailure.Error()
	}
	return fmt.Sprintf("%s: %s", ErrServiceFailure, e.Detail)
}

func (e *ServiceError) Is(target error) bool { return target == ErrServiceFailure }

// Detail extracts the service-provided detail from err, if any.
func Detail(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Detail
	}
	return ""
}

// CheckGenerate converts an unsuccessful or empty response into an error.
func CheckGenerate(resp *GenerateResponse) error {
	switch {
	case resp == nil:
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	case !resp.Success:
		return &ServiceError{Detail: resp.Detail}
	case resp.Diagram == "":
		return fmt.Errorf("%w: no diagram in response", ErrMalformedResponse)
	}
	return nil
}

// CheckDeepDive converts an unsuccessful deep-dive response into an error.
func CheckDeepDive(resp *DeepDiveResponse) error {
	switch {
	case resp == nil:
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	case !resp.Success:
		return &ServiceError{Detail: resp.Detail}
	}
	return nil
}
