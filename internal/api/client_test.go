package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]byte) {
	t.Helper()
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var buf map[string]any
		if err := json.NewDecoder(r.Body).Decode(&buf); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		got, _ = json.Marshal(buf)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestGenerateSuccess(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `{"success":true,"query":"login flow","diagram":"graph TD; A[Start]-->B[Login]","diagram_type":"flowchart"}`)
	c := NewClient(srv.URL+"/", time.Second, nil)

	resp, err := c.Generate(context.Background(), GenerateRequest{Query: "login flow"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Diagram != "graph TD; A[Start]-->B[Login]" {
		t.Errorf("unexpected diagram %q", resp.Diagram)
	}
	if resp.DiagramType != "flowchart" {
		t.Errorf("unexpected diagram type %q", resp.DiagramType)
	}
	if string(*got) != `{"query":"login flow"}` {
		t.Errorf("unexpected request body %s", *got)
	}
}

func TestGenerateServiceFailure(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"success":false,"detail":"rate limited"}`)
	c := NewClient(srv.URL, time.Second, nil)

	_, err := c.Generate(context.Background(), GenerateRequest{Query: "x"})
	if !errors.Is(err, ErrServiceFailure) {
		t.Fatalf("expected ErrServiceFailure, got %v", err)
	}
	if Detail(err) != "rate limited" {
		t.Errorf("expected detail 'rate limited', got %q", Detail(err))
	}
}

func TestGenerateErrorStatusBody(t *testing.T) {
	// Error replies carry only a detail field.
	srv, _ := newTestServer(t, http.StatusInternalServerError, `{"detail":"upstream model timed out"}`)
	c := NewClient(srv.URL, time.Second, nil)

	_, err := c.Generate(context.Background(), GenerateRequest{Query: "x"})
	if !errors.Is(err, ErrServiceFailure) {
		t.Fatalf("expected ErrServiceFailure, got %v", err)
	}
	if Detail(err) != "upstream model timed out" {
		t.Errorf("unexpected detail %q", Detail(err))
	}
}

func TestGenerateMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>bad gateway</html>`},
		{"missing diagram", `{"success":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusOK, tt.body)
			c := NewClient(srv.URL, time.Second, nil)
			_, err := c.Generate(context.Background(), GenerateRequest{Query: "x"})
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, nil)
	_, err := c.Generate(context.Background(), GenerateRequest{Query: "x"})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	_, err = c.DeepDive(context.Background(), DeepDiveRequest{SelectedText: "a", Question: "b"})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestDeepDive(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `{"success":true,"response":"OAuth2 with PKCE"}`)
	c := NewClient(srv.URL, time.Second, nil)

	resp, err := c.DeepDive(context.Background(), DeepDiveRequest{
		SelectedText:  "Login",
		Question:      "what auth method?",
		OriginalQuery: "login flow",
	})
	if err != nil {
		t.Fatalf("DeepDive: %v", err)
	}
	if resp.Response != "OAuth2 with PKCE" {
		t.Errorf("unexpected response %q", resp.Response)
	}
	want := `{"original_query":"login flow","question":"what auth method?","selected_text":"Login"}`
	if string(*got) != want {
		t.Errorf("request body = %s, want %s", *got, want)
	}
}

func TestDeepDiveFailure(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"success":false,"detail":"model overloaded"}`)
	c := NewClient(srv.URL, time.Second, nil)

	_, err := c.DeepDive(context.Background(), DeepDiveRequest{SelectedText: "a", Question: "b"})
	if !errors.Is(err, ErrServiceFailure) {
		t.Fatalf("expected ErrServiceFailure, got %v", err)
	}
}
