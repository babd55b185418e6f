package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/api"
)

type errorBody struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "LLM Diagram Service is running!"})
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	resp, err := s.svc.Generate(r.Context(), req)
	if err != nil {
		s.log.Error("describe failed", zap.String("query", req.Query), zap.Error(err))
		writeError(w, http.StatusInternalServerError, detailOf(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeepDive(w http.ResponseWriter, r *http.Request) {
	var req api.DeepDiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.SelectedText = strings.TrimSpace(req.SelectedText)
	req.Question = strings.TrimSpace(req.Question)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationDetail(err))
		return
	}

	resp, err := s.svc.DeepDive(r.Context(), req)
	if err != nil {
		s.log.Error("deep dive failed", zap.String("selected_text", req.SelectedText), zap.Error(err))
		writeError(w, http.StatusInternalServerError, detailOf(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// validationDetail names the first missing field the way clients send it.
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "SelectedText":
			return "Selected text is required"
		case "Question":
			return "Question is required"
		}
	}
	return "invalid request"
}

func detailOf(err error) string {
	if d := api.Detail(err); d != "" {
		return d
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Success: false, Detail: detail})
}
