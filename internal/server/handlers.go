package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperr "github.com/kurobon/gitlanes/internal/errors"
	"github.com/kurobon/gitlanes/internal/state"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	graphState, err := s.Manager.GetGraphState(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graphState)
}

func (s *Server) handleGetRefs(w http.ResponseWriter, r *http.Request) {
	refs, err := s.Manager.GetRefs()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

func (s *Server) handleGetDiff(w http.ResponseWriter, r *http.Request) {
	diff, err := s.Manager.GetDiff(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

// parseQuery reads ?ref=&limit=&search=&all= from the request.
func parseQuery(r *http.Request) (state.Query, error) {
	params := r.URL.Query()
	q := state.Query{
		Ref:    params.Get("ref"),
		Search: params.Get("search"),
	}

	if v := params.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid limit %q", v)
		}
		q.Limit = n
	}
	if v := params.Get("all"); v != "" {
		all, err := strconv.ParseBool(v)
		if err != nil {
			return q, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid all %q", v)
		}
		q.All = all
	}
	return q, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: apperr.UserMessage(err), Code: string(code)})
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case apperr.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
