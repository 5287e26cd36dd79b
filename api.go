package main

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/valentine/db"
	"github.com/Seednode/valentine/sink"
)

const maxResponseBody = 4 << 20

type apiMessage struct {
	Message string `json:"message"`
}

type savedMessage struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logf(cfg, "ERROR: failed to encode JSON response: %v", err)
	}
}

func writeJSONError(cfg *Config, w http.ResponseWriter, status int, message string) {
	writeJSON(cfg, w, status, apiMessage{Message: message})
}

// serveSubmitResponse is the remote end of the http sink.
func serveSubmitResponse(cfg *Config, responses *db.Responses) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		var sub sink.Submission

		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxResponseBody))
		if err := dec.Decode(&sub); err != nil {
			writeJSONError(cfg, w, http.StatusBadRequest, "Invalid submission.")

			return
		}

		if err := sub.Validate(); err != nil {
			writeJSONError(cfg, w, http.StatusBadRequest, sink.UserMessage(err))

			return
		}

		if sub.SubmittedAt.IsZero() {
			sub.SubmittedAt = time.Now()
		}

		saved, err := responses.Insert(r.Context(), sink.ToResponse(sub))
		if err != nil {
			errorf("%v", err)
			writeJSONError(cfg, w, http.StatusInternalServerError, "Submission failed. Please try again.")

			return
		}

		logf(cfg, "API: Saved response %s from %s (%q) in %s",
			saved.ID,
			realIP(r),
			sub.Gift(),
			time.Since(startTime).Round(time.Microsecond),
		)

		writeJSON(cfg, w, http.StatusCreated, savedMessage{Message: "Response saved.", ID: saved.ID})
	}
}

func serveListResponses(cfg *Config, responses *db.Responses) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		list, err := responses.List(r.Context())
		if err != nil {
			errorf("%v", err)
			writeJSONError(cfg, w, http.StatusInternalServerError, "Unable to load responses.")

			return
		}

		writeJSON(cfg, w, http.StatusOK, list)
	}
}

func serveGetResponse(cfg *Config, responses *db.Responses) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		resp, err := responses.Get(r.Context(), p.ByName("id"))
		switch {
		case errors.Is(err, db.ErrNotFound):
			writeJSONError(cfg, w, http.StatusNotFound, "Response not found.")
		case err != nil:
			errorf("%v", err)
			writeJSONError(cfg, w, http.StatusInternalServerError, "Unable to load response.")
		default:
			writeJSON(cfg, w, http.StatusOK, resp)
		}
	}
}

// requireAdmin rejects requests that do not carry the configured bearer token.
func requireAdmin(cfg *Config, next httprouter.Handle) httprouter.Handle {
	want := []byte(cfg.adminToken)

	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="valentine"`)
			writeJSONError(cfg, w, http.StatusUnauthorized, "Unauthorized.")

			return
		}

		next(w, r, p)
	}
}

// registerResponsesAPI always accepts submissions. Stored responses can
// only be read back when an admin token is configured.
func registerResponsesAPI(cfg *Config, responses *db.Responses, mux *httprouter.Router) {
	path := cfg.prefix + sink.ResponsesPath

	mux.POST(path, serveSubmitResponse(cfg, responses))

	if cfg.adminToken == "" {
		return
	}

	mux.GET(path, requireAdmin(cfg, serveListResponses(cfg, responses)))
	mux.GET(path+"/:id", requireAdmin(cfg, serveGetResponse(cfg, responses)))
}
