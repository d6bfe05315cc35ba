package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"stackfast/internal/auth"
	"stackfast/internal/blueprint"
	"stackfast/internal/models"
	"stackfast/internal/recommend"
)

const maxBodyBytes = 1 << 20

// ProgressEvent is one Server-Sent Event of the streaming endpoint.
type ProgressEvent struct {
	Type    string          `json:"type"` // "progress", "result", "error"
	Step    string          `json:"step,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// CategoryTools groups the catalog for GET /api/tools.
type CategoryTools struct {
	Category models.Category      `json:"category"`
	Tools    []models.ToolProfile `json:"tools"`
}

// authenticate resolves the caller and records it in the request context,
// where requestLogger picks it up.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (auth.User, bool) {
	user, err := s.deps.Auth.Authenticate(r)
	if err != nil {
		requestLogger(r).WithError(err).Debug("Rejected unauthenticated request")
		writeError(w, http.StatusUnauthorized, "authentication required")
		return auth.User{}, false
	}
	*r = *r.WithContext(auth.WithUser(r.Context(), user))
	return user, true
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (models.BlueprintRequest, error) {
	var req models.BlueprintRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, fmt.Errorf("request body is empty")
		}
		return req, fmt.Errorf("malformed JSON body: %w", err)
	}
	if strings.TrimSpace(req.ProjectIdea) == "" {
		return req, fmt.Errorf("projectIdea is required")
	}
	return req, nil
}

func (s *Server) createBlueprintHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	log := requestLogger(r)

	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.deps.Recommender.Run(r.Context(), req, nil)
	if err != nil {
		s.writePipelineError(w, log, err)
		return
	}

	resp, err := s.persist(r, user, req, outcome)
	if err != nil {
		log.WithError(err).Error("Failed to persist blueprint")
		writeError(w, http.StatusInternalServerError, "failed to save blueprint")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) streamBlueprintHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	log := requestLogger(r)

	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Set headers for Server-Sent Events
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	outcome, err := s.deps.Recommender.Run(r.Context(), req, func(tr recommend.Transition) {
		if tr.To == recommend.StateFailed {
			return
		}
		sendSSEEvent(w, ProgressEvent{Type: "progress", Step: string(tr.To), Message: tr.Message})
	})
	if err != nil {
		log.WithError(err).Error("Recommendation failed")
		sendSSEError(w, "recommendation failed")
		return
	}

	resp, err := s.persist(r, user, req, outcome)
	if err != nil {
		log.WithError(err).Error("Failed to persist blueprint")
		sendSSEError(w, "failed to save blueprint")
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		sendSSEError(w, "failed to encode result")
		return
	}
	sendSSEEvent(w, ProgressEvent{Type: "result", Step: string(recommend.StateDone), Data: data})
}

// persist saves the outcome when a blueprint store is configured.
func (s *Server) persist(r *http.Request, user auth.User, req models.BlueprintRequest, outcome recommend.Outcome) (models.BlueprintResponse, error) {
	resp := models.BlueprintResponse{BlueprintResult: outcome.Result}
	if s.deps.Blueprints == nil {
		return resp, nil
	}

	bp := &models.Blueprint{
		UserID:           user.ID,
		ProjectIdea:      strings.TrimSpace(req.ProjectIdea),
		SkillProfile:     req.SkillProfile.Normalize(),
		PreferredToolIDs: req.PreferredToolIDs,
		Analysis:         outcome.Analysis,
		Result:           outcome.Result,
	}
	if err := s.deps.Blueprints.Save(r.Context(), bp); err != nil {
		return resp, err
	}
	resp.ID = bp.ID
	return resp, nil
}

func (s *Server) writePipelineError(w http.ResponseWriter, log *logrus.Entry, err error) {
	if errors.Is(err, recommend.ErrInvalidRequest) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.WithError(err).Error("Recommendation failed")
	writeError(w, http.StatusInternalServerError, "recommendation failed")
}

func (s *Server) listBlueprintsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	list, err := s.deps.Blueprints.List(r.Context(), user.ID)
	if err != nil {
		requestLogger(r).WithError(err).Error("Failed to list blueprints")
		writeError(w, http.StatusInternalServerError, "failed to list blueprints")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getBlueprintHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	bp, err := s.deps.Blueprints.Get(r.Context(), user.ID, r.PathValue("id"))
	switch {
	case errors.Is(err, blueprint.ErrNotFound):
		writeError(w, http.StatusNotFound, "blueprint not found")
	case err != nil:
		requestLogger(r).WithError(err).Error("Failed to load blueprint")
		writeError(w, http.StatusInternalServerError, "failed to load blueprint")
	default:
		writeJSON(w, http.StatusOK, bp)
	}
}

func (s *Server) listToolsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	if name := r.URL.Query().Get("category"); name != "" {
		category, err := models.ParseCategory(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		tools, err := s.deps.Catalog.ListByCategory(r.Context(), category)
		if err != nil {
			requestLogger(r).WithError(err).Error("Failed to load catalog")
			writeError(w, http.StatusInternalServerError, "failed to load catalog")
			return
		}
		if tools == nil {
			tools = []models.ToolProfile{}
		}
		writeJSON(w, http.StatusOK, []CategoryTools{{Category: category, Tools: tools}})
		return
	}

	tools, err := s.deps.Catalog.LoadCatalog(r.Context())
	if err != nil {
		requestLogger(r).WithError(err).Error("Failed to load catalog")
		writeError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	groups := make([]CategoryTools, 0, len(models.Categories))
	for _, c := range models.Categories {
		group := CategoryTools{Category: c, Tools: []models.ToolProfile{}}
		for _, t := range tools {
			if t.Category == c {
				group.Tools = append(group.Tools, t)
			}
		}
		groups = append(groups, group)
	}
	writeJSON(w, http.StatusOK, groups)
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

// SSE helper functions
func sendSSEEvent(w http.ResponseWriter, event ProgressEvent) {
	data, _ := json.Marshal(event)
	fmt.Fprintf(w, "data: %s\n\n", data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func sendSSEError(w http.ResponseWriter, message string) {
	sendSSEEvent(w, ProgressEvent{
		Type:    "error",
		Message: message,
	})
}
