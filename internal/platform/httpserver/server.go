package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	estimationservice "pointdeck/contexts/estimation/estimation-service"
	estimationerrors "pointdeck/contexts/estimation/estimation-service/domain/errors"
	estimationhttp "pointdeck/contexts/estimation/estimation-service/transport/http"
	participantservice "pointdeck/contexts/participants/participant-service"
	participanterrors "pointdeck/contexts/participants/participant-service/domain/errors"
	participanthttp "pointdeck/contexts/participants/participant-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "pointdeck/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	estimation   estimationservice.Module
	participants participantservice.Module
}

func New(
	estimation estimationservice.Module,
	participants participantservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		estimation:   estimation,
		participants: participants,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/estimation/v1/stories", s.handleCreateStory)
	s.mux.HandleFunc("POST /api/estimation/v1/stories/{story_id}/start", s.handleStartVoting)
	s.mux.HandleFunc("POST /api/estimation/v1/stories/{story_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("POST /api/estimation/v1/stories/{story_id}/reveal", s.handleReveal)
	s.mux.HandleFunc("POST /api/estimation/v1/stories/{story_id}/resolve", s.handleResolve)
	s.mux.HandleFunc("POST /api/estimation/v1/stories/{story_id}/unlock", s.handleRequestUnlock)
	s.mux.HandleFunc("GET /api/estimation/v1/stories/{story_id}/votes", s.handleStoryVotes)
	s.mux.HandleFunc("POST /api/estimation/v1/stories/{story_id}/comments", s.handleAddComment)
	s.mux.HandleFunc("GET /api/estimation/v1/stories/{story_id}/comments", s.handleListComments)
	s.mux.HandleFunc("GET /api/estimation/v1/board", s.handleBoard)
	s.mux.HandleFunc("GET /api/estimation/v1/queue", s.handlePendingQueue)
	s.mux.HandleFunc("GET /api/estimation/v1/history", s.handleHistory)
	s.mux.HandleFunc("GET /api/estimation/v1/events", s.handleRecentEvents)

	s.mux.HandleFunc("POST /api/participants/v1/join", s.handleJoin)
	s.mux.HandleFunc("GET /api/participants/v1/session", s.handleSession)
	s.mux.HandleFunc("POST /api/participants/v1/spectator", s.handleSpectator)
	s.mux.HandleFunc("POST /api/participants/v1/leave", s.handleLeave)
	s.mux.HandleFunc("GET /api/participants/v1/roster", s.handleRoster)
}

func (s *Server) handleCreateStory(w http.ResponseWriter, r *http.Request) {
	ownerID := resolveParticipantID(r)
	if ownerID == "" {
		writeEstimationError(w, http.StatusUnauthorized, "missing_participant", "X-Participant-Id header is required")
		return
	}

	var req estimationhttp.CreateStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEstimationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.estimation.Handler.CreateStoryHandler(r.Context(), ownerID, req)
	if err != nil {
		writeEstimationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleStartVoting(w http.ResponseWriter, r *http.Request) {
	requesterID := resolveParticipantID(r)
	if requesterID == "" {
		writeEstimationError(w, http.StatusUnauthorized, "missing_participant", "X-Participant-Id header is required")
		return
	}

	storyID := r.PathValue("story_id")
	resp, err := s.estimation.Handler.StartVotingHandler(r.Context(), storyID, requesterID)
	if err != nil {
		writeEstimationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	participantID := resolveParticipantID(r)
	if participantID == "" {
		writeEstimationError(w, http.StatusUnauthorized, "missing_participant", "X-Participant-Id header is required")
		return
	}

	var req estimationhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEstimationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	storyID := r.PathValue("story_id")
	resp, err := s.estimation.Handler.CastVoteHandler(r.Context(), storyID, participantID, req)
	if err != nil {
		writeEstimationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	requesterID := resolveParticipantID(r)
	if requesterID == "" {
		writeEstimationError(w, http.StatusUnauthorized, "missing_participant", "X-Participant-Id header is required")
		return
	}

	storyID := r.PathValue("story_id")
	resp, err := s.estimation.Handler.RevealHandler(r.Context(), storyID, requesterID)
	if err != nil {
		writeEstimationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req estimationhttp.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEstimationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	storyID := r.PathValue("story_id")
	resp, err := s.estimation.Handler.ResolveHandler(r.Context(), storyID, req)
	if err != nil {
		writeEstimationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRequestUnlock(w http.ResponseWriter, r *http.Request) {
	participantID := resolveParticipantID(r)
	if participantID == "" {
		writeEstimationError(w, http.StatusUnauthorized, "missing_participant", "X-Participant-Id header is required")
		return
	}

	storyID := r.PathValue("story_id")
	resp, err := s.estimation.Handler.RequestUnlockHandler(r.Context(), storyID, participantID)
	if err != nil {
		writeEstimationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	participantID := resolveParticipantID(r)
	if participantID == "" {
		writeEstimationError(w, http.StatusUnauthorized, "missing_participant", "X-Participant-Id header is required")
		return
	}

	var req estimationhttp.CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEstimationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	storyID := r.PathValue("story_id")
	resp, err := s.estimation.Handler.AddCommentHandler(r.Context(), storyID, participantID, req)
	if err != nil {
		writeEstimationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	storyID := r.PathValue("story_id")
	resp, err := s.estimation.Handler.ListCommentsHandler(r.Context(), storyID)
	if err != nil {
		writeEstimationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	resp, err := s.estimation.Handler.BoardHandler(r.Context())
	if err != nil {
		writeEstimationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePendingQueue(w http.ResponseWriter, r *http.Request) {
	resp, err := s.estimation.Handler.PendingQueueHandler(r.Context())
	if err != nil {
		writeEstimationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	resp, err := s.estimation.Handler.HistoryHandler(r.Context(), limit)
	if err != nil {
		writeEstimationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStoryVotes(w http.ResponseWriter, r *http.Request) {
	storyID := r.PathValue("story_id")
	resp, err := s.estimation.Handler.StoryVotesHandler(r.Context(), storyID)
	if err != nil {
		writeEstimationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	resp, err := s.estimation.Handler.RecentEventsHandler(r.Context(), limit)
	if err != nil {
		writeEstimationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req participanthttp.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeParticipantError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.participants.Handler.JoinHandler(r.Context(), req)
	if err != nil {
		writeParticipantDomainError(w, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	participantID := resolveParticipantID(r)
	if participantID == "" {
		writeParticipantError(w, http.StatusUnauthorized, "missing_participant", "X-Participant-Id header is required")
		return
	}

	resp, err := s.participants.Handler.SessionHandler(r.Context(), participantID)
	if err != nil {
		writeParticipantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSpectator(w http.ResponseWriter, r *http.Request) {
	participantID := resolveParticipantID(r)
	if participantID == "" {
		writeParticipantError(w, http.StatusUnauthorized, "missing_participant", "X-Participant-Id header is required")
		return
	}

	var req participanthttp.SpectatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeParticipantError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.participants.Handler.SpectatorHandler(r.Context(), participantID, req)
	if err != nil {
		writeParticipantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	participantID := resolveParticipantID(r)
	if participantID == "" {
		writeParticipantError(w, http.StatusUnauthorized, "missing_participant", "X-Participant-Id header is required")
		return
	}

	resp, err := s.participants.Handler.LeaveHandler(r.Context(), participantID)
	if err != nil {
		writeParticipantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	resp, err := s.participants.Handler.RosterHandler(r.Context())
	if err != nil {
		writeParticipantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeEstimationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, estimationerrors.ErrInvalidStoryInput):
		writeEstimationError(w, http.StatusBadRequest, "invalid_story_input", err.Error())
	case errors.Is(err, estimationerrors.ErrInvalidResolution):
		writeEstimationError(w, http.StatusBadRequest, "invalid_resolution", err.Error())
	case errors.Is(err, estimationerrors.ErrInvalidCommentInput):
		writeEstimationError(w, http.StatusBadRequest, "invalid_comment_input", err.Error())
	case errors.Is(err, estimationerrors.ErrValueNotOnScale):
		writeEstimationError(w, http.StatusUnprocessableEntity, "value_not_on_scale", err.Error())
	case errors.Is(err, estimationerrors.ErrStoryNotFound):
		writeEstimationError(w, http.StatusNotFound, "story_not_found", err.Error())
	case errors.Is(err, estimationerrors.ErrParticipantNotFound):
		writeEstimationError(w, http.StatusNotFound, "participant_not_found", err.Error())
	case errors.Is(err, estimationerrors.ErrNotStoryOwner),
		errors.Is(err, estimationerrors.ErrRevealNotAllowed),
		errors.Is(err, estimationerrors.ErrSpectatorCannotVote):
		writeEstimationError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, estimationerrors.ErrStoryNotPending),
		errors.Is(err, estimationerrors.ErrActiveStoryExists),
		errors.Is(err, estimationerrors.ErrVotingNotOpen),
		errors.Is(err, estimationerrors.ErrStoryNotRevealed),
		errors.Is(err, estimationerrors.ErrNoVotesCast),
		errors.Is(err, estimationerrors.ErrStoryNotCompleted),
		errors.Is(err, estimationerrors.ErrConflict):
		writeEstimationError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeEstimationError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeParticipantDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, participanterrors.ErrInvalidParticipantInput):
		writeParticipantError(w, http.StatusBadRequest, "invalid_participant_input", err.Error())
	case errors.Is(err, participanterrors.ErrParticipantNotFound):
		writeParticipantError(w, http.StatusNotFound, "participant_not_found", err.Error())
	case errors.Is(err, participanterrors.ErrNameTaken),
		errors.Is(err, participanterrors.ErrConflict):
		writeParticipantError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeParticipantError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEstimationError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, estimationhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeParticipantError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, participanthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limitRaw := r.URL.Query().Get("limit")
	if limitRaw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(limitRaw)
	if err != nil || limit < 0 {
		writeEstimationError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}

func resolveParticipantID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Participant-Id"))
}
