package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/boardhive/boardhive/internal/auth"
	"github.com/boardhive/boardhive/internal/classify"
	apperrors "github.com/boardhive/boardhive/internal/errors"
	"github.com/boardhive/boardhive/internal/metrics"
	"github.com/boardhive/boardhive/internal/model"
	"github.com/boardhive/boardhive/internal/session"
	"github.com/boardhive/boardhive/internal/store"
	"github.com/boardhive/boardhive/pkg/util"
)

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	coordinator *session.Coordinator
	authService *auth.Service
	classifier  *classify.Classifier
	metrics     metrics.Collector
	wsHandler   *WebSocketHandler
	router      *mux.Router
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(
	coordinator *session.Coordinator,
	authService *auth.Service,
	classifier *classify.Classifier,
	m metrics.Collector,
	wsHandler *WebSocketHandler,
) *HTTPHandler {
	h := &HTTPHandler{
		coordinator: coordinator,
		authService: authService,
		classifier:  classifier,
		metrics:     m,
		wsHandler:   wsHandler,
		router:      mux.NewRouter(),
	}

	h.setupRoutes()

	return h
}

// ServeHTTP implements the http.Handler interface
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// setupRoutes sets up the HTTP routes
func (h *HTTPHandler) setupRoutes() {
	api := h.router.PathPrefix("/api/v1").Subrouter()

	// Auth routes
	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/login", h.login).Methods("POST")
	authRoutes.HandleFunc("/logout", h.logout).Methods("POST")
	authRoutes.HandleFunc("/me", h.currentUser).Methods("GET")
	authRoutes.HandleFunc("/profile", h.updateProfile).Methods("PUT")

	// Session routes
	sessions := api.PathPrefix("/sessions").Subrouter()
	sessions.HandleFunc("", h.listSessions).Methods("GET")
	sessions.HandleFunc("", h.createSession).Methods("POST")
	sessions.HandleFunc("/current", h.getCurrentSession).Methods("GET")
	sessions.HandleFunc("/leave", h.leaveSession).Methods("POST")
	sessions.HandleFunc("/{id}", h.getSession).Methods("GET")
	sessions.HandleFunc("/{id}", h.deleteSession).Methods("DELETE")
	sessions.HandleFunc("/{id}/join", h.joinSession).Methods("POST")
	sessions.HandleFunc("/{id}/link", h.getShareableLink).Methods("GET")

	// Classification
	api.HandleFunc("/classify", h.classifyImage).Methods("POST")

	// WebSocket gateway
	if h.wsHandler != nil {
		h.router.HandleFunc("/ws/{sessionId}", h.wsHandler.ServeWS)
	}

	// Health check and metrics
	h.router.HandleFunc("/health", h.healthCheck).Methods("GET")
	h.router.Handle("/metrics", h.metrics.Handler()).Methods("GET")
}

// healthCheck handles the health check endpoint
func (h *HTTPHandler) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	}

	respondWithJSON(w, http.StatusOK, response)
}

// login handles user login
func (h *HTTPHandler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username" validate:"required"`
		Password    string `json:"password" validate:"required"`
		AvatarColor string `json:"avatar_color"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithAPIError(w, model.ErrInvalidRequest.WithDetails("invalid request body"))
		return
	}

	if err := util.Validate(req); err != nil {
		respondWithAPIError(w, model.ErrInvalidRequest.WithDetails(err.Error()))
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Username, req.Password, req.AvatarColor)
	if err != nil {
		respondWithAPIError(w, model.ErrInvalidRequest.WithDetails(err.Error()))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

// logout handles user logout
func (h *HTTPHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context()); err != nil {
		respondWithAPIError(w, model.ErrInternalServer.WithDetails(err.Error()))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// currentUser returns the stored user record
func (h *HTTPHandler) currentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.CurrentUser(r.Context())
	if err != nil {
		respondWithAPIError(w, model.ErrUnauthorized)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// updateProfile updates the stored user record
func (h *HTTPHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var update model.User
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondWithAPIError(w, model.ErrInvalidRequest.WithDetails("invalid request body"))
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), update)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthenticated) {
			respondWithAPIError(w, model.ErrUnauthorized)
			return
		}
		respondWithAPIError(w, model.ErrInternalServer.WithDetails(err.Error()))
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// listSessions returns the saved sessions, newest first
func (h *HTTPHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.coordinator.SavedSessions(r.Context())
	if sessions == nil {
		sessions = []*model.Session{}
	}

	respondWithJSON(w, http.StatusOK, sessions)
}

// createSession creates a new session and connects to it
func (h *HTTPHandler) createSession(w http.ResponseWriter, r *http.Request) {
	user := h.requestUser(r)

	sess, err := h.coordinator.CreateSession(r.Context(), user)
	if err != nil {
		respondWithAPIError(w, model.ErrConnectionUnavailable.WithDetails(err.Error()))
		return
	}

	respondWithJSON(w, http.StatusCreated, sess)
}

// getCurrentSession returns the active session record
func (h *HTTPHandler) getCurrentSession(w http.ResponseWriter, r *http.Request) {
	sess := h.coordinator.CurrentSession(r.Context())
	if sess == nil {
		respondWithAPIError(w, model.ErrNotFound.WithDetails("no active session"))
		return
	}

	respondWithJSON(w, http.StatusOK, sess)
}

// getSession returns a saved session by ID
func (h *HTTPHandler) getSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	sess := h.findSavedSession(r, vars["id"])
	if sess == nil {
		respondWithAPIError(w, model.ErrNotFound.WithDetails("session not found"))
		return
	}

	respondWithJSON(w, http.StatusOK, sess)
}

// joinSession joins an existing session
func (h *HTTPHandler) joinSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	user := h.requestUser(r)

	sess, err := h.coordinator.JoinSession(r.Context(), vars["id"], user)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidSessionID):
			respondWithAPIError(w, model.ErrInvalidRequest.WithDetails("invalid session ID"))
		case errors.Is(err, apperrors.ErrUserRequired):
			respondWithAPIError(w, model.ErrUnauthorized.WithDetails("a user is required to join"))
		case errors.Is(err, apperrors.ErrJoinTimeout), errors.Is(err, apperrors.ErrConnectionFailed):
			respondWithAPIError(w, model.ErrConnectionUnavailable.WithDetails(err.Error()))
		default:
			respondWithAPIError(w, model.ErrInternalServer.WithDetails(err.Error()))
		}
		return
	}

	respondWithJSON(w, http.StatusOK, sess)
}

// leaveSession leaves the active session
func (h *HTTPHandler) leaveSession(w http.ResponseWriter, r *http.Request) {
	h.coordinator.LeaveSession()
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// deleteSession deletes a saved session
func (h *HTTPHandler) deleteSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.coordinator.DeleteSession(r.Context(), vars["id"]); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			respondWithAPIError(w, model.ErrNotFound.WithDetails("session not found"))
			return
		}
		respondWithAPIError(w, model.ErrInternalServer.WithDetails(err.Error()))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// getShareableLink returns the shareable link for a session
func (h *HTTPHandler) getShareableLink(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	respondWithJSON(w, http.StatusOK, map[string]string{
		"link": h.coordinator.ShareableLink(vars["id"]),
	})
}

// classifyImage runs the mock classifier on a canvas snapshot
func (h *HTTPHandler) classifyImage(w http.ResponseWriter, r *http.Request) {
	var req model.ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithAPIError(w, model.ErrInvalidRequest.WithDetails("invalid request body"))
		return
	}

	if err := util.Validate(req); err != nil {
		respondWithAPIError(w, model.ErrInvalidRequest.WithDetails(err.Error()))
		return
	}

	result, err := h.classifier.Classify(r.Context(), req.Image)
	if err != nil {
		respondWithAPIError(w, model.ErrInternalServer.WithDetails(err.Error()))
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// requestUser resolves the user for a request: token claims when present,
// otherwise a synthesized guest identity.
func (h *HTTPHandler) requestUser(r *http.Request) model.User {
	if user, err := h.authService.UserFromRequest(r); err == nil {
		return *user
	}

	if user, err := h.authService.CurrentUser(r.Context()); err == nil {
		return *user
	}

	return model.User{
		Username:    util.GuestUsername(),
		AvatarColor: util.RandomAvatarColor(),
	}
}

// findSavedSession looks up a session by ID among the saved sessions
func (h *HTTPHandler) findSavedSession(r *http.Request, id string) *model.Session {
	for _, sess := range h.coordinator.SavedSessions(r.Context()) {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithAPIError sends a structured error response
func respondWithAPIError(w http.ResponseWriter, apiErr model.APIError) {
	respondWithJSON(w, apiErr.Status, apiErr)
}
