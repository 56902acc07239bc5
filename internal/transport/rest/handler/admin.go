package handler

import (
	"compassbot/internal/i18n"
	"compassbot/internal/model"
	"compassbot/internal/repository"
	"compassbot/internal/service"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ResultHandler serves archived quiz results to admins
type ResultHandler struct {
	results repository.ResultRepo
}

// NewResultHandler creates a new result handler
func NewResultHandler(results repository.ResultRepo) *ResultHandler {
	return &ResultHandler{results: results}
}

// List handles GET /v1/results
func (h *ResultHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		writeError(w, http.StatusServiceUnavailable, "result archive not configured")
		return
	}

	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 || parsed > 500 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	results, err := h.results.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// GetByID handles GET /v1/results/{id}
func (h *ResultHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		writeError(w, http.StatusServiceUnavailable, "result archive not configured")
		return
	}

	result, err := h.results.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "result not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CommandHandler registers the Discord slash commands. The endpoint is
// gated by a shared secret so it can be hit once after deployment
// without exposing the bot token.
type CommandHandler struct {
	client *service.DiscordClient
	secret string
}

// NewCommandHandler creates a new command registration handler
func NewCommandHandler(client *service.DiscordClient, secret string) *CommandHandler {
	return &CommandHandler{client: client, secret: secret}
}

// Register handles POST /register-discord-commands
func (h *CommandHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		writeError(w, http.StatusServiceUnavailable, "command registration not configured")
		return
	}
	provided := r.Header.Get("X-Register-Secret")
	if provided == "" {
		provided = r.URL.Query().Get("secret")
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid secret")
		return
	}

	commands := []map[string]interface{}{
		{
			"name":               "quiz",
			"description":        i18n.T(model.LangEnglish, "quizCmdDesc"),
			"name_localizations": map[string]string{"fa": "آزمون"},
			"description_localizations": map[string]string{
				"fa": i18n.T(model.LangPersian, "quizCmdDesc"),
			},
			"options": []map[string]interface{}{
				{
					"type":        3, // string
					"name":        "language",
					"description": i18n.T(model.LangEnglish, "langOptionDesc"),
					"description_localizations": map[string]string{
						"fa": i18n.T(model.LangPersian, "langOptionDesc"),
					},
					"required": false,
					"choices": []map[string]interface{}{
						{"name": "English", "value": "en"},
						{"name": "فارسی", "value": "fa"},
					},
				},
			},
		},
	}

	if err := h.client.RegisterCommands(r.Context(), commands); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
