package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/webdev-it/baza-ai/internal/api"
)

// Handler serves the admin login endpoint. There is a single operator
// account configured through the environment.
type Handler struct {
	jwt          *JWTManager
	username     string
	passwordHash string
}

func NewHandler(jwt *JWTManager, username, passwordHash string) *Handler {
	return &Handler{
		jwt:          jwt,
		username:     username,
		passwordHash: passwordHash,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if req.Username != h.username || ComparePassword(h.passwordHash, req.Password) != nil {
		slog.Warn("admin login rejected", "username", req.Username)
		api.HandleError(w, api.ErrInvalidCredentials)
		return
	}

	token, err := h.jwt.Generate(req.Username)
	if err != nil {
		slog.Error("issuing admin token", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, token)
}
