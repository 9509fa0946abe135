package server

import (
	"encoding/json"
	"net/http"

	"DanceDeck/core/auth"

	"go.uber.org/zap"
)

// TokenRequest 申请访问令牌
type TokenRequest struct {
	Passphrase string `json:"passphrase"`
	Device     string `json:"device"`
}

// TokenHandler exchanges the shared passphrase for a JWT.
func (h *APIHandler) TokenHandler(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		writeError(w, http.StatusNotFound, "Authentication is not configured")
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Passphrase == "" {
		writeError(w, http.StatusBadRequest, "Passphrase is required")
		return
	}
	if !auth.CheckPasswordHash(req.Passphrase, h.cfg.AuthPassphraseHash) {
		h.log.Warn("[Token] 口令校验失败", zap.String("device", req.Device))
		writeError(w, http.StatusUnauthorized, "Invalid passphrase")
		return
	}

	token, err := h.issuer.GenerateToken(req.Device)
	if err != nil {
		h.log.Error("[Token] 生成Token失败", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
