package rest

import (
	"net/http"
	"strings"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, account, err := h.users.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeOK(w, http.StatusOK, "", envelope{"token": token, "user": account})
}

func (h *Handler) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	library, err := h.users.GetLibrary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, "", envelope{"library": library})
}
