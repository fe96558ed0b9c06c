package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/omniguard/internal/common"
)

type credentialsRequest struct {
	Name     *string `json:"nombre"`
	Password *string `json:"password"`
}

type resultResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type sessionUser struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

type sessionResponse struct {
	resultResponse
	User *sessionUser `json:"usuario,omitempty"`
}

type userData struct {
	ID       int64  `json:"id"`
	Name     string `json:"nombre"`
	Password string `json:"password"`
}

type usersResponse struct {
	Success bool       `json:"success"`
	Users   []userData `json:"usuarios"`
}

type passwordResponse struct {
	Success  bool   `json:"success"`
	Password string `json:"password"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeResult(w http.ResponseWriter, status int, success bool, msg string) {
	writeJSON(w, status, resultResponse{Success: success, Message: msg})
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// statusFor maps a taxonomy error to an HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrInvalidCredential), errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
