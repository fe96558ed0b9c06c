package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/omniguard/internal/common"
	"github.com/dmitrijs2005/omniguard/internal/logging"
	"github.com/dmitrijs2005/omniguard/internal/server/services"
	"github.com/dmitrijs2005/omniguard/internal/server/session"
	"github.com/gorilla/mux"
)

type handler struct {
	auth     Authenticator
	sessions session.Store
	cookie   CookieConfig
	logger   logging.Logger
}

// decodeCredentials reads {"nombre", "password"}; both must be present.
func decodeCredentials(r *http.Request) (name, password string, ok bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", "", false
	}
	if req.Name == nil || req.Password == nil {
		return "", "", false
	}
	return *req.Name, *req.Password, true
}

func (h *handler) save(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	if err := persistSession(r.Context(), w, h.sessions, h.cookie, sess); err != nil {
		h.logger.Error(r.Context(), "session save failed", "error", err)
		writeResult(w, http.StatusInternalServerError, false, common.ErrInternal.Error())
		return false
	}
	return true
}

func (h *handler) writeServiceResult(w http.ResponseWriter, okStatus int, res services.Result) {
	if res.Success {
		writeResult(w, okStatus, true, res.Message)
		return
	}
	writeResult(w, statusFor(res.Code), false, res.Message)
}

// register handles POST /api/registro
func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	name, password, ok := decodeCredentials(r)
	if !ok {
		writeResult(w, http.StatusBadRequest, false, services.MsgIncompleteData)
		return
	}

	h.writeServiceResult(w, http.StatusCreated, h.auth.Register(r.Context(), name, password))
}

// login handles POST /api/login
func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	name, password, ok := decodeCredentials(r)
	if !ok {
		writeResult(w, http.StatusBadRequest, false, services.MsgIncompleteData)
		return
	}

	sess := SessionFrom(r.Context())
	res := h.auth.Login(r.Context(), sess, name, password)
	if res.Success && !h.save(w, r, sess) {
		return
	}
	h.writeServiceResult(w, http.StatusOK, res)
}

// logout handles POST /api/logout
func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	res := h.auth.Logout(r.Context(), sess)
	if !h.save(w, r, sess) {
		return
	}
	h.writeServiceResult(w, http.StatusOK, res)
}

// verifySession handles POST /api/session
func (h *handler) verifySession(w http.ResponseWriter, r *http.Request) {
	res := h.auth.VerifySession(r.Context(), SessionFrom(r.Context()))
	if !res.Success {
		writeResult(w, statusFor(res.Code), false, res.Message)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		resultResponse: resultResponse{Success: true, Message: res.Message},
		User:           &sessionUser{ID: res.User.ID, Name: res.User.Name},
	})
}

// listUsers handles GET /api/users
func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	noStore(w)

	data, err := h.auth.ListUserData(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "list users failed", "error", err)
		writeResult(w, http.StatusInternalServerError, false, err.Error())
		return
	}

	out := make([]userData, 0, len(data))
	for _, d := range data {
		out = append(out, userData{ID: d.ID, Name: d.Name, Password: d.Credential})
	}
	writeJSON(w, http.StatusOK, usersResponse{Success: true, Users: out})
}

// decryptPassword handles POST /api/users/decrypt-password/{id}
func (h *handler) decryptPassword(w http.ResponseWriter, r *http.Request) {
	noStore(w)

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeResult(w, http.StatusBadRequest, false, "invalid id")
		return
	}

	plain, err := h.auth.DecodeUserCredential(r.Context(), id)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		switch status {
		case http.StatusNotFound:
			msg = "user not found"
		case http.StatusInternalServerError:
			h.logger.Error(r.Context(), "decrypt password failed", "id", id, "error", err)
		}
		writeResult(w, status, false, msg)
		return
	}

	h.logger.Info(r.Context(), "credential decoded", "id", id, "by", SessionFrom(r.Context()).UserName())
	writeJSON(w, http.StatusOK, passwordResponse{Success: true, Password: plain})
}

type updateUserRequest struct {
	Name     string `json:"nombre"`
	Password string `json:"password"`
}

// updateUser handles PUT /api/users/{nombre}
func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["nombre"]

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || (req.Name == "" && req.Password == "") {
		writeResult(w, http.StatusBadRequest, false, services.MsgIncompleteData)
		return
	}

	if err := h.auth.UpdateUser(r.Context(), name, req.Name, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess := SessionFrom(r.Context())
	if req.Name != "" && req.Name != name && sess.UserName() == name {
		id, _ := sess.UserID()
		sess.SetUser(id, req.Name)
		if !h.save(w, r, sess) {
			return
		}
	}

	writeResult(w, http.StatusOK, true, "user updated")
}

// deleteUser handles DELETE /api/users/{nombre}
func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["nombre"]

	if err := h.auth.DeleteUser(r.Context(), name); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess := SessionFrom(r.Context())
	if sess.UserName() == name {
		sess.Clear()
		if !h.save(w, r, sess) {
			return
		}
	}

	writeResult(w, http.StatusOK, true, "user deleted")
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case errors.Is(err, common.ErrNotFound):
		msg = "user not found"
	case errors.Is(err, common.ErrAlreadyExists):
		msg = services.MsgUserExists
	case status == http.StatusInternalServerError:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeResult(w, status, false, msg)
}
