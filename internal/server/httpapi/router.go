package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/omniguard/internal/logging"
	"github.com/dmitrijs2005/omniguard/internal/server/services"
	"github.com/dmitrijs2005/omniguard/internal/server/session"
	"github.com/gorilla/mux"
)

// Authenticator is the service surface the handlers call.
type Authenticator interface {
	Register(ctx context.Context, name, password string) services.Result
	Login(ctx context.Context, sess *session.Session, name, password string) services.Result
	Logout(ctx context.Context, sess *session.Session) services.Result
	VerifySession(ctx context.Context, sess *session.Session) services.SessionResult
	ListUserData(ctx context.Context) ([]services.UserData, error)
	DecodeUserCredential(ctx context.Context, id int64) (string, error)
	UpdateUser(ctx context.Context, name, newName, password string) error
	RefreshSession(ctx context.Context, sess *session.Session) error
	DeleteUser(ctx context.Context, name string) error
}

// RouterConfig carries the router's collaborators.
type RouterConfig struct {
	Logger   logging.Logger
	Auth     Authenticator
	Sessions session.Store
	Cookie   CookieConfig
	// LoginLimiter throttles /api/login per client address; nil disables it.
	LoginLimiter *LoginLimiter
}

// NewRouter builds the /api routes and /health on a gorilla/mux router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	logger := cfg.Logger.With("module", "http")
	h := &handler{auth: cfg.Auth, sessions: cfg.Sessions, cookie: cfg.Cookie, logger: logger}

	r.Use(Recovery(logger))
	r.Use(Logging(logger))

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(Sessions(cfg.Sessions, cfg.Cookie, logger))

	login := http.Handler(http.HandlerFunc(h.login))
	if cfg.LoginLimiter != nil {
		login = cfg.LoginLimiter.Middleware(login)
	}

	api.HandleFunc("/registro", h.register).Methods(http.MethodPost)
	api.Handle("/login", login).Methods(http.MethodPost)
	api.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
	api.HandleFunc("/session", h.verifySession).Methods(http.MethodPost)

	users := api.PathPrefix("/users").Subrouter()
	users.Use(RequireLogin(cfg.Auth, cfg.Sessions, cfg.Cookie, logger))
	users.HandleFunc("", h.listUsers).Methods(http.MethodGet)
	users.HandleFunc("/decrypt-password/{id:[0-9]+}", h.decryptPassword).Methods(http.MethodPost)
	users.HandleFunc("/{nombre}", h.updateUser).Methods(http.MethodPut)
	users.HandleFunc("/{nombre}", h.deleteUser).Methods(http.MethodDelete)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
