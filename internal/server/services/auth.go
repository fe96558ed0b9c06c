// Package services contains server-side business logic. This file implements
// AuthService: registration, login/logout against an explicit session, and
// the administrative user operations.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/omniguard/internal/common"
	"github.com/dmitrijs2005/omniguard/internal/logging"
	"github.com/dmitrijs2005/omniguard/internal/server/credentials"
	"github.com/dmitrijs2005/omniguard/internal/server/datastore"
	"github.com/dmitrijs2005/omniguard/internal/server/models"
	"github.com/dmitrijs2005/omniguard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/omniguard/internal/server/repositories/users"
	"github.com/dmitrijs2005/omniguard/internal/server/session"
)

const (
	MsgIncompleteData     = "incomplete data"
	MsgUserExists         = "user already exists"
	MsgRegistered         = "user registered"
	MsgInvalidCredentials = "invalid credentials"
	MsgLoggedIn           = "login successful"
	MsgLoggedOut          = "logged out"
	MsgNoSession          = "no active session"
	MsgSessionActive      = "session active"
)

// Result is the outcome of an authentication flow. Code is nil on success and
// one of the common sentinels otherwise.
type Result struct {
	Success bool
	Message string
	Code    error
}

func ok(msg string) Result { return Result{Success: true, Message: msg} }

func fail(code error, msg string) Result { return Result{Message: msg, Code: code} }

// SessionUser is the user recorded in an authenticated session.
type SessionUser struct {
	ID   int64
	Name string
}

// SessionResult is a Result plus the session's user on success.
type SessionResult struct {
	Result
	User *SessionUser
}

// UserData is the administrative view of a user, credential included.
type UserData struct {
	ID         int64
	Name       string
	Credential string
}

// AuthService implements registration, login and user maintenance on top of
// the users repository and one credential scheme.
type AuthService struct {
	store       users.Store
	repomanager repomanager.RepositoryManager
	scheme      credentials.Scheme
	logger      logging.Logger

	// decoy is a credential Login verifies against when the name is unknown,
	// so both failures cost the same.
	decoyOnce sync.Once
	decoy     string
}

// NewAuthService builds the service. store is handed to the repository
// manager for every operation.
func NewAuthService(store users.Store, m repomanager.RepositoryManager, scheme credentials.Scheme, logger logging.Logger) *AuthService {
	return &AuthService{
		store:       store,
		repomanager: m,
		scheme:      scheme,
		logger:      logger.With("module", "auth"),
	}
}

func (s *AuthService) users() users.Repository {
	return s.repomanager.Users(s.store)
}

// Register creates a user unless the name is taken. Nothing is written when
// validation or the lookup fails.
func (s *AuthService) Register(ctx context.Context, name, password string) Result {
	if name == "" || password == "" {
		return fail(common.ErrValidation, MsgIncompleteData)
	}

	repo := s.users()

	_, err := repo.FindByName(ctx, name)
	switch {
	case err == nil:
		return fail(common.ErrAlreadyExists, MsgUserExists)
	case !errors.Is(err, common.ErrNotFound):
		s.logger.Error(ctx, "register lookup failed", "nombre", name, "error", err)
		return fail(common.ErrStorage, err.Error())
	}

	encoded, err := s.scheme.Encode(password)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return fail(common.ErrValidation, err.Error())
		}
		s.logger.Error(ctx, "credential encoding failed", "error", err)
		return fail(common.ErrInternal, err.Error())
	}

	if err := repo.CreateUser(ctx, &models.User{Name: name, Password: encoded}); err != nil {
		// a concurrent registration can still win the unique index
		if errors.Is(err, common.ErrAlreadyExists) {
			return fail(common.ErrAlreadyExists, MsgUserExists)
		}
		s.logger.Error(ctx, "register failed", "nombre", name, "error", err)
		return fail(common.ErrStorage, err.Error())
	}

	s.logger.Info(ctx, "user registered", "nombre", name)
	return ok(MsgRegistered)
}

// Login checks the credential and, on success, records the user in sess.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, sess *session.Session, name, password string) Result {
	if name == "" || password == "" {
		return fail(common.ErrValidation, MsgIncompleteData)
	}

	user, err := s.users().FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.verifyDecoy(password)
			s.logger.Info(ctx, "login rejected", "nombre", name)
			return fail(common.ErrInvalidCredential, MsgInvalidCredentials)
		}
		s.logger.Error(ctx, "login lookup failed", "nombre", name, "error", err)
		return fail(common.ErrStorage, err.Error())
	}

	if err := s.scheme.Verify(user.Password, password); err != nil {
		s.logger.Info(ctx, "login rejected", "nombre", name)
		return fail(common.ErrInvalidCredential, MsgInvalidCredentials)
	}

	// a fresh id, so an id planted before login never becomes authenticated
	sess.Clear()
	sess.Regenerate()
	sess.SetUser(user.ID, user.Name)

	s.logger.Info(ctx, "user logged in", "nombre", name, "id", user.ID)
	return ok(MsgLoggedIn)
}

func (s *AuthService) verifyDecoy(password string) {
	s.decoyOnce.Do(func() {
		s.decoy, _ = s.scheme.Encode("omniguard-decoy-credential")
	})
	if s.decoy != "" {
		_ = s.scheme.Verify(s.decoy, password)
	}
}

// Logout always succeeds, with or without an active login.
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) Result {
	if name := sess.UserName(); name != "" {
		s.logger.Info(ctx, "user logged out", "nombre", name)
	}
	sess.Clear()
	return ok(MsgLoggedOut)
}

// VerifySession reports the logged-in user without modifying sess.
func (s *AuthService) VerifySession(_ context.Context, sess *session.Session) SessionResult {
	id, found := sess.UserID()
	if !found {
		return SessionResult{Result: fail(common.ErrUnauthorized, MsgNoSession)}
	}
	return SessionResult{
		Result: ok(MsgSessionActive),
		User:   &SessionUser{ID: id, Name: sess.UserName()},
	}
}

// ListUserData returns every user with its stored credential. No users
// yields an empty slice.
func (s *AuthService) ListUserData(ctx context.Context) ([]UserData, error) {
	all, err := s.users().ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	data := make([]UserData, 0, len(all))
	for _, u := range all {
		data = append(data, UserData{ID: u.ID, Name: u.Name, Credential: u.Password})
	}
	return data, nil
}

// DecodeCredential recovers the plain text of a stored credential. Only
// reversible schemes can; anything else fails with common.ErrInvalidToken.
func (s *AuthService) DecodeCredential(_ context.Context, encoded string) (string, error) {
	dec, reversible := s.scheme.(credentials.Decoder)
	if !reversible {
		return "", fmt.Errorf("%w: scheme %s is not reversible", common.ErrInvalidToken, s.scheme.Name())
	}
	return dec.Decode(encoded)
}

// DecodeUserCredential looks the user up by id and decodes its credential.
func (s *AuthService) DecodeUserCredential(ctx context.Context, id int64) (string, error) {
	user, err := s.users().FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.DecodeCredential(ctx, user.Password)
}

// RefreshSession re-reads the session's user from storage. A user that no
// longer exists clears sess and yields common.ErrUnauthorized; a renamed user
// has the new name written into sess.
func (s *AuthService) RefreshSession(ctx context.Context, sess *session.Session) error {
	id, found := sess.UserID()
	if !found {
		return common.ErrUnauthorized
	}

	user, err := s.users().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Info(ctx, "session of removed user dropped", "id", id)
			sess.Clear()
			return common.ErrUnauthorized
		}
		return err
	}

	if user.Name != sess.UserName() {
		sess.SetUser(user.ID, user.Name)
	}
	return nil
}

// UpdateUser changes the name and/or password of name in a single write.
// Empty newName or password leave that column alone. A taken newName fails
// with common.ErrAlreadyExists before anything is written.
func (s *AuthService) UpdateUser(ctx context.Context, name, newName, password string) error {
	if name == "" || (newName == "" && password == "") {
		return fmt.Errorf("%w: %s", common.ErrValidation, MsgIncompleteData)
	}

	repo := s.users()

	var fields []datastore.Field
	if newName != "" && newName != name {
		if _, err := repo.FindByName(ctx, newName); err == nil {
			return common.ErrAlreadyExists
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}
		fields = append(fields, datastore.Eq(datastore.ColumnNombre, newName))
	}
	if password != "" {
		encoded, err := s.scheme.Encode(password)
		if err != nil {
			return err
		}
		fields = append(fields, datastore.Eq(datastore.ColumnPassword, encoded))
	}

	if len(fields) == 0 {
		// renaming to the same name
		_, err := repo.FindByName(ctx, name)
		return err
	}

	n, err := repo.UpdateUser(ctx, name, fields)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}

	s.logger.Info(ctx, "user updated", "nombre", name, "nuevo", newName, "password_changed", password != "")
	return nil
}

// ChangePassword re-encodes and stores a new password for name.
func (s *AuthService) ChangePassword(ctx context.Context, name, password string) error {
	if password == "" {
		return fmt.Errorf("%w: %s", common.ErrValidation, MsgIncompleteData)
	}
	return s.UpdateUser(ctx, name, "", password)
}

// RenameUser moves name to newName, failing with common.ErrAlreadyExists when
// newName is taken.
func (s *AuthService) RenameUser(ctx context.Context, name, newName string) error {
	if newName == "" {
		return fmt.Errorf("%w: %s", common.ErrValidation, MsgIncompleteData)
	}
	return s.UpdateUser(ctx, name, newName, "")
}

// DeleteUser removes name, failing with common.ErrNotFound when absent.
func (s *AuthService) DeleteUser(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s", common.ErrValidation, MsgIncompleteData)
	}

	n, err := s.users().DeleteUser(ctx, name)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}

	s.logger.Info(ctx, "user deleted", "nombre", name)
	return nil
}

// Scheme returns the active credential scheme name.
func (s *AuthService) Scheme() string {
	return s.scheme.Name()
}
