package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/PartsInventory/internal/core"
	"github.com/JonMunkholm/PartsInventory/internal/logging"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
)

// Field limits, in characters.
const (
	maxUsernameLen = 50
	maxEmailLen    = 100
	maxFullNameLen = 100
)

var (
	errBadCredentials  = fmt.Errorf("%w: invalid username or password", core.ErrUnauthorized)
	errAccountDisabled = fmt.Errorf("%w: account disabled", core.ErrForbidden)
	errLastAdmin       = fmt.Errorf("%w: cannot remove the last administrator", core.ErrConflict)
)

// UserInput carries the editable fields of an account. On update a blank
// Password keeps the current one and a nil Enabled keeps the current state.
type UserInput struct {
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	FullName        string    `json:"fullName"`
	Password        string    `json:"password"`
	ConfirmPassword string    `json:"confirmPassword"`
	Role            core.Role `json:"role"`
	Enabled         *bool     `json:"enabled"`
}

// Session is the result of a successful login.
type Session struct {
	User      core.User `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service manages accounts and sessions over the core store.
type Service struct {
	store    core.Store
	audit    *core.AuditRecorder
	tokens   *TokenIssuer
	now      func() time.Time
	hashCost int
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source for timestamps and tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		if s.tokens != nil {
			s.tokens.now = now
		}
	}
}

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// NewService returns a Service. audit may be shared with the core service.
func NewService(store core.Store, audit *core.AuditRecorder, tokens *TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		audit:    audit,
		tokens:   tokens,
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.audit == nil {
		s.audit = core.NewAuditRecorder(store, s.now)
	}
	return s
}

// Tokens exposes the token issuer for the session middleware.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

// Login checks credentials and issues a session token.
// Unknown users and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	log := logging.WithFields(ctx, "username", username)

	u, err := s.store.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, core.ErrNotFound) {
		log.Warn("login rejected", "reason", "unknown user")
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, core.WrapStore("login", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		log.Warn("login rejected", "reason", "bad password")
		return nil, errBadCredentials
	}
	if !u.Enabled {
		log.Warn("login rejected", "reason", "disabled")
		return nil, errAccountDisabled
	}

	token, expires, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	log.Info("login", "user_id", u.ID)
	return &Session{User: u, Token: token, ExpiresAt: expires}, nil
}

// Authenticate resolves a session token to a current, enabled user.
// Role changes take effect immediately because the user is reloaded.
func (s *Service) Authenticate(ctx context.Context, token string) (core.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return core.User{}, err
	}
	u, err := s.store.UserByID(ctx, claims.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, ErrInvalidSession
	}
	if err != nil {
		return core.User{}, core.WrapStore("authenticate", err)
	}
	if !u.Enabled {
		return core.User{}, errAccountDisabled
	}
	return u, nil
}

// CreateUser validates in and stores a new account. A password is required.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (core.User, error) {
	u, err := normalizeUser(in, true)
	if err != nil {
		return core.User{}, err
	}
	if u.PasswordHash, err = s.hash(in.Password); err != nil {
		return core.User{}, err
	}

	var saved core.User
	err = s.store.InTx(ctx, func(tx core.Store) error {
		if err := checkUserUnique(ctx, tx, u); err != nil {
			return err
		}
		now := s.now()
		u.CreatedAt, u.UpdatedAt = now, now
		var err error
		saved, err = tx.InsertUser(ctx, u)
		return err
	})
	if err != nil {
		return core.User{}, core.WrapStore("create user", err)
	}

	logging.WithFields(ctx, "user_id", saved.ID, "username", saved.Username).Info("user created", "role", saved.Role)
	s.record(ctx, core.ActionUserCreate, saved, map[string]any{"role": string(saved.Role)})
	return saved, nil
}

// UpdateUser overwrites the profile of user id. The last enabled
// administrator cannot be demoted or disabled.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UserInput) (core.User, error) {
	u, err := normalizeUser(in, false)
	if err != nil {
		return core.User{}, err
	}
	var newHash string
	if in.Password != "" {
		if newHash, err = s.hash(in.Password); err != nil {
			return core.User{}, err
		}
	}

	var before, saved core.User
	err = s.store.InTx(ctx, func(tx core.Store) error {
		var err error
		if before, err = tx.UserByID(ctx, id); err != nil {
			return err
		}
		u.ID = id
		if in.Enabled == nil {
			u.Enabled = before.Enabled
		}
		u.PasswordHash = lo.Ternary(newHash != "", newHash, before.PasswordHash)

		if removesAdmin(before, u) {
			if err := checkNotLastAdmin(ctx, tx, id); err != nil {
				return err
			}
		}
		if err := checkUserUnique(ctx, tx, u); err != nil {
			return err
		}
		u.CreatedAt = before.CreatedAt
		u.UpdatedAt = s.now()
		saved, err = tx.UpdateUser(ctx, u)
		return err
	})
	if err != nil {
		return core.User{}, core.WrapStore("update user", err)
	}

	logging.WithFields(ctx, "user_id", id).Info("user updated")
	s.record(ctx, core.ActionUserUpdate, saved, userChanges(before, saved, newHash != ""))
	return saved, nil
}

// DeleteUser removes user id. The last enabled administrator stays.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	var existing core.User
	err := s.store.InTx(ctx, func(tx core.Store) error {
		var err error
		if existing, err = tx.UserByID(ctx, id); err != nil {
			return err
		}
		if existing.IsAdmin() && existing.Enabled {
			if err := checkNotLastAdmin(ctx, tx, id); err != nil {
				return err
			}
		}
		return tx.DeleteUser(ctx, id)
	})
	if err != nil {
		return core.WrapStore("delete user", err)
	}

	logging.WithFields(ctx, "user_id", id).Info("user deleted")
	s.record(ctx, core.ActionUserDelete, existing, nil)
	return nil
}

// FindUser returns user id or an ErrNotFound error.
func (s *Service) FindUser(ctx context.Context, id int64) (core.User, error) {
	u, err := s.store.UserByID(ctx, id)
	return u, core.WrapStore("find user", err)
}

// ListUsers returns every account in id order.
func (s *Service) ListUsers(ctx context.Context) ([]core.User, error) {
	users, err := s.store.ListUsers(ctx)
	return users, core.WrapStore("list users", err)
}

// EnsureAdmin creates username as an enabled administrator unless an
// account with that name already exists. It reports whether it created one.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, nil
	}
	_, err := s.store.UserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return false, core.WrapStore("bootstrap admin", err)
	}

	_, err = s.CreateUser(ctx, UserInput{
		Username:        username,
		Email:           username + "@localhost",
		FullName:        "Administrator",
		Password:        password,
		ConfirmPassword: password,
		Role:            core.RoleAdmin,
		Enabled:         lo.ToPtr(true),
	})
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	return true, nil
}

func (s *Service) hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (s *Service) record(ctx context.Context, action core.AuditAction, u core.User, details map[string]any) {
	s.audit.Record(ctx, core.AuditParams{
		Action:     action,
		EntityType: "user",
		EntityID:   fmt.Sprint(u.ID),
		Summary:    u.Username,
		Details:    details,
	})
}

// normalizeUser trims in and checks it, stopping at the first violation.
func normalizeUser(in UserInput, create bool) (core.User, error) {
	u := core.User{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.TrimSpace(in.Email),
		FullName: strings.TrimSpace(in.FullName),
		Role:     in.Role,
		Enabled:  true,
	}
	if in.Enabled != nil {
		u.Enabled = *in.Enabled
	}
	if u.Role == "" {
		u.Role = core.RoleUser
	}

	switch {
	case u.Username == "":
		return u, invalid("username", "", "username is required")
	case u.Email == "":
		return u, invalid("email", "", "email is required")
	case u.FullName == "":
		return u, invalid("fullName", "", "full name is required")
	case !u.Role.Valid():
		return u, invalid("role", string(u.Role), "role must be ROLE_ADMIN or ROLE_USER")
	}
	if err := checkLength("username", u.Username, maxUsernameLen); err != nil {
		return u, err
	}
	if err := checkLength("email", u.Email, maxEmailLen); err != nil {
		return u, err
	}
	if err := checkLength("fullName", u.FullName, maxFullNameLen); err != nil {
		return u, err
	}
	if _, err := mail.ParseAddress(u.Email); err != nil || !strings.Contains(u.Email, "@") {
		return u, invalid("email", u.Email, "email must be a valid address")
	}

	if !create && in.Password == "" {
		return u, nil
	}
	switch {
	case in.Password == "":
		return u, invalid("password", "", "password is required")
	case utf8.RuneCountInString(in.Password) < MinPasswordLength:
		return u, invalid("password", "", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	case len(in.Password) > MaxPasswordBytes:
		return u, invalid("password", "", fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	case in.Password != in.ConfirmPassword:
		return u, invalid("confirmPassword", "", "passwords do not match")
	}
	return u, nil
}

func invalid(field, value, message string) error {
	return &core.ValidationError{Field: field, Value: value, Message: message}
}

func checkLength(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return invalid(field, value, fmt.Sprintf("must be at most %d characters", limit))
	}
	return nil
}

func checkUserUnique(ctx context.Context, tx core.UserStore, u core.User) error {
	taken, err := tx.UsernameExists(ctx, u.Username, u.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: username already exists: %s", core.ErrConflict, u.Username)
	}
	taken, err = tx.EmailExists(ctx, u.Email, u.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: email already exists: %s", core.ErrConflict, u.Email)
	}
	return nil
}

// removesAdmin reports whether the change takes away an enabled administrator.
func removesAdmin(before, after core.User) bool {
	wasAdmin := before.IsAdmin() && before.Enabled
	isAdmin := after.IsAdmin() && after.Enabled
	return wasAdmin && !isAdmin
}

// checkNotLastAdmin fails when id is the only enabled administrator.
func checkNotLastAdmin(ctx context.Context, tx core.UserStore, id int64) error {
	users, err := tx.ListUsers(ctx)
	if err != nil {
		return err
	}
	others := lo.CountBy(users, func(u core.User) bool {
		return u.ID != id && u.IsAdmin() && u.Enabled
	})
	if others == 0 {
		return errLastAdmin
	}
	return nil
}

func userChanges(before, after core.User, passwordChanged bool) map[string]any {
	changes := map[string]any{}
	diff := func(field, o, n string) {
		if o != n {
			changes[field] = []string{o, n}
		}
	}
	diff("username", before.Username, after.Username)
	diff("email", before.Email, after.Email)
	diff("fullName", before.FullName, after.FullName)
	diff("role", string(before.Role), string(after.Role))
	diff("enabled", fmt.Sprint(before.Enabled), fmt.Sprint(after.Enabled))
	if passwordChanged {
		changes["password"] = "changed"
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}
