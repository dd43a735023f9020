// internal/auth/auth.go
//
// Email/password accounts for the memory game.
// Responsibilities:
//   - Sign-up (validate, hash with bcrypt, insert), sign-in, sign-out.
//   - HS256 JWT issue/verify carrying the user id and email.
//   - Notifying subscribers when a browser client signs in or out, so the
//     game session can switch its persistence backend.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidEmail       = errors.New("email address is invalid")
	ErrInvalidPassword    = errors.New("password must be 8–100 chars")
)

// User is a registered account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`

	passwordHash string
}

// ChangeKind tells subscribers what happened.
type ChangeKind int

const (
	SignedIn ChangeKind = iota + 1
	SignedOut
)

// Change is delivered to subscribers. User is nil for SignedOut.
type Change struct {
	Kind     ChangeKind
	ClientID string
	User     *User
}

// Service wraps the users table and token handling.
type Service struct {
	db         *sql.DB
	secret     []byte
	expiry     time.Duration
	bcryptCost int

	mu        sync.RWMutex
	listeners []func(context.Context, Change)
}

// NewService builds a Service. expiry is the token lifetime.
func NewService(db *sql.DB, secret string, expiry time.Duration) *Service {
	return &Service{db: db, secret: []byte(secret), expiry: expiry, bcryptCost: bcrypt.DefaultCost}
}

// Subscribe registers fn to be called after every sign-in and sign-out.
func (s *Service) Subscribe(fn func(context.Context, Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) emit(ctx context.Context, c Change) {
	s.mu.RLock()
	ls := append([]func(context.Context, Change){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range ls {
		fn(ctx, c)
	}
}

// SignUp creates an account and signs clientID in as that user.
func (s *Service) SignUp(ctx context.Context, clientID, email, password string) (*User, string, time.Time, error) {
	email = normalizeEmail(email)
	if err := validateSignup(email, password); err != nil {
		return nil, "", time.Time{}, err
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email=?`, email).Scan(&exists)
	switch {
	case err == nil:
		return nil, "", time.Time{}, ErrEmailTaken
	case !errors.Is(err, sql.ErrNoRows):
		return nil, "", time.Time{}, fmt.Errorf("lookup email: %w", err)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		passwordHash: string(h),
	}
	if err := s.insertUser(ctx, u); err != nil {
		return nil, "", time.Time{}, err
	}
	return s.signedIn(ctx, clientID, u)
}

// insertUser stores u. A concurrent sign-up that won the race on the same
// email surfaces as ErrEmailTaken.
func (s *Service) insertUser(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Email, u.passwordHash, u.CreatedAt.Format(time.RFC3339))
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrEmailTaken
	}
	return err
}

// SignIn checks credentials and signs clientID in.
func (s *Service) SignIn(ctx context.Context, clientID, email, password string) (*User, string, time.Time, error) {
	u, err := s.findByEmail(ctx, normalizeEmail(email))
	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	return s.signedIn(ctx, clientID, u)
}

// SignOut tells subscribers clientID is a guest again.
func (s *Service) SignOut(ctx context.Context, clientID string) {
	s.emit(ctx, Change{Kind: SignedOut, ClientID: clientID})
}

func (s *Service) signedIn(ctx context.Context, clientID string, u *User) (*User, string, time.Time, error) {
	tok, exp, err := s.sign(u)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	s.emit(ctx, Change{Kind: SignedIn, ClientID: clientID, User: u})
	return u, tok, exp, nil
}

// Identify verifies a token and returns its user, who must still exist.
func (s *Service) Identify(ctx context.Context, token string) (*User, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return nil, ErrInvalidToken
	}
	u, err := s.findByID(ctx, id)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return u, nil
}

func (s *Service) sign(u *User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.expiry)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    u.ID,
		"email": u.Email,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	})
	ss, err := t.SignedString(s.secret)
	return ss, exp, err
}

func (s *Service) findByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email=?`, email))
}

func (s *Service) findByID(ctx context.Context, id string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id=?`, id))
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.passwordHash, &created); err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// validateSignup enforces basic email/password rules.
func validateSignup(email, password string) error {
	if len(email) > 254 || !strings.Contains(email, "@") ||
		strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return ErrInvalidEmail
	}
	if len(password) < 8 || len(password) > 100 {
		return ErrInvalidPassword
	}
	return nil
}
