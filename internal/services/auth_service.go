package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"staybook/internal/domain"
	applog "staybook/internal/log"
	"staybook/internal/repos"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCreds     = errors.New("invalid email or password")
	ErrInvalidRole  = errors.New("invalid role")
	ErrResetExpired = errors.New("reset link is invalid or has expired")
)

const resetTTL = time.Hour

// Session is the result of a successful sign-in. ID goes into the sid
// cookie and Token is the equivalent Bearer credential.
type Session struct {
	ID        string       `json:"-"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

type ProfilePatch struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	AvatarURL *string `json:"avatar_url"`
}

// ResetNotifier delivers password reset tokens to the account owner.
type ResetNotifier interface {
	SendReset(ctx context.Context, u *domain.User, token string) error
}

// LogNotifier records that a reset link was issued. Only the last four
// characters of the token reach the log.
type LogNotifier struct{}

func (LogNotifier) SendReset(_ context.Context, u *domain.User, token string) error {
	applog.Audit(nil, "password.reset_link", map[string]any{"user_id": u.ID, "ref": tokenRef(token)})
	return nil
}

// OutboxNotifier writes one "email reset-token=<token>" line per reset to W,
// a local stand-in for outgoing mail.
type OutboxNotifier struct {
	W io.Writer

	mu sync.Mutex
}

func (n *OutboxNotifier) SendReset(_ context.Context, u *domain.User, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := fmt.Fprintf(n.W, "%s reset-token=%s\n", u.Email, token); err != nil {
		return fmt.Errorf("write reset outbox: %w", err)
	}
	applog.Audit(nil, "password.reset_link", map[string]any{"user_id": u.ID, "ref": tokenRef(token)})
	return nil
}

func tokenRef(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "..." + token[len(token)-4:]
}

type AuthService struct {
	Users    *repos.UserRepo
	Tokens   *TokenIssuer
	Notifier ResetNotifier
	TTL      time.Duration
	Cost     int
}

func NewAuthService(users *repos.UserRepo, tokens *TokenIssuer, ttl time.Duration) *AuthService {
	return &AuthService{Users: users, Tokens: tokens, Notifier: LogNotifier{}, TTL: ttl, Cost: bcrypt.DefaultCost}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if in.Role != domain.RoleUser && in.Role != domain.RoleHost {
		return nil, ErrInvalidRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.Cost)
	if err != nil {
		return nil, err
	}
	return s.Users.Create(ctx, domain.User{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Hash:      string(hash),
		Role:      in.Role,
	})
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, ErrBadCreds
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}

	sess := &Session{ID: uuid.NewString(), ExpiresAt: time.Now().Add(s.TTL), User: u}
	if err := s.Users.BindSession(ctx, sess.ID, u.ID, sess.ExpiresAt); err != nil {
		return nil, err
	}
	if sess.Token, err = s.Tokens.Issue(u, sess.ID, sess.ExpiresAt); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *AuthService) SignOut(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Users.SessionUser(ctx, sid)
}

// TokenUser resolves a Bearer token. The token's session must still be live.
func (s *AuthService) TokenUser(ctx context.Context, token string) (*domain.User, string, error) {
	c, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, "", err
	}
	u, err := s.Users.SessionUser(ctx, c.SessionID)
	if err != nil {
		return nil, "", err
	}
	if u.ID != c.Subject {
		return nil, "", ErrForbidden
	}
	return u, c.SessionID, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, p ProfilePatch) (*domain.User, error) {
	return s.Users.UpdateProfile(ctx, userID, p.FirstName, p.LastName, p.AvatarURL)
}

// ForgotPassword issues a reset token when the email is known. Unknown
// emails succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.Users.ByEmail(ctx, email)
	if errors.Is(err, repos.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	token := uuid.NewString()
	if err := s.Users.CreateReset(ctx, token, u.ID, time.Now().Add(resetTTL)); err != nil {
		return err
	}
	return s.Notifier.SendReset(ctx, u, token)
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	userID, err := s.Users.ConsumeReset(ctx, token)
	if errors.Is(err, repos.ErrNotFound) {
		return ErrResetExpired
	}
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return err
	}
	return s.Users.SetPassword(ctx, userID, string(hash))
}
