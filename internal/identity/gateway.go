// Package identity authenticates users: it owns credentials and bearer tokens
// and exposes only "verify token -> user id" to the rest of the service.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/college-connect/internal/model"
	"github.com/d60-Lab/college-connect/internal/repository"
	"github.com/d60-Lab/college-connect/pkg/jwt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// Session is returned by a successful sign-in.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	Account     *model.Account
}

// Gateway is the identity provider capability.
type Gateway interface {
	Register(ctx context.Context, email, password, fullName string) (*model.Account, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Verify(ctx context.Context, token string) (string, error)
}

type Options struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
	Clock      clock.Clock
}

type gateway struct {
	accounts repository.AccountRepository
	opts     Options
}

func NewGateway(accounts repository.AccountRepository, opts Options) Gateway {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	return &gateway{accounts: accounts, opts: opts}
}

func (g *gateway) Register(ctx context.Context, email, password, fullName string) (*model.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acc := &model.Account{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(email),
		FullName:     fullName,
		PasswordHash: string(hash),
		CreatedAt:    g.opts.Clock.Now().UTC(),
	}
	created, err := g.accounts.Create(ctx, acc)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	if !created {
		return nil, ErrEmailTaken
	}
	return acc, nil
}

func (g *gateway) SignIn(ctx context.Context, email, password string) (*Session, error) {
	acc, err := g.accounts.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := g.opts.Clock.Now()
	token, err := jwt.GenerateToken(acc.ID, g.opts.Secret, g.opts.TokenTTL, now)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{AccessToken: token, ExpiresAt: now.Add(g.opts.TokenTTL), Account: acc}, nil
}

func (g *gateway) Verify(_ context.Context, token string) (string, error) {
	uid, err := jwt.ParseToken(token, g.opts.Secret)
	if err != nil {
		return "", ErrInvalidToken
	}
	return uid, nil
}
