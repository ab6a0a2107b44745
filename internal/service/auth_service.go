package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/college-connect/internal/identity"
	"github.com/d60-Lab/college-connect/internal/model"
	"github.com/d60-Lab/college-connect/pkg/logger"
)

const minPasswordLen = 6

// SignInResult 登录成功后返回给客户端的内容
type SignInResult struct {
	Session *identity.Session
	Profile *model.UserProfile
}

// AuthService 注册、登录与令牌校验
type AuthService interface {
	SignUp(ctx context.Context, email, password, fullName string) (*model.Account, *model.UserProfile, error)
	SignIn(ctx context.Context, email, password string) (*SignInResult, error)
	// Authenticate 校验 bearer token，返回用户 ID
	Authenticate(ctx context.Context, token string) (string, error)
}

type authService struct {
	gateway  identity.Gateway
	profiles ProfileService
}

func NewAuthService(gateway identity.Gateway, profiles ProfileService) AuthService {
	return &authService{gateway: gateway, profiles: profiles}
}

func (s *authService) SignUp(ctx context.Context, email, password, fullName string) (*model.Account, *model.UserProfile, error) {
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)
	if email == "" || password == "" || fullName == "" {
		return nil, nil, invalid("Missing required fields")
	}
	if err := s.profiles.ValidateEmail(email); err != nil {
		return nil, nil, err
	}
	if len(password) < minPasswordLen {
		return nil, nil, invalid(fmt.Sprintf("Password must be at least %d characters", minPasswordLen))
	}

	acc, err := s.gateway.Register(ctx, email, password, fullName)
	if errors.Is(err, identity.ErrEmailTaken) {
		return s.resumeSignUp(ctx, email, password)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("register: %w", err)
	}

	profile, err := s.ensureProfile(ctx, acc)
	if err != nil {
		logger.Error("profile creation after signup failed", zap.String("user", acc.ID), zap.Error(err))
		return nil, nil, err
	}
	logger.Info("user signed up", zap.String("user", acc.ID), zap.String("display_id", profile.UserID))
	return acc, profile, nil
}

// resumeSignUp 账号已存在：凭据正确且资料缺失时补建资料，否则按重复注册处理
func (s *authService) resumeSignUp(ctx context.Context, email, password string) (*model.Account, *model.UserProfile, error) {
	duplicate := &Error{Kind: ErrDuplicateUser, Msg: "A user with this email address has already been registered"}
	sess, err := s.gateway.SignIn(ctx, email, password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return nil, nil, duplicate
	}
	if err != nil {
		return nil, nil, fmt.Errorf("sign in: %w", err)
	}
	_, err = s.profiles.Get(ctx, sess.Account.ID)
	if err == nil {
		return nil, nil, duplicate
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}
	profile, err := s.ensureProfile(ctx, sess.Account)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("signup resumed", zap.String("user", sess.Account.ID))
	return sess.Account, profile, nil
}

// ensureProfile 返回账号对应的资料，缺失时创建；并发创建时读取已存在的那份
func (s *authService) ensureProfile(ctx context.Context, acc *model.Account) (*model.UserProfile, error) {
	profile, err := s.profiles.Get(ctx, acc.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	profile, err = s.profiles.Create(ctx, acc.ID, acc.Email, acc.FullName)
	if errors.Is(err, ErrDuplicateUser) {
		return s.profiles.Get(ctx, acc.ID)
	}
	return profile, err
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, invalid("Missing required fields")
	}
	sess, err := s.gateway.SignIn(ctx, email, password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return nil, &Error{Kind: ErrUnauthorized, Msg: "Invalid login credentials"}
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	profile, err := s.ensureProfile(ctx, sess.Account)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Session: sess, Profile: profile}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", &Error{Kind: ErrUnauthorized, Msg: "No token provided"}
	}
	id, err := s.gateway.Verify(ctx, token)
	if errors.Is(err, identity.ErrInvalidToken) {
		return "", &Error{Kind: ErrUnauthorized, Msg: "Invalid token"}
	}
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}
	return id, nil
}
