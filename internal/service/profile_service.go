package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/d60-Lab/college-connect/internal/model"
	"github.com/d60-Lab/college-connect/internal/repository"
	"github.com/d60-Lab/college-connect/internal/storage"
	"github.com/d60-Lab/college-connect/pkg/logger"
)

const displayIDAttempts = 8

// CompleteProfileInput 完善资料表单
type CompleteProfileInput struct {
	Department string
	Year       string
	Bio        string
	Picture    *storage.Blob
}

// ProfileService 用户资料目录
type ProfileService interface {
	Create(ctx context.Context, userID, email, fullName string) (*model.UserProfile, error)
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	// Lookup 先按展示 ID 查找，再按内部 ID
	Lookup(ctx context.Context, idOrDisplayID string) (*model.UserProfile, error)
	CompleteProfile(ctx context.Context, userID string, in CompleteProfileInput) (*model.UserProfile, error)
	ValidateEmail(email string) error
}

type profileService struct {
	users         repository.UserRepository
	uploader      storage.Uploader
	clock         clock.Clock
	emailSuffixes []string
	// randSuffix 生成展示 ID 末尾 4 位，测试可替换
	randSuffix func() string
}

func NewProfileService(users repository.UserRepository, uploader storage.Uploader, clk clock.Clock, emailSuffixes []string) ProfileService {
	suffixes := make([]string, 0, len(emailSuffixes))
	for _, s := range emailSuffixes {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			suffixes = append(suffixes, s)
		}
	}
	return &profileService{
		users:         users,
		uploader:      uploader,
		clock:         clk,
		emailSuffixes: suffixes,
		randSuffix:    randomBase36,
	}
}

func randomBase36() string {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, 4)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			panic(err)
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b)
}

func (s *profileService) ValidateEmail(email string) error {
	e := strings.ToLower(strings.TrimSpace(email))
	for _, suffix := range s.emailSuffixes {
		if strings.HasSuffix(e, suffix) {
			return nil
		}
	}
	return invalid(fmt.Sprintf("Please use a valid college email (%s)", strings.Join(s.emailSuffixes, ", ")))
}

func (s *profileService) Create(ctx context.Context, userID, email, fullName string) (*model.UserProfile, error) {
	if userID == "" || email == "" || strings.TrimSpace(fullName) == "" {
		return nil, invalid("Missing required fields")
	}
	if _, err := s.users.Get(ctx, userID); err == nil {
		return nil, &Error{Kind: ErrDuplicateUser, Msg: "profile already exists"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	now := s.clock.Now().UTC()
	displayID := ""
	for i := 0; i < displayIDAttempts; i++ {
		candidate := fmt.Sprintf("student_%d_%s", now.Year(), s.randSuffix())
		ok, err := s.users.ClaimDisplayID(ctx, candidate, userID)
		if err != nil {
			return nil, fmt.Errorf("claim display id: %w", err)
		}
		if ok {
			displayID = candidate
			break
		}
		logger.Debug("display id collision, retrying", zap.String("candidate", candidate))
	}
	if displayID == "" {
		return nil, fmt.Errorf("no free display id after %d attempts", displayIDAttempts)
	}

	p := &model.UserProfile{
		ID:        userID,
		UserID:    displayID,
		Email:     strings.TrimSpace(email),
		FullName:  strings.TrimSpace(fullName),
		CreatedAt: now,
	}
	created, err := s.users.Create(ctx, p)
	if err != nil || !created {
		// 资料未写入，归还已占用的展示 ID
		if rerr := s.users.ReleaseDisplayID(ctx, displayID, userID); rerr != nil {
			logger.Warn("release display id failed", zap.String("display_id", displayID), zap.Error(rerr))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	if !created {
		return nil, &Error{Kind: ErrDuplicateUser, Msg: "profile already exists"}
	}
	return p, nil
}

func (s *profileService) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	p, err := s.users.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *profileService) Lookup(ctx context.Context, idOrDisplayID string) (*model.UserProfile, error) {
	if idOrDisplayID == "" {
		return nil, notFound("User not found")
	}
	id, err := s.users.ResolveDisplayID(ctx, idOrDisplayID)
	switch {
	case err == nil:
		return s.Get(ctx, id)
	case errors.Is(err, repository.ErrNotFound):
		return s.Get(ctx, idOrDisplayID)
	default:
		return nil, fmt.Errorf("resolve display id: %w", err)
	}
}

func (s *profileService) CompleteProfile(ctx context.Context, userID string, in CompleteProfileInput) (*model.UserProfile, error) {
	if strings.TrimSpace(in.Department) == "" || strings.TrimSpace(in.Year) == "" {
		return nil, invalid("Department and year are required")
	}
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Picture != nil {
		obj, err := s.uploader.Upload(ctx, storage.BucketProfilePictures, userID, in.Picture)
		if err != nil {
			// 与发帖一致：图片失败不阻塞资料完善
			logger.Warn("profile picture upload failed", zap.String("user", userID), zap.Error(err))
		} else {
			p.ProfilePicture = obj.URL
		}
	}

	now := s.clock.Now().UTC()
	p.Department = strings.TrimSpace(in.Department)
	p.Year = strings.TrimSpace(in.Year)
	p.Bio = strings.TrimSpace(in.Bio)
	p.ProfileCompleted = true
	p.ProfileCompletedAt = &now
	if err := s.users.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}
