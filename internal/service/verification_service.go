package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/d60-Lab/college-connect/internal/metrics"
	"github.com/d60-Lab/college-connect/internal/model"
	"github.com/d60-Lab/college-connect/internal/repository"
	"github.com/d60-Lab/college-connect/internal/storage"
	"github.com/d60-Lab/college-connect/pkg/logger"
)

// SubmitVerificationInput 学生认证表单
type SubmitVerificationInput struct {
	FullName     string
	DOB          string
	CollegeName  string
	CollegePlace string
	IDCard       *storage.Blob
}

// VerificationService 学生认证：unset -> pending -> approved
//
// 审核到期时间随记录持久化，由 ReviewWorker 周期性 Sweep 处理，进程重启不会丢失待审核项。
type VerificationService interface {
	Submit(ctx context.Context, userID string, in SubmitVerificationInput) (*model.VerificationRecord, error)
	// GetStatus 未提交过返回 nil, nil
	GetStatus(ctx context.Context, userID string) (*model.VerificationRecord, error)
	// Approve 幂等；返回本次是否发生了状态变更
	Approve(ctx context.Context, userID string) (bool, error)
	// Sweep 审核所有已到期的 pending 记录，返回通过数量
	Sweep(ctx context.Context) (int, error)
}

type verificationService struct {
	users         repository.UserRepository
	verifications repository.VerificationRepository
	uploader      storage.Uploader
	notifications NotificationService
	metrics       metrics.Recorder
	clock         clock.Clock
	reviewDelay   time.Duration
}

func NewVerificationService(
	users repository.UserRepository,
	verifications repository.VerificationRepository,
	uploader storage.Uploader,
	notifications NotificationService,
	rec metrics.Recorder,
	clk clock.Clock,
	reviewDelay time.Duration,
) VerificationService {
	return &verificationService{
		users:         users,
		verifications: verifications,
		uploader:      uploader,
		notifications: notifications,
		metrics:       rec,
		clock:         clk,
		reviewDelay:   reviewDelay,
	}
}

func approvalNotificationID(userID string) string { return "notif_verification_" + userID }

// applySubmission 把提交的资料复制到 profile
func applySubmission(p *model.UserProfile, rec *model.VerificationRecord) {
	p.FullName = rec.FullName
	p.DOB = rec.DOB
	p.CollegeName = rec.CollegeName
	p.CollegePlace = rec.CollegePlace
	p.IDCardPath = rec.IDCardPath
	submitted := rec.SubmittedAt
	p.VerificationSubmittedAt = &submitted
}

func (s *verificationService) Submit(ctx context.Context, userID string, in SubmitVerificationInput) (*model.VerificationRecord, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.DOB = strings.TrimSpace(in.DOB)
	in.CollegeName = strings.TrimSpace(in.CollegeName)
	in.CollegePlace = strings.TrimSpace(in.CollegePlace)
	if in.FullName == "" || in.DOB == "" || in.CollegeName == "" || in.CollegePlace == "" || in.IDCard == nil {
		return nil, invalid("Missing required fields")
	}

	profile, err := s.users.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile.Verified || profile.VerificationStatus == model.VerificationApproved {
		return nil, invalid("Verification already submitted")
	}
	// profile 为 pending 但没有记录，说明上次提交写记录失败，允许重新提交
	existing, err := s.verifications.Get(ctx, userID)
	switch {
	case err == nil:
		if existing.Status == model.VerificationApproved || profile.VerificationStatus == model.VerificationPending {
			return nil, invalid("Verification already submitted")
		}
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, fmt.Errorf("get verification: %w", err)
	}

	obj, err := s.uploader.Upload(ctx, storage.BucketCollegeIDs, userID, in.IDCard)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrEmptyFile) {
			return nil, invalid("Invalid ID card file: " + err.Error())
		}
		return nil, fmt.Errorf("upload id card: %w", err)
	}

	now := s.clock.Now().UTC()
	rec := &model.VerificationRecord{
		UserID:       userID,
		Status:       model.VerificationPending,
		FullName:     in.FullName,
		DOB:          in.DOB,
		CollegeName:  in.CollegeName,
		CollegePlace: in.CollegePlace,
		IDCardPath:   obj.Key,
		SubmittedAt:  now,
		ReviewDueAt:  now.Add(s.reviewDelay),
	}
	// 先写记录：之后 profile 写失败时，Sweep 的 Approve 会按记录补齐 profile
	if err := s.verifications.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save verification: %w", err)
	}

	applySubmission(profile, rec)
	profile.VerificationStatus = model.VerificationPending
	if err := s.users.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	logger.Info("verification submitted", zap.String("user", userID), zap.Time("review_due_at", rec.ReviewDueAt))
	return rec, nil
}

func (s *verificationService) GetStatus(ctx context.Context, userID string) (*model.VerificationRecord, error) {
	rec, err := s.verifications.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get verification: %w", err)
	}
	return rec, nil
}

// Approve 依次写 profile、记录、通知；任一步失败后重跑会补齐剩余步骤
func (s *verificationService) Approve(ctx context.Context, userID string) (bool, error) {
	rec, err := s.verifications.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, notFound("Verification not found")
	}
	if err != nil {
		return false, fmt.Errorf("get verification: %w", err)
	}
	if rec.Status == model.VerificationUnset {
		return false, invalid("No pending verification")
	}

	profile, err := s.users.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get profile: %w", err)
	}

	now := s.clock.Now().UTC()
	changed := false
	if !profile.Verified || profile.VerificationStatus != model.VerificationApproved {
		applySubmission(profile, rec)
		profile.Verified = true
		profile.VerificationStatus = model.VerificationApproved
		profile.VerifiedAt = &now
		if err := s.users.Save(ctx, profile); err != nil {
			return false, fmt.Errorf("save profile: %w", err)
		}
		changed = true
	}
	if rec.Status != model.VerificationApproved {
		rec.Status = model.VerificationApproved
		rec.ApprovedAt = &now
		if err := s.verifications.Save(ctx, rec); err != nil {
			return changed, fmt.Errorf("save verification: %w", err)
		}
		changed = true
	}

	if _, err := s.notifications.PushOnce(ctx, approvalNotificationID(userID), PushInput{
		OwnerID: userID,
		Type:    model.NotificationVerificationApproved,
		Title:   "Verification Approved",
		Message: "Your student status has been verified successfully!",
	}); err != nil {
		return changed, fmt.Errorf("push approval notification: %w", err)
	}

	if changed {
		s.metrics.VerificationApproved()
		logger.Info("verification approved", zap.String("user", userID))
	}
	return changed, nil
}

func (s *verificationService) Sweep(ctx context.Context) (int, error) {
	records, err := s.verifications.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list verifications: %w", err)
	}
	now := s.clock.Now()
	approved := 0
	var errs []error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return approved, err
		}
		if !rec.DueForReview(now) {
			continue
		}
		if _, err := s.Approve(ctx, rec.UserID); err != nil {
			logger.Warn("auto approval failed", zap.String("user", rec.UserID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		approved++
	}
	return approved, errors.Join(errs...)
}
