package service

import (
	"github.com/juju/clock"

	"github.com/d60-Lab/college-connect/config"
	"github.com/d60-Lab/college-connect/internal/identity"
	"github.com/d60-Lab/college-connect/internal/metrics"
	"github.com/d60-Lab/college-connect/internal/repository"
	"github.com/d60-Lab/college-connect/internal/storage"
)

// Services 聚合所有领域服务，供 handler 与命令行工具共用
type Services struct {
	Auth          AuthService
	Profiles      ProfileService
	Verification  VerificationService
	Posts         PostService
	Notifications NotificationService
	Messages      MessageService
	Search        SearchService
	ReviewWorker  *ReviewWorker
}

// Deps 构造 Services 所需的外部依赖
type Deps struct {
	Repos    *repository.Repositories
	Gateway  identity.Gateway
	Uploader storage.Uploader
	Metrics  metrics.Recorder
	Clock    clock.Clock
}

func NewServices(cfg *config.Config, d Deps) *Services {
	if d.Metrics == nil {
		d.Metrics = metrics.Nop
	}
	if d.Clock == nil {
		d.Clock = clock.WallClock
	}
	r := d.Repos

	notifications := NewNotificationService(r.Notifications, d.Metrics, d.Clock)
	profiles := NewProfileService(r.Users, d.Uploader, d.Clock, cfg.Signup.AllowedEmailSuffixes)
	verification := NewVerificationService(r.Users, r.Verifications, d.Uploader, notifications, d.Metrics, d.Clock, cfg.Verification.ReviewDelay)

	return &Services{
		Auth:          NewAuthService(d.Gateway, profiles),
		Profiles:      profiles,
		Verification:  verification,
		Posts:         NewPostService(r.Posts, r.Comments, r.Users, d.Uploader, notifications, d.Metrics, d.Clock),
		Notifications: notifications,
		Messages: NewMessageService(r.Conversations, r.Messages, r.Users, notifications, d.Metrics, d.Clock, MessagingOptions{
			PollInterval:    cfg.Messaging.PollInterval,
			NotifyOnMessage: cfg.Messaging.NotifyOnMessage,
		}),
		Search:       NewSearchService(r.Users),
		ReviewWorker: NewReviewWorker(verification, d.Clock, cfg.Verification.SweepInterval),
	}
}
