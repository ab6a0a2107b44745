package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/juju/clock/testclock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/college-connect/config"
	"github.com/d60-Lab/college-connect/internal/identity"
	"github.com/d60-Lab/college-connect/internal/metrics"
	"github.com/d60-Lab/college-connect/internal/model"
	"github.com/d60-Lab/college-connect/internal/repository"
	"github.com/d60-Lab/college-connect/internal/storage"
)

var testEpoch = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	svc   *Services
	repos *repository.Repositories
	blobs *storage.Service
	gw    identity.Gateway
	clock *testclock.Clock
}

func testConfig() *config.Config {
	return &config.Config{
		JWT:          config.JWTConfig{Secret: "secret", Expire: time.Hour},
		Verification: config.VerificationConfig{ReviewDelay: 3 * time.Second, SweepInterval: time.Second},
		Messaging:    config.MessagingConfig{PollInterval: 3 * time.Second, NotifyOnMessage: true},
		Signup:       config.SignupConfig{AllowedEmailSuffixes: []string{".edu", "@test.com"}},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repos := repository.NewRepositories(repository.NewRedisStore(client, "test"))
	clk := testclock.NewClock(testEpoch)
	cfg := testConfig()

	blobs := storage.NewService(storage.NewLocalBackend(t.TempDir()), storage.Options{
		PublicBaseURL:  "http://media.test",
		MaxUploadBytes: 1 << 10,
		Now:            clk.Now,
	})
	require.NoError(t, blobs.EnsureBuckets(context.Background()))

	gw := identity.NewGateway(repos.Accounts, identity.Options{
		Secret:     []byte(cfg.JWT.Secret),
		TokenTTL:   cfg.JWT.Expire,
		BcryptCost: bcrypt.MinCost,
		Clock:      clk,
	})
	svc := NewServices(cfg, Deps{Repos: repos, Gateway: gw, Uploader: blobs, Metrics: metrics.Nop, Clock: clk})
	return &testEnv{svc: svc, repos: repos, blobs: blobs, gw: gw, clock: clk}
}

// newUser 创建资料；college 非空时同时标记为已认证
func (e *testEnv) newUser(t *testing.T, id, name, college string) *model.UserProfile {
	t.Helper()
	ctx := context.Background()
	p, err := e.svc.Profiles.Create(ctx, id, id+"@uni.edu", name)
	require.NoError(t, err)
	if college != "" {
		p.CollegeName = college
		p.Verified = true
		p.VerificationStatus = model.VerificationApproved
		require.NoError(t, e.repos.Users.Save(ctx, p))
	}
	return p
}

func blob(name, content string) *storage.Blob {
	return &storage.Blob{Filename: name, ContentType: "image/png", Size: int64(len(content)), Body: strings.NewReader(content)}
}
