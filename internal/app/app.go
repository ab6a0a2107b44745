// Package app wires configuration into stores, blob storage and services.
// The HTTP server and the operator CLI share it.
package app

import (
	"context"
	"fmt"

	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/college-connect/config"
	"github.com/d60-Lab/college-connect/internal/identity"
	"github.com/d60-Lab/college-connect/internal/metrics"
	"github.com/d60-Lab/college-connect/internal/repository"
	"github.com/d60-Lab/college-connect/internal/service"
	"github.com/d60-Lab/college-connect/internal/storage"
	"github.com/d60-Lab/college-connect/pkg/database"
	"github.com/d60-Lab/college-connect/pkg/logger"
)

// App 持有进程级依赖
type App struct {
	Config   *config.Config
	Store    repository.Store
	Repos    *repository.Repositories
	Blobs    *storage.Service
	Services *service.Services
	Registry *prometheus.Registry
	Metrics  *metrics.Collector
}

// OpenStore 按 store.driver 打开 KV 存储
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store.Driver {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
		}
		return repository.NewRedisStore(client, cfg.Store.Namespace), nil
	case "sql":
		db, err := database.InitDB(cfg)
		if err != nil {
			return nil, err
		}
		s := repository.NewSQLStore(db, cfg.Store.Namespace)
		if err := s.InitSchema(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("init kv schema: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// OpenBlobs 按 blob.driver 创建对象存储，并确保 bucket 存在
func OpenBlobs(ctx context.Context, cfg *config.Config) (*storage.Service, error) {
	var backend storage.Backend
	switch cfg.Blob.Driver {
	case "s3":
		b, err := storage.NewS3Backend(ctx, storage.S3Config{
			Endpoint:   cfg.Blob.S3Endpoint,
			Region:     cfg.Blob.S3Region,
			AccessKey:  cfg.Blob.S3AccessKey,
			SecretKey:  cfg.Blob.S3SecretKey,
			PresignTTL: cfg.Blob.S3PresignTTL,
		})
		if err != nil {
			return nil, err
		}
		backend = b
	case "local":
		backend = storage.NewLocalBackend(cfg.Blob.LocalDir)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Blob.Driver)
	}

	blobs := storage.NewService(backend, storage.Options{
		PublicBaseURL: cfg.Blob.PublicBaseURL,
		BucketPrefix:  cfg.Blob.BucketPrefix,
		Buckets: map[string]string{
			storage.BucketProfilePictures: cfg.Blob.ProfileBucket,
			storage.BucketCollegeIDs:      cfg.Blob.IDCardBucket,
			storage.BucketPostImages:      cfg.Blob.PostBucket,
		},
		MaxUploadBytes: cfg.Blob.MaxUploadBytes,
	})
	if err := blobs.EnsureBuckets(ctx); err != nil {
		return nil, fmt.Errorf("ensure buckets: %w", err)
	}
	return blobs, nil
}

// New 在已打开的 store 上组装服务
func New(ctx context.Context, cfg *config.Config, store repository.Store, clk clock.Clock) (*App, error) {
	blobs, err := OpenBlobs(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	repos := repository.NewRepositories(store)
	gw := identity.NewGateway(repos.Accounts, identity.Options{
		Secret:   []byte(cfg.JWT.Secret),
		TokenTTL: cfg.JWT.Expire,
		Clock:    clk,
	})
	svc := service.NewServices(cfg, service.Deps{
		Repos:    repos,
		Gateway:  gw,
		Uploader: blobs,
		Metrics:  collector,
		Clock:    clk,
	})

	logger.Info("app initialized",
		zap.String("store", cfg.Store.Driver),
		zap.String("blob", cfg.Blob.Driver),
		zap.String("namespace", cfg.Store.Namespace),
	)
	return &App{
		Config:   cfg,
		Store:    store,
		Repos:    repos,
		Blobs:    blobs,
		Services: svc,
		Registry: reg,
		Metrics:  collector,
	}, nil
}

func (a *App) Close() error { return a.Store.Close() }
