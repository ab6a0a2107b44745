package service

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/d60-Lab/college-connect/pkg/logger"
)

// ReviewWorker 周期性审核已到期的认证申请
type ReviewWorker struct {
	verifications VerificationService
	clock         clock.Clock
	interval      time.Duration
	// swept 每轮结束后回调，测试用于同步
	swept func(approved int)
}

func NewReviewWorker(verifications VerificationService, clk clock.Clock, interval time.Duration) *ReviewWorker {
	if interval <= 0 {
		interval = time.Second
	}
	return &ReviewWorker{verifications: verifications, clock: clk, interval: interval}
}

// Start 立即执行一轮（处理重启前遗留的申请），之后按间隔轮询；返回停止函数。
func (w *ReviewWorker) Start() func(context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.loop(ctx)
	}()
	return func(stopCtx context.Context) error {
		cancel()
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-stopCtx.Done():
			return stopCtx.Err()
		}
	}
}

func (w *ReviewWorker) loop(ctx context.Context) {
	for {
		w.sweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-w.clock.After(w.interval):
		}
	}
}

func (w *ReviewWorker) sweepOnce(ctx context.Context) {
	n, err := w.verifications.Sweep(ctx)
	if err != nil && ctx.Err() == nil {
		logger.Warn("verification sweep failed", zap.Error(err))
	}
	if n > 0 {
		logger.Info("verifications auto-approved", zap.Int("count", n))
	}
	if w.swept != nil {
		w.swept(n)
	}
}
