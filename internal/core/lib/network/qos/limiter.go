package qos

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Clock 时间源，测试中可替换为虚拟时钟
type Clock interface {
	Now() time.Time
	// Sleep 阻塞 d 或直到 ctx 取消
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WindowLimiter 固定窗口限速器
// - 窗口内最多授予 maxRequests 次许可，超出则等待窗口重置
// - 任意两次许可之间至少间隔 window/maxRequests
// - 所有获取操作由一把可感知 context 的互斥锁串行化，等待期间持有该锁
//
// Acquire 永不拒绝，只会延迟；仅在 context 取消时返回错误。
type WindowLimiter struct {
	window      time.Duration
	maxRequests int
	spacing     time.Duration

	mu    *semaphore.Weighted // 容量为1，等价于可取消的互斥锁
	clock Clock

	windowStart      time.Time
	requestsInWindow int
	lastGrant        time.Time
	granted          uint64
}

// Option 限速器选项
type Option func(*WindowLimiter)

// WithClock 替换时间源
func WithClock(c Clock) Option {
	return func(l *WindowLimiter) {
		if c != nil {
			l.clock = c
		}
	}
}

// NewWindowLimiter 创建限速器
// window: 窗口长度
// maxRequests: 窗口内最大请求数
func NewWindowLimiter(window time.Duration, maxRequests int, opts ...Option) (*WindowLimiter, error) {
	if window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive: %v", window)
	}
	if maxRequests <= 0 {
		return nil, fmt.Errorf("rate limit max requests must be positive: %d", maxRequests)
	}

	l := &WindowLimiter{
		window:      window,
		maxRequests: maxRequests,
		spacing:     window / time.Duration(maxRequests),
		mu:          semaphore.NewWeighted(1),
		clock:       realClock{},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.windowStart = l.clock.Now()
	return l, nil
}

// Acquire 阻塞直到可以安全地发出下一次请求
func (l *WindowLimiter) Acquire(ctx context.Context) error {
	if err := l.mu.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.mu.Release(1)

	now := l.clock.Now()
	if now.Sub(l.windowStart) >= l.window {
		l.windowStart = now
		l.requestsInWindow = 0
	}

	// 窗口已满: 等待重置
	if l.requestsInWindow >= l.maxRequests {
		resetAt := l.windowStart.Add(l.window)
		if err := l.clock.Sleep(ctx, resetAt.Sub(now)); err != nil {
			return err
		}
		now = l.clock.Now()
		l.windowStart = now
		l.requestsInWindow = 0
	}

	// 最小间隔
	if !l.lastGrant.IsZero() {
		if wait := l.spacing - now.Sub(l.lastGrant); wait > 0 {
			if err := l.clock.Sleep(ctx, wait); err != nil {
				return err
			}
			now = l.clock.Now()
		}
	}

	l.requestsInWindow++
	l.lastGrant = now
	l.granted++
	return nil
}

// Window 窗口长度
func (l *WindowLimiter) Window() time.Duration { return l.window }

// MaxRequests 窗口内最大请求数
func (l *WindowLimiter) MaxRequests() int { return l.maxRequests }

// Spacing 两次许可之间的最小间隔
func (l *WindowLimiter) Spacing() time.Duration { return l.spacing }

// Granted 累计授予的许可数
func (l *WindowLimiter) Granted() uint64 {
	if err := l.mu.Acquire(context.Background(), 1); err != nil {
		return 0
	}
	defer l.mu.Release(1)
	return l.granted
}

// LimitFunc 根据键返回限速参数
type LimitFunc func(key string) (window time.Duration, maxRequests int)

// Registry 按外部站点(或采集器类型)分发限速器，同一键共享同一实例
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*WindowLimiter
	limitFor LimitFunc
	opts     []Option
}

// NewRegistry 创建限速器注册表
func NewRegistry(limitFor LimitFunc, opts ...Option) *Registry {
	return &Registry{
		limiters: make(map[string]*WindowLimiter),
		limitFor: limitFor,
		opts:     opts,
	}
}

// Get 获取(必要时创建)键对应的限速器
func (r *Registry) Get(key string) (*WindowLimiter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[key]; ok {
		return l, nil
	}

	window, max := r.limitFor(key)
	l, err := NewWindowLimiter(window, max, r.opts...)
	if err != nil {
		return nil, fmt.Errorf("limiter for %s: %w", key, err)
	}
	r.limiters[key] = l
	return l, nil
}
