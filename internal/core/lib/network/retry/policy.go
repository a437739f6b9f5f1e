// Package retry 提供可复用的线性退避重试组合子
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelayUnit   = 2 * time.Second
)

// Policy 重试策略
// 第 n 次失败后等待 n*DelayUnit，最多尝试 MaxAttempts 次，返回最后一次的错误。
// 所有错误一视同仁地重试。
type Policy struct {
	MaxAttempts int
	DelayUnit   time.Duration
	// OnRetry 每次失败后、等待前回调(可选)
	OnRetry func(attempt int, err error, next time.Duration)
}

// NewPolicy 创建重试策略，非法参数回落到默认值
func NewPolicy(maxAttempts int, delayUnit time.Duration) *Policy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if delayUnit < 0 {
		delayUnit = DefaultDelayUnit
	}
	return &Policy{MaxAttempts: maxAttempts, DelayUnit: delayUnit}
}

// linearBackOff 第 n 次调用返回 n*unit
type linearBackOff struct {
	unit    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.unit
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// Do 执行 op 直到成功或尝试次数耗尽
// ctx 取消时停止等待并返回 ctx 的错误
func (p *Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 1 {
		// WithMaxRetries(0) 表示不限次数，单次尝试直接执行
		if err := ctx.Err(); err != nil {
			return err
		}
		return op(ctx)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{unit: p.DelayUnit}, uint64(maxAttempts-1)),
		ctx,
	)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempt++
		return op(ctx)
	}, b, func(err error, next time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, next)
		}
	})

	if err != nil && attempt < maxAttempts && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// DoValue 带返回值的 Do
func DoValue[T any](ctx context.Context, p *Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
