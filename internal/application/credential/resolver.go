package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"psst-builder-api/pkg/logger"
)

// ErrBridgeUnavailable 未配置宿主凭证桥接
var ErrBridgeUnavailable = errors.New("credential bridge not configured")

// Bridge 宿主环境提供的凭证选择能力
type Bridge interface {
	HasSelectedCredential(ctx context.Context) (bool, error)
	OpenCredentialSelector(ctx context.Context) error
	// SelectedCredential 返回宿主当前选中的凭证值
	SelectedCredential(ctx context.Context) (string, error)
}

// Options 解析器配置
type Options struct {
	StaticKey    string
	PollInterval time.Duration
}

// Resolver 按 静态配置 -> 宿主桥接 -> 本地用户输入 的顺序解析凭证
type Resolver struct {
	staticKey    string
	bridge       Bridge
	store        Store
	pollInterval time.Duration

	state *State
}

// NewResolver 创建解析器；bridge 与 store 均可为 nil
func NewResolver(opts Options, bridge Bridge, store Store) *Resolver {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	r := &Resolver{
		staticKey:    strings.TrimSpace(opts.StaticKey),
		bridge:       bridge,
		store:        store,
		pollInterval: opts.PollInterval,
	}
	r.state = NewState(r)
	return r
}

// State 返回解析器维护的凭证状态
func (r *Resolver) State() *State {
	return r.state
}

// Probe 实现 Prober。已被服务端拒绝的候选凭证跳过，继续尝试下一来源。
func (r *Resolver) Probe(ctx context.Context) (Credential, error) {
	if IsUsableKey(r.staticKey) && !r.state.IsRejected(SourceStatic, r.staticKey) {
		return Credential{Present: true, Source: SourceStatic, Key: r.staticKey}, nil
	}

	var errs []error
	if r.bridge != nil {
		c, err := r.probeBridge(ctx)
		if err != nil {
			errs = append(errs, err)
		} else if c.Present {
			return c, nil
		}
	}

	if r.store != nil {
		key, err := r.store.Load(ctx)
		if err != nil {
			errs = append(errs, err)
		} else if key = strings.TrimSpace(key); IsUsableKey(key) && !r.state.IsRejected(SourceUser, key) {
			return Credential{Present: true, Source: SourceUser, Key: key}, nil
		}
	}

	// 所有来源都出错时才视为探测失败
	if len(errs) > 0 && len(errs) == r.sourceCount() {
		return Credential{}, errors.Join(errs...)
	}
	return Credential{}, nil
}

func (r *Resolver) probeBridge(ctx context.Context) (Credential, error) {
	selected, err := r.bridge.HasSelectedCredential(ctx)
	if err != nil {
		return Credential{}, fmt.Errorf("bridge: %w", err)
	}
	if !selected {
		return Credential{}, nil
	}
	key, err := r.bridge.SelectedCredential(ctx)
	if err != nil {
		return Credential{}, fmt.Errorf("bridge: %w", err)
	}
	key = strings.TrimSpace(key)
	if !IsUsableKey(key) || r.state.IsRejected(SourceBridge, key) {
		return Credential{}, nil
	}
	return Credential{Present: true, Source: SourceBridge, Key: key}, nil
}

func (r *Resolver) sourceCount() int {
	n := 0
	if r.bridge != nil {
		n++
	}
	if r.store != nil {
		n++
	}
	return n
}

// RequestCredential 打开宿主凭证选择器并乐观确认。
// 选择结果异步产生，这里先标记为可用，一个轮询周期后再以宿主报告为准校正。
func (r *Resolver) RequestCredential(ctx context.Context) error {
	if r.bridge == nil {
		return ErrBridgeUnavailable
	}
	if err := r.bridge.OpenCredentialSelector(ctx); err != nil {
		return fmt.Errorf("open credential selector: %w", err)
	}

	r.state.Acknowledge()
	logger.Info(ctx, "credential selection requested, optimistic ack applied")

	time.AfterFunc(r.pollInterval, func() {
		rctx, cancel := context.WithTimeout(context.Background(), r.pollInterval)
		defer cancel()
		c, err := r.state.Refresh(rctx)
		if err == nil && !c.Present {
			logger.Warn(rctx, "optimistic credential ack reverted by reconciliation")
		}
	})
	return nil
}

// StoreUserCredential 校验并保存用户输入的凭证，然后刷新状态
func (r *Resolver) StoreUserCredential(ctx context.Context, key string) error {
	if !IsUsableKey(key) {
		return ErrInvalidKey
	}
	if r.store == nil {
		return errors.New("credential store not configured")
	}
	if err := r.store.Save(ctx, strings.TrimSpace(key)); err != nil {
		return err
	}
	// 用户重新输入即视为新的凭证，之前对该来源的拒绝不再适用
	r.state.ClearRejections(SourceUser)
	_, err := r.state.Refresh(ctx)
	return err
}

// Run 周期性重新评估凭证，直到 ctx 结束
func (r *Resolver) Run(ctx context.Context) {
	_, _ = r.state.Refresh(ctx)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = r.state.Refresh(ctx)
		}
	}
}
