// Package credential 管理生成服务 API 凭证的可用状态
package credential

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"psst-builder-api/pkg/logger"
	"psst-builder-api/pkg/metrics"
)

// Source 凭证来源
type Source string

const (
	SourceNone   Source = ""
	SourceStatic Source = "static"
	SourceBridge Source = "bridge"
	SourceUser   Source = "user"
)

// Credential 某一时刻的凭证快照
type Credential struct {
	Present bool
	Source  Source
	Key     string

	// Optimistic 由 Acknowledge 乐观标记，尚未经过对账
	Optimistic bool
	CheckedAt  time.Time
}

// Prober 按解析顺序探测当前凭证
type Prober interface {
	Probe(ctx context.Context) (Credential, error)
}

type rejectionKey struct {
	source Source
	key    string
}

// State 进程内凭证状态，读多写少
type State struct {
	mu         sync.RWMutex
	cur        Credential
	rejected   map[rejectionKey]string
	lastReason string

	prober Prober
	sf     singleflight.Group
}

// NewState 创建凭证状态，prober 为 nil 时 Refresh 不做任何事
func NewState(prober Prober) *State {
	metrics.CredentialReady.Set(0)
	return &State{prober: prober, rejected: make(map[rejectionKey]string)}
}

// Ready 当前是否有可用凭证
func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Present
}

// Snapshot 返回当前凭证的副本
func (s *State) Snapshot() Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// LastRejection 最近一次失效原因
func (s *State) LastRejection() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReason
}

// IsRejected 该来源的这个凭证是否已被服务端拒绝
func (s *State) IsRejected(source Source, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rejected[rejectionKey{source: source, key: key}]
	return ok
}

// ClearRejections 清除某一来源的拒绝记录，来源的凭证被替换后调用
func (s *State) ClearRejections(source Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.rejected {
		if k.source == source {
			delete(s.rejected, k)
		}
	}
}

// Refresh 重新探测凭证；并发调用合并为一次
func (s *State) Refresh(ctx context.Context) (Credential, error) {
	if s.prober == nil {
		return s.Snapshot(), nil
	}

	v, err, _ := s.sf.Do("refresh", func() (any, error) {
		c, err := s.prober.Probe(ctx)
		if err != nil {
			return nil, err
		}
		c.CheckedAt = time.Now()
		return s.apply(ctx, c), nil
	})
	if err != nil {
		logger.Warn(ctx, "credential probe failed, keeping previous state", "error", err.Error())
		return s.Snapshot(), err
	}
	return v.(Credential), nil
}

func (s *State) apply(ctx context.Context, c Credential) Credential {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 已被服务端拒绝的同一凭证不再视为可用
	if _, ok := s.rejected[rejectionKey{source: c.Source, key: c.Key}]; c.Present && ok {
		c = Credential{CheckedAt: c.CheckedAt}
	}

	if s.cur.Present != c.Present || s.cur.Source != c.Source {
		logger.Info(ctx, "credential state changed",
			"ready", c.Present,
			"source", string(c.Source),
			"previous_source", string(s.cur.Source),
		)
	}
	s.cur = c
	setGauge(c.Present)
	return c
}

// Invalidate 生成服务报告凭证无效时调用
func (s *State) Invalidate(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur.Present && s.cur.Key != "" {
		s.rejected[rejectionKey{source: s.cur.Source, key: s.cur.Key}] = reason
	}
	s.lastReason = reason
	s.cur = Credential{CheckedAt: time.Now()}
	setGauge(false)
}

// Acknowledge 乐观确认：宿主凭证选择流程已发起，结果未知时先视为可用。
// 之后的 Refresh 会以宿主实际报告为准进行校正。乐观状态不含凭证值，
// 使用方在需要凭证值时先 Refresh。
func (s *State) Acknowledge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.rejected {
		if k.source == SourceBridge {
			delete(s.rejected, k)
		}
	}
	s.cur = Credential{
		Present:    true,
		Source:     SourceBridge,
		Optimistic: true,
		CheckedAt:  time.Now(),
	}
	setGauge(true)
}

func setGauge(ready bool) {
	if ready {
		metrics.CredentialReady.Set(1)
		return
	}
	metrics.CredentialReady.Set(0)
}
