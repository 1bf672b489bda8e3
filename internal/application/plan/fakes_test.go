package plan

import (
	"context"
	"sync"
	"sync/atomic"

	"psst-builder-api/internal/application/credential"
	"psst-builder-api/internal/domain/entity"
	"psst-builder-api/internal/workflow/port"
)

type fakeTextModel struct {
	mu    sync.Mutex
	calls int
	last  *port.TextRequest
	key   string

	respond func(ctx context.Context, req *port.TextRequest) (*port.TextResponse, error)
}

func (m *fakeTextModel) GenerateText(ctx context.Context, req *port.TextRequest) (*port.TextResponse, error) {
	m.mu.Lock()
	m.calls++
	m.last = req
	m.key, _ = port.APIKeyFromContext(ctx)
	m.mu.Unlock()
	return m.respond(ctx, req)
}

func (m *fakeTextModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func textReply(text string) func(context.Context, *port.TextRequest) (*port.TextResponse, error) {
	return func(context.Context, *port.TextRequest) (*port.TextResponse, error) {
		return &port.TextResponse{Text: text, Model: "test-model"}, nil
	}
}

func textFailure(err error) func(context.Context, *port.TextRequest) (*port.TextResponse, error) {
	return func(context.Context, *port.TextRequest) (*port.TextResponse, error) {
		return nil, err
	}
}

type fakeImageModel struct {
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	calls       atomic.Int32

	mu   sync.Mutex
	refs [][]port.InlineData

	respond func(ctx context.Context, req *port.ImageRequest) ([]port.InlineData, error)
}

func (m *fakeImageModel) GenerateImage(ctx context.Context, req *port.ImageRequest) ([]port.InlineData, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		cur := m.maxInFlight.Load()
		if n <= cur || m.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	m.mu.Lock()
	m.refs = append(m.refs, req.References)
	m.mu.Unlock()

	return m.respond(ctx, req)
}

type fakeCredentialState struct {
	mu          sync.Mutex
	snap        credential.Credential
	invalidated []string
	refreshes   int

	// refreshed 不为 nil 时 Refresh 以它替换当前快照
	refreshed *credential.Credential
}

func readyCredential() *fakeCredentialState {
	return &fakeCredentialState{snap: credential.Credential{Present: true, Source: credential.SourceStatic, Key: "test-key-123"}}
}

func (s *fakeCredentialState) Snapshot() credential.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *fakeCredentialState) Refresh(context.Context) (credential.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	if s.refreshed != nil {
		s.snap = *s.refreshed
	}
	return s.snap, nil
}

func (s *fakeCredentialState) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

func (s *fakeCredentialState) Invalidate(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, reason)
	s.snap = credential.Credential{}
}

func (s *fakeCredentialState) Invalidations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invalidated)
}

type fakeDocs struct {
	calls atomic.Int32
	gen   func(ctx context.Context, p PromptPayload) (*entity.BusinessPlanDocument, error)
}

func (d *fakeDocs) Generate(ctx context.Context, p PromptPayload) (*entity.BusinessPlanDocument, error) {
	d.calls.Add(1)
	return d.gen(ctx, p)
}

type fakeImages struct {
	calls atomic.Int32
	gen   func(ctx context.Context, prompts []string) []entity.GeneratedImage
}

func (f *fakeImages) GenerateAll(ctx context.Context, prompts []string, _ []port.InlineData) []entity.GeneratedImage {
	f.calls.Add(1)
	return f.gen(ctx, prompts)
}
