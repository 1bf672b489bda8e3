package credential

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBridge struct {
	mu       sync.Mutex
	selected bool
	key      string
	err      error
	opened   int
}

func (b *fakeBridge) HasSelectedCredential(context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected, b.err
}

func (b *fakeBridge) OpenCredentialSelector(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened++
	return nil
}

func (b *fakeBridge) SelectedCredential(context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.key, b.err
}

func (b *fakeBridge) set(selected bool, key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selected, b.key = selected, key
}

func TestIsUsableKey(t *testing.T) {
	cases := map[string]bool{
		"":                false,
		"   ":             false,
		"undefined":       false,
		"abcde":           false,
		"abcdef":          true,
		"  AIzaSyExample": true,
	}
	for key, want := range cases {
		assert.Equal(t, want, IsUsableKey(key), "key %q", key)
	}
}

func TestResolver_ResolutionOrder(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, "/data/credential.json")
	require.NoError(t, store.Save(ctx, "user-key-123"))
	bridge := &fakeBridge{selected: true, key: "bridge-key-123"}

	t.Run("static wins", func(t *testing.T) {
		r := NewResolver(Options{StaticKey: "static-key-123"}, bridge, store)
		c, err := r.State().Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, SourceStatic, c.Source)
		assert.Equal(t, "static-key-123", c.Key)
	})

	t.Run("unusable static falls through to bridge", func(t *testing.T) {
		r := NewResolver(Options{StaticKey: "undefined"}, bridge, store)
		c, err := r.State().Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, SourceBridge, c.Source)
		assert.Equal(t, "bridge-key-123", c.Key)
	})

	t.Run("bridge without selection falls through to user store", func(t *testing.T) {
		r := NewResolver(Options{}, &fakeBridge{}, store)
		c, err := r.State().Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, SourceUser, c.Source)
		assert.True(t, r.State().Ready())
	})

	t.Run("nothing configured", func(t *testing.T) {
		r := NewResolver(Options{}, nil, NewFileStore(afero.NewMemMapFs(), "/x.json"))
		c, err := r.State().Refresh(ctx)
		require.NoError(t, err)
		assert.False(t, c.Present)
		assert.False(t, r.State().Ready())
	})
}

func TestResolver_ProbeErrorKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	bridge := &fakeBridge{selected: true, key: "bridge-key-123"}
	r := NewResolver(Options{}, bridge, nil)

	_, err := r.State().Refresh(ctx)
	require.NoError(t, err)
	require.True(t, r.State().Ready())

	bridge.mu.Lock()
	bridge.err = errors.New("host unreachable")
	bridge.mu.Unlock()

	_, err = r.State().Refresh(ctx)
	assert.Error(t, err)
	assert.True(t, r.State().Ready())
}

func TestResolver_RequestCredential_OptimisticAckThenReconcile(t *testing.T) {
	ctx := context.Background()
	bridge := &fakeBridge{}
	r := NewResolver(Options{PollInterval: 20 * time.Millisecond}, bridge, nil)

	require.NoError(t, r.RequestCredential(ctx))
	assert.Equal(t, 1, bridge.opened)

	snap := r.State().Snapshot()
	assert.True(t, snap.Present)
	assert.True(t, snap.Optimistic)

	// 宿主实际未选择凭证，对账后回退
	require.Eventually(t, func() bool {
		return !r.State().Ready()
	}, time.Second, 10*time.Millisecond)
}

func TestResolver_RequestCredential_ReconcileConfirms(t *testing.T) {
	ctx := context.Background()
	bridge := &fakeBridge{}
	r := NewResolver(Options{PollInterval: 20 * time.Millisecond}, bridge, nil)

	require.NoError(t, r.RequestCredential(ctx))
	bridge.set(true, "selected-key-123")

	require.Eventually(t, func() bool {
		s := r.State().Snapshot()
		return s.Present && !s.Optimistic && s.Key == "selected-key-123"
	}, time.Second, 10*time.Millisecond)
}

func TestResolver_RequestCredential_NoBridge(t *testing.T) {
	r := NewResolver(Options{}, nil, nil)
	assert.ErrorIs(t, r.RequestCredential(context.Background()), ErrBridgeUnavailable)
	assert.False(t, r.State().Ready())
}

func TestResolver_StoreUserCredential(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	r := NewResolver(Options{}, nil, NewFileStore(fs, ".psst/credential.json"))

	assert.ErrorIs(t, r.StoreUserCredential(ctx, "abc"), ErrInvalidKey)
	assert.False(t, r.State().Ready())

	require.NoError(t, r.StoreUserCredential(ctx, "  my-user-key  "))
	snap := r.State().Snapshot()
	assert.True(t, snap.Present)
	assert.Equal(t, SourceUser, snap.Source)
	assert.Equal(t, "my-user-key", snap.Key)

	exists, err := afero.Exists(fs, ".psst/credential.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestState_InvalidateRejectsSameKey(t *testing.T) {
	ctx := context.Background()
	bridge := &fakeBridge{selected: true, key: "bridge-key-123"}
	r := NewResolver(Options{}, bridge, nil)
	st := r.State()

	_, err := st.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, st.Ready())

	st.Invalidate("401 from service")
	assert.False(t, st.Ready())
	assert.Equal(t, "401 from service", st.LastRejection())

	// 宿主仍报告同一凭证，不应恢复
	_, err = st.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, st.Ready())

	// 换了凭证后恢复
	bridge.set(true, "bridge-key-456")
	_, err = st.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, st.Ready())
}

func TestResolver_Run_StopsOnCancel(t *testing.T) {
	bridge := &fakeBridge{}
	r := NewResolver(Options{PollInterval: 10 * time.Millisecond}, bridge, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	bridge.set(true, "late-key-123")
	require.Eventually(t, r.State().Ready, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestResolver_RejectedStaticKeyFallsBackToUserKey(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(Options{StaticKey: "static-key-123"}, nil,
		NewFileStore(afero.NewMemMapFs(), ".psst/credential.json"))
	st := r.State()

	_, err := st.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceStatic, st.Snapshot().Source)

	st.Invalidate("403 from service")
	require.False(t, st.Ready())

	require.NoError(t, r.StoreUserCredential(ctx, "user-key-456789"))
	snap := st.Snapshot()
	assert.True(t, snap.Present)
	assert.Equal(t, SourceUser, snap.Source)
	assert.Equal(t, "user-key-456789", snap.Key)

	// 静态凭证仍被跳过
	_, err = st.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceUser, st.Snapshot().Source)
}

func TestResolver_RejectedBridgeKeyFallsBackToStoredUserKey(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, ".psst/credential.json")
	require.NoError(t, store.Save(ctx, "user-key-456789"))

	bridge := &fakeBridge{selected: true, key: "bridge-key-123"}
	r := NewResolver(Options{}, bridge, store)
	st := r.State()

	_, err := st.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceBridge, st.Snapshot().Source)

	st.Invalidate("401 from service")
	_, err = st.Refresh(ctx)
	require.NoError(t, err)

	snap := st.Snapshot()
	assert.True(t, snap.Present)
	assert.Equal(t, SourceUser, snap.Source)
	assert.Equal(t, "user-key-456789", snap.Key)
}

func TestResolver_StoreUserCredentialClearsUserRejection(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(Options{}, nil, NewFileStore(afero.NewMemMapFs(), ".psst/credential.json"))
	st := r.State()

	require.NoError(t, r.StoreUserCredential(ctx, "user-key-456789"))
	st.Invalidate("401 from service")
	assert.True(t, st.IsRejected(SourceUser, "user-key-456789"))

	_, err := st.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, st.Ready())

	// 用户重新提交后重新尝试
	require.NoError(t, r.StoreUserCredential(ctx, "user-key-456789"))
	assert.True(t, st.Ready())
	assert.False(t, st.IsRejected(SourceUser, "user-key-456789"))
}

func TestResolver_RequestCredential_RefreshResolvesKeyImmediately(t *testing.T) {
	ctx := context.Background()
	bridge := &fakeBridge{selected: true, key: "selected-key-123"}
	r := NewResolver(Options{PollInterval: time.Hour}, bridge, nil)

	require.NoError(t, r.RequestCredential(ctx))
	snap := r.State().Snapshot()
	require.True(t, snap.Optimistic)
	assert.Empty(t, snap.Key)

	snap, err := r.State().Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Present)
	assert.False(t, snap.Optimistic)
	assert.Equal(t, "selected-key-123", snap.Key)
}
