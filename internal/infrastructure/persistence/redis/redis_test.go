package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psst-builder-api/internal/domain/entity"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func samplePlan() *entity.PlanRecord {
	doc := &entity.BusinessPlanDocument{Summary: &entity.SummarySection{Introduction: "Acme 센서"}}
	return entity.NewPlanRecord("plan-1", doc, []entity.GeneratedImage{
		{Index: 0, Kind: entity.ImageKindConcept, MIMEType: "image/png", Data: []byte("img0")},
		{Index: 2, Kind: entity.ImageKindUsage, MIMEType: "image/jpeg", Data: []byte("img2")},
	})
}

func TestPlanStore_SaveAndGet(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewPlanStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, samplePlan(), time.Hour))

	got, err := store.Get(ctx, "plan-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme_사업계획서.pdf", got.FileName)
	require.Len(t, got.Images, 2)
	assert.Nil(t, got.Images[0].Data, "metadata only")
	assert.Equal(t, entity.ImageKindUsage, got.Images[1].Kind)

	img, err := store.GetImage(ctx, "plan-1", 1)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, []byte("img2"), img.Data)
	assert.Equal(t, "image/jpeg", img.MIMEType)

	img, err = store.GetImage(ctx, "plan-1", 5)
	require.NoError(t, err)
	assert.Nil(t, img)

	assert.Equal(t, time.Hour, mr.TTL(planKey("plan-1")))
	assert.Equal(t, time.Hour, mr.TTL(planImagesKey("plan-1")))
}

func TestPlanStore_Expired(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewPlanStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, samplePlan(), time.Minute))
	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "plan-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	img, err := store.GetImage(ctx, "plan-1", 0)
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestPlanStore_JobInput(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewPlanStore(client)
	ctx := context.Background()

	info := &entity.CompanyInfo{
		CompanyName: "Acme",
		Attachments: []entity.Attachment{{Data: []byte{0x89, 0x50}, MIMEType: "image/png"}},
	}
	require.NoError(t, store.SaveInput(ctx, "job-1", info, 0))

	got, err := store.LoadInput(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, info, got)

	require.NoError(t, store.DeleteInput(ctx, "job-1"))
	got, err = store.LoadInput(ctx, "job-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRateLimiter_Allow(t *testing.T) {
	client, _ := newTestClient(t)
	rl := NewRateLimiter(client)
	ctx := context.Background()
	key := BuildRateLimitKey("127.0.0.1", "plans")

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	remaining, err := rl.Remaining(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestRateLimiter_ConcurrentCallersShareLimit(t *testing.T) {
	client, mr := newTestClient(t)
	rl := NewRateLimiter(client)
	key := BuildRateLimitKey("10.0.0.1", "plans")

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := rl.Allow(context.Background(), key, 5, time.Minute)
			if err == nil && ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 5, allowed.Load())
	members, err := mr.ZMembers(key)
	require.NoError(t, err)
	assert.Len(t, members, 5)
	assert.Greater(t, mr.TTL(key), time.Minute)
}

func TestClient_HealthCheck(t *testing.T) {
	client, mr := newTestClient(t)
	require.NoError(t, client.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, client.HealthCheck(context.Background()))
}
