package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"psst-builder-api/internal/domain/entity"
)

const defaultPlanTTL = 24 * time.Hour

func planKey(id string) string       { return "psst:plan:" + id }
func planImagesKey(id string) string { return "psst:plan:" + id + ":images" }
func jobInputKey(id string) string   { return "psst:job:" + id + ":input" }

// PlanStore 计划书结果存储：文档与图片元数据存为 JSON，图片数据存入 hash
type PlanStore struct {
	client *Client
	group  singleflight.Group
}

// NewPlanStore 创建计划书存储
func NewPlanStore(client *Client) *PlanStore {
	return &PlanStore{client: client}
}

// Save 保存计划书，文档与图片使用相同的过期时间
func (s *PlanStore) Save(ctx context.Context, plan *entity.PlanRecord, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "plan.Save",
		trace.WithAttributes(
			attribute.String("plan.id", plan.ID),
			attribute.Int("plan.images", len(plan.Images)),
		))
	defer span.End()

	if ttl <= 0 {
		ttl = defaultPlanTTL
	}

	meta := *plan
	meta.Images = make([]entity.GeneratedImage, len(plan.Images))
	for i, img := range plan.Images {
		img.Data = nil
		meta.Images[i] = img
	}
	body, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	_, err = s.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, planKey(plan.ID), body, ttl)
		if len(plan.Images) > 0 {
			fields := make(map[string]any, len(plan.Images))
			for i, img := range plan.Images {
				fields[strconv.Itoa(i)] = img.Data
			}
			pipe.HSet(ctx, planImagesKey(plan.ID), fields)
			pipe.Expire(ctx, planImagesKey(plan.ID), ttl)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// Get 获取计划书（不含图片数据），合并同一计划的并发读取
func (s *PlanStore) Get(ctx context.Context, planID string) (*entity.PlanRecord, error) {
	v, err, _ := s.group.Do(planKey(planID), func() (any, error) {
		return s.load(ctx, planID)
	})
	if err != nil {
		return nil, err
	}
	plan, _ := v.(*entity.PlanRecord)
	if plan == nil {
		return nil, nil
	}
	// 共享结果，返回副本
	cp := *plan
	cp.Images = append([]entity.GeneratedImage(nil), plan.Images...)
	return &cp, nil
}

func (s *PlanStore) load(ctx context.Context, planID string) (*entity.PlanRecord, error) {
	ctx, span := tracer.Start(ctx, "plan.Get",
		trace.WithAttributes(attribute.String("plan.id", planID)))
	defer span.End()

	body, err := s.client.rdb.Get(ctx, planKey(planID)).Bytes()
	if err != nil {
		if IsNil(err) {
			span.SetAttributes(attribute.Bool("plan.found", false))
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	var plan entity.PlanRecord
	if err := json.Unmarshal(body, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	span.SetAttributes(attribute.Bool("plan.found", true))
	return &plan, nil
}

// GetImage 按位置获取图片，位置越界或已过期时返回 nil, nil
func (s *PlanStore) GetImage(ctx context.Context, planID string, position int) (*entity.GeneratedImage, error) {
	plan, err := s.Get(ctx, planID)
	if err != nil || plan == nil {
		return nil, err
	}
	if position < 0 || position >= len(plan.Images) {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "plan.GetImage",
		trace.WithAttributes(attribute.String("plan.id", planID), attribute.Int("image.position", position)))
	defer span.End()

	data, err := s.client.rdb.HGet(ctx, planImagesKey(planID), strconv.Itoa(position)).Bytes()
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	img := plan.Images[position]
	img.Data = data
	return &img, nil
}

// SaveInput 暂存异步任务的输入
func (s *PlanStore) SaveInput(ctx context.Context, jobID string, info *entity.CompanyInfo, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultPlanTTL
	}
	body, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal job input: %w", err)
	}
	if err := s.client.rdb.Set(ctx, jobInputKey(jobID), body, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save job input: %w", err)
	}
	return nil
}

// LoadInput 读取异步任务输入，不存在时返回 nil, nil
func (s *PlanStore) LoadInput(ctx context.Context, jobID string) (*entity.CompanyInfo, error) {
	body, err := s.client.rdb.Get(ctx, jobInputKey(jobID)).Bytes()
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load job input: %w", err)
	}
	var info entity.CompanyInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job input: %w", err)
	}
	return &info, nil
}

// DeleteInput 删除异步任务输入
func (s *PlanStore) DeleteInput(ctx context.Context, jobID string) error {
	return s.client.rdb.Del(ctx, jobInputKey(jobID)).Err()
}
