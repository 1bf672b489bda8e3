package job

import (
	"context"
	"sync"
	"time"

	"psst-builder-api/internal/application/plan"
	"psst-builder-api/internal/domain/entity"
	"psst-builder-api/internal/domain/repository"
)

type memJobs struct {
	mu     sync.Mutex
	jobs   map[string]entity.GenerationJob
	stages []entity.JobStage
	err    error
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: make(map[string]entity.GenerationJob)}
}

func (m *memJobs) Create(_ context.Context, job *entity.GenerationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *memJobs) GetByID(_ context.Context, id string) (*entity.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	j, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (m *memJobs) Update(_ context.Context, job *entity.GenerationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *memJobs) UpdateStage(_ context.Context, id string, stage entity.JobStage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, stage)
	j := m.jobs[id]
	j.Advance(stage)
	m.jobs[id] = j
	return nil
}

func (m *memJobs) List(_ context.Context, _ *repository.JobFilter, p repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]*entity.GenerationJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		items = append(items, &j)
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (m *memJobs) get(id string) entity.GenerationJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id]
}

type memInputs struct {
	mu      sync.Mutex
	inputs  map[string]*entity.CompanyInfo
	deleted []string
}

func newMemInputs() *memInputs {
	return &memInputs{inputs: make(map[string]*entity.CompanyInfo)}
}

func (m *memInputs) SaveInput(_ context.Context, jobID string, info *entity.CompanyInfo, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs[jobID] = info
	return nil
}

func (m *memInputs) LoadInput(_ context.Context, jobID string) (*entity.CompanyInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inputs[jobID], nil
}

func (m *memInputs) DeleteInput(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inputs, jobID)
	m.deleted = append(m.deleted, jobID)
	return nil
}

type memPlans struct {
	mu    sync.Mutex
	plans map[string]*entity.PlanRecord
	err   error
}

func (m *memPlans) Save(_ context.Context, p *entity.PlanRecord, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.plans == nil {
		m.plans = make(map[string]*entity.PlanRecord)
	}
	m.plans[p.ID] = p
	return nil
}

func (m *memPlans) Get(_ context.Context, id string) (*entity.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plans[id], nil
}

func (m *memPlans) GetImage(context.Context, string, int) (*entity.GeneratedImage, error) {
	return nil, nil
}

// passTx 直接执行，失败时不保留 fn 中的写入
type passTx struct {
	jobs *memJobs
}

func (t passTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.jobs.mu.Lock()
	snapshot := make(map[string]entity.GenerationJob, len(t.jobs.jobs))
	for k, v := range t.jobs.jobs {
		snapshot[k] = v
	}
	t.jobs.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.jobs.mu.Lock()
		t.jobs.jobs = snapshot
		t.jobs.mu.Unlock()
		return err
	}
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, jobID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, jobID)
	return nil
}

type fakeRunner struct {
	run func(ctx context.Context, info *entity.CompanyInfo, opts ...plan.RunOption) (*plan.Result, error)
}

func (r *fakeRunner) Run(ctx context.Context, info *entity.CompanyInfo, opts ...plan.RunOption) (*plan.Result, error) {
	return r.run(ctx, info, opts...)
}

func validInfo() *entity.CompanyInfo {
	return &entity.CompanyInfo{
		CompanyName:       "Acme",
		BusinessItem:      "IoT sensor",
		DevelopmentStatus: "MVP done",
		TargetAudience:    "SMEs",
		TeamInfo:          "2 engineers",
	}
}
