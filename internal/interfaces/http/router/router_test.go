package router

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psst-builder-api/internal/application/credential"
	"psst-builder-api/internal/application/job"
	"psst-builder-api/internal/application/plan"
	"psst-builder-api/internal/config"
	"psst-builder-api/internal/domain/entity"
	"psst-builder-api/internal/domain/repository"
	"psst-builder-api/internal/interfaces/http/handler"
)

type stubRunner struct {
	res *plan.Result
	err error
}

func (r *stubRunner) Run(context.Context, *entity.CompanyInfo, ...plan.RunOption) (*plan.Result, error) {
	return r.res, r.err
}

type memPlans struct {
	mu    sync.Mutex
	plans map[string]*entity.PlanRecord
}

func (m *memPlans) Save(_ context.Context, p *entity.PlanRecord, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p
	return nil
}

func (m *memPlans) Get(_ context.Context, id string) (*entity.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plans[id], nil
}

func (m *memPlans) GetImage(_ context.Context, id string, pos int) (*entity.GeneratedImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.plans[id]
	if p == nil || pos >= len(p.Images) {
		return nil, nil
	}
	img := p.Images[pos]
	return &img, nil
}

func (m *memPlans) SaveInput(context.Context, string, *entity.CompanyInfo, time.Duration) error {
	return nil
}

func (m *memPlans) LoadInput(context.Context, string) (*entity.CompanyInfo, error) { return nil, nil }

func (m *memPlans) DeleteInput(context.Context, string) error { return nil }

type memJobs struct {
	mu   sync.Mutex
	jobs map[string]*entity.GenerationJob
}

func (m *memJobs) Create(_ context.Context, j *entity.GenerationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = j
	return nil
}

func (m *memJobs) GetByID(_ context.Context, id string) (*entity.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id], nil
}

func (m *memJobs) Update(ctx context.Context, j *entity.GenerationJob) error { return m.Create(ctx, j) }

func (m *memJobs) UpdateStage(context.Context, string, entity.JobStage) error { return nil }

func (m *memJobs) List(_ context.Context, f *repository.JobFilter, p repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*entity.GenerationJob
	for _, j := range m.jobs {
		if len(f.Statuses) == 0 || containsStatus(f.Statuses, j.Status) {
			items = append(items, j)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func containsStatus(list []entity.JobStatus, s entity.JobStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type directTx struct{}

func (directTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string) error { return nil }

type checker struct{ err error }

func (c checker) HealthCheck(context.Context) error { return c.err }

type testServer struct {
	engine   *gin.Engine
	runner   *stubRunner
	plans    *memPlans
	jobs     *memJobs
	resolver *credential.Resolver
}

func newTestServer(t *testing.T, deps map[string]handler.HealthChecker) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		runner: &stubRunner{},
		plans:  &memPlans{plans: make(map[string]*entity.PlanRecord)},
		jobs:   &memJobs{jobs: make(map[string]*entity.GenerationJob)},
	}
	ts.resolver = credential.NewResolver(credential.Options{}, nil,
		credential.NewFileStore(afero.NewMemMapFs(), "/credential.json"))

	cfg := &config.Config{}
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"

	limits := entity.AttachmentLimits{MaxCount: 2}
	svc := job.NewService(ts.jobs, ts.plans, directTx{}, nopPublisher{}, job.ServiceConfig{Limits: limits})

	r := New(cfg, Handlers{
		Health:     handler.NewHealthHandler("test", deps, ts.resolver.State()),
		Plan:       handler.NewPlanHandler(ts.runner, ts.plans, handler.PlanHandlerConfig{Limits: limits}),
		Job:        handler.NewJobHandler(svc, limits),
		Credential: handler.NewCredentialHandler(ts.resolver),
	}, nil, nil)
	ts.engine = r.Engine()
	return ts
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func validRequest() map[string]any {
	return map[string]any{
		"company_name":       "Acme",
		"business_item":      "IoT sensor",
		"development_status": "MVP done",
		"target_audience":    "SMEs",
		"team_info":          "2 engineers",
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		ErrorCode   string   `json:"error_code"`
		Details     string   `json:"details"`
		Suggestions []string `json:"suggestions"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestGeneratePlan_Success(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.runner.res = &plan.Result{
		Document: &entity.BusinessPlanDocument{Summary: &entity.SummarySection{Introduction: "스마트팜 솔루션"}},
		Images: []entity.GeneratedImage{
			{Index: 0, Kind: entity.ImageKindConcept, MIMEType: "image/png", Data: []byte("png-0")},
			{Index: 2, Kind: entity.ImageKindUsage, MIMEType: "image/jpeg", Data: []byte("jpg-2")},
		},
	}

	w := ts.do(http.MethodPost, "/api/v1/plans/generate", validRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		PlanID   string `json:"plan_id"`
		FileName string `json:"file_name"`
		Images   []struct {
			Index int    `json:"index"`
			Kind  string `json:"kind"`
			Label string `json:"label"`
			URL   string `json:"url"`
		} `json:"images"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "스마트팜_사업계획서.pdf", data.FileName)
	require.Len(t, data.Images, 2)
	assert.Equal(t, 2, data.Images[1].Index)
	assert.Equal(t, "활용예상도", data.Images[1].Label)
	assert.Equal(t, "/api/v1/plans/"+data.PlanID+"/images/1", data.Images[1].URL)

	img := ts.do(http.MethodGet, data.Images[1].URL, nil)
	require.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, "image/jpeg", img.Header().Get("Content-Type"))
	assert.Equal(t, "jpg-2", img.Body.String())

	got := ts.do(http.MethodGet, "/api/v1/plans/"+data.PlanID, nil)
	assert.Equal(t, http.StatusOK, got.Code)

	missing := ts.do(http.MethodGet, "/api/v1/plans/"+data.PlanID+"/images/9", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestGeneratePlan_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		status     int
		suggestion string
	}{
		{"auth", plan.NewAuthError(plan.ErrCredentialMissing), http.StatusUnauthorized, "reselect_credential"},
		{"malformed", plan.NewMalformedOutputError(errors.New("truncated")), http.StatusUnprocessableEntity, "reduce_input"},
		{"service", plan.NewServiceError(errors.New("503")), http.StatusBadGateway, "retry_later"},
		{"busy", plan.ErrCycleInProgress, http.StatusConflict, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			ts.runner.err = tc.err

			w := ts.do(http.MethodPost, "/api/v1/plans/generate", validRequest())
			assert.Equal(t, tc.status, w.Code)
			env := decode(t, w)
			if tc.suggestion != "" {
				assert.Equal(t, []string{tc.suggestion}, env.Error.Suggestions)
			}
			assert.Empty(t, ts.plans.plans)
		})
	}
}

func TestGeneratePlan_Validation(t *testing.T) {
	ts := newTestServer(t, nil)

	req := validRequest()
	req["team_info"] = "   "
	w := ts.do(http.MethodPost, "/api/v1/plans/generate", req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Error.Details, "team_info")

	req = validRequest()
	req["attachments"] = []map[string]string{{"data": "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("x"))}}
	w = ts.do(http.MethodPost, "/api/v1/plans/generate", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = validRequest()
	req["attachments"] = []map[string]string{{"data": "%%%", "mime_type": "image/png"}}
	w = ts.do(http.MethodPost, "/api/v1/plans/generate", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobs(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodPost, "/api/v1/plans/jobs", validRequest())
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Stage  string `json:"stage"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "queued", created.Stage)

	got := ts.do(http.MethodGet, "/api/v1/plans/jobs/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, got.Code)

	notFound := ts.do(http.MethodGet, "/api/v1/plans/jobs/00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, notFound.Code)

	list := ts.do(http.MethodGet, "/api/v1/plans/jobs?status=pending", nil)
	require.Equal(t, http.StatusOK, list.Code)
	var jobs struct {
		Jobs []json.RawMessage `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(decode(t, list).Data, &jobs))
	assert.Len(t, jobs.Jobs, 1)

	empty := ts.do(http.MethodGet, "/api/v1/plans/jobs?status=failed", nil)
	require.NoError(t, json.Unmarshal(decode(t, empty).Data, &jobs))
	assert.Empty(t, jobs.Jobs)

	bad := ts.do(http.MethodGet, "/api/v1/plans/jobs?status=cancelled", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestCredential(t *testing.T) {
	ts := newTestServer(t, nil)

	var status struct {
		Ready  bool   `json:"ready"`
		Source string `json:"source"`
	}
	w := ts.do(http.MethodGet, "/api/v1/credential", nil)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &status))
	assert.False(t, status.Ready)

	bad := ts.do(http.MethodPut, "/api/v1/credential", map[string]string{"api_key": "undefined"})
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	ok := ts.do(http.MethodPut, "/api/v1/credential", map[string]string{"api_key": "AIza-user-key"})
	assert.Equal(t, http.StatusNoContent, ok.Code)

	w = ts.do(http.MethodGet, "/api/v1/credential", nil)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &status))
	assert.True(t, status.Ready)
	assert.Equal(t, "user", status.Source)

	// 未配置宿主桥接
	sel := ts.do(http.MethodPost, "/api/v1/credential/select", nil)
	assert.Equal(t, http.StatusServiceUnavailable, sel.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, map[string]handler.HealthChecker{
		"postgres": checker{},
		"redis":    checker{},
	})
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/live", nil).Code)

	ready := ts.do(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.Contains(t, ready.Body.String(), `"credential":{"status":"degraded"`)

	down := newTestServer(t, map[string]handler.HealthChecker{"redis": checker{err: errors.New("refused")}})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(http.MethodGet, "/ready", nil).Code)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/metrics", nil).Code)
}
