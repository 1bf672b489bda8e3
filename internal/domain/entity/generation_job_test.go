package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationJob_Lifecycle(t *testing.T) {
	job := NewGenerationJob("job-1", "Acme")
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, JobStageQueued, job.Stage)
	assert.False(t, job.Terminal())

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	assert.Equal(t, 10, job.Progress)
	require.NotNil(t, job.StartedAt)

	job.Advance(JobStageRendering)
	assert.Equal(t, 80, job.Progress)

	job.Complete("plan-1", []GeneratedImage{{Kind: ImageKindConcept}, {Kind: ImageKindUsage}})
	assert.True(t, job.Terminal())
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "plan-1", job.PlanID)
	assert.Equal(t, 2, job.ImageCount)
	assert.Equal(t, []string{"concept", "usage"}, []string(job.ImageKinds))
	assert.NotNil(t, job.CompletedAt)
}

func TestGenerationJob_FailAndRetry(t *testing.T) {
	job := NewGenerationJob("job-2", "Acme")
	job.Start()
	job.Fail("service", "503 unavailable", "retry_later")

	assert.True(t, job.Terminal())
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "retry_later", job.RecoveryAction)

	job.Retry()
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Zero(t, job.Progress)
	assert.Nil(t, job.StartedAt)
}

func TestGenerationJob_UpdateProgressClamps(t *testing.T) {
	job := &GenerationJob{}
	job.UpdateProgress(150)
	assert.Equal(t, 100, job.Progress)
	job.UpdateProgress(-5)
	assert.Equal(t, 0, job.Progress)

	assert.True(t, JobStatusRunning.Valid())
	assert.False(t, JobStatus("paused").Valid())
}
