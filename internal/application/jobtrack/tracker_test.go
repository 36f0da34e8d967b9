package jobtrack

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"dtf-editor-api/internal/application/processing"
	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/repository"
	apperrors "dtf-editor-api/pkg/errors"
)

// 直通缓存：每次都执行 loader，序列化行为与 Redis 缓存一致
type passthroughCache struct{}

func (passthroughCache) GetOrLoadSafe(_ context.Context, _ string, _ time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	v, err := loader()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func (passthroughCache) InvalidateJob(context.Context, string) error { return nil }

type recordingFinalizer struct {
	mu     sync.Mutex
	jobIDs []string
}

func (f *recordingFinalizer) Finalize(_ context.Context, jobID string) (*processing.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobIDs = append(f.jobIDs, jobID)
	return nil, nil
}

func (f *recordingFinalizer) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.jobIDs...)
}

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*entity.ProcessingJob
}

func newFakeJobRepo(jobs ...*entity.ProcessingJob) *fakeJobRepo {
	r := &fakeJobRepo{jobs: make(map[string]*entity.ProcessingJob)}
	for _, job := range jobs {
		copied := *job
		r.jobs[job.ID] = &copied
	}
	return r
}

func (r *fakeJobRepo) Create(_ context.Context, job *entity.ProcessingJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *fakeJobRepo) GetByID(_ context.Context, id string) (*entity.ProcessingJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (r *fakeJobRepo) Update(_ context.Context, job *entity.ProcessingJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *fakeJobRepo) ListByAccount(_ context.Context, accountID string, _ *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.ProcessingJob], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*entity.ProcessingJob
	for _, job := range r.jobs {
		if job.AccountID == accountID {
			copied := *job
			items = append(items, &copied)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), pagination), nil
}

func (r *fakeJobRepo) MarkProcessing(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Start()
	}
	return nil
}

func (r *fakeJobRepo) UpdateProgress(_ context.Context, id string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.UpdateProgress(progress)
	}
	return nil
}

func (r *fakeJobRepo) SetResult(_ context.Context, id string, result []byte, resultURL string, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		if errMsg != "" {
			job.Fail(errMsg)
		} else {
			job.Complete(result, resultURL)
		}
	}
	return nil
}

func (r *fakeJobRepo) CancelIfActive(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return false, nil
	}
	return job.Cancel(), nil
}

func (r *fakeJobRepo) MarkFinalized(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Finalized {
		return false, nil
	}
	job.Finalized = true
	return true, nil
}

func (r *fakeJobRepo) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, job := range r.jobs {
		if job.Status.IsTerminal() && job.Finalized && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeJobRepo) CountActive(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, job := range r.jobs {
		if !job.Status.IsTerminal() {
			n++
		}
	}
	return n, nil
}

func (r *fakeJobRepo) GetJobStats(context.Context, string) (*repository.JobStats, error) {
	return &repository.JobStats{}, nil
}

func newTestTracker(repo *fakeJobRepo, finalizer Finalizer) *Tracker {
	cfg := &config.ProcessingConfig{
		Retention: config.RetentionConfig{
			JobTTL:         time.Hour,
			SweepInterval:  time.Minute,
			StatusCacheTTL: 2 * time.Second,
		},
	}
	return NewTracker(repo, passthroughCache{}, cfg, finalizer)
}

func activeJob(id string) *entity.ProcessingJob {
	job := entity.NewProcessingJob("acc-1", entity.OperationUpscale, entity.ProviderDeepImage, 1, nil)
	job.ID = id
	job.Start()
	return job
}

func TestStatusReturnsSnapshot(t *testing.T) {
	job := activeJob("job-1")
	job.UpdateProgress(40)
	tracker := newTestTracker(newFakeJobRepo(job), &recordingFinalizer{})

	status, err := tracker.Status(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Status != entity.JobStatusProcessing {
		t.Errorf("Status = %q, want processing", status.Status)
	}
	if status.Progress != 40 {
		t.Errorf("Progress = %d, want 40", status.Progress)
	}
	if status.CreditsCharged != 1 {
		t.Errorf("CreditsCharged = %d, want 1", status.CreditsCharged)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	tracker := newTestTracker(newFakeJobRepo(), &recordingFinalizer{})

	_, err := tracker.Status(context.Background(), "ghost")
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeJobNotFound {
		t.Fatalf("error code = %v, want %v", appErr.Code, apperrors.CodeJobNotFound)
	}
}

func TestCancelActiveJob(t *testing.T) {
	tracker := newTestTracker(newFakeJobRepo(activeJob("job-1")), &recordingFinalizer{})

	status, err := tracker.Cancel(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if status.Status != entity.JobStatusCancelled {
		t.Errorf("Status = %q, want cancelled", status.Status)
	}
}

func TestCancelTerminalJobKeepsState(t *testing.T) {
	job := activeJob("job-1")
	job.Complete(nil, "https://cdn.example.com/out.png")
	tracker := newTestTracker(newFakeJobRepo(job), &recordingFinalizer{})

	// 取消是建议性的：已完成任务保持完成态
	status, err := tracker.Cancel(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if status.Status != entity.JobStatusCompleted {
		t.Errorf("Status = %q, completed state must survive cancel", status.Status)
	}
}

func TestAwaitReturnsTerminalImmediately(t *testing.T) {
	job := activeJob("job-1")
	job.Complete(nil, "https://cdn.example.com/out.png")
	tracker := newTestTracker(newFakeJobRepo(job), &recordingFinalizer{})

	status, err := tracker.Await(context.Background(), "job-1", time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if status.Status != entity.JobStatusCompleted {
		t.Errorf("Status = %q, want completed", status.Status)
	}
	if status.ResultURL != "https://cdn.example.com/out.png" {
		t.Errorf("ResultURL = %q", status.ResultURL)
	}
}

func TestAwaitTimeoutCancelsAndSettles(t *testing.T) {
	repo := newFakeJobRepo(activeJob("job-slow"))
	finalizer := &recordingFinalizer{}
	tracker := newTestTracker(repo, finalizer)

	_, err := tracker.Await(context.Background(), "job-slow", time.Millisecond, 0)
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeJobTimeout {
		t.Fatalf("error code = %v, want %v", appErr.Code, apperrors.CodeJobTimeout)
	}

	// 超时必须顺带取消任务
	job, _ := repo.GetByID(context.Background(), "job-slow")
	if job.Status != entity.JobStatusCancelled {
		t.Errorf("job status = %q, want cancelled after timeout", job.Status)
	}

	// 且立即触发结算：此时消息可能已死信，没有别的路径会退款
	if calls := finalizer.calls(); len(calls) != 1 || calls[0] != "job-slow" {
		t.Errorf("finalize calls = %v, want exactly [job-slow]", calls)
	}

	// 共享错误实例不得被单次请求的细节污染
	if apperrors.ErrJobTimeout.Detail != "" {
		t.Errorf("shared ErrJobTimeout Detail = %q, want empty", apperrors.ErrJobTimeout.Detail)
	}
}

func TestAwaitRespectsContext(t *testing.T) {
	tracker := newTestTracker(newFakeJobRepo(activeJob("job-1")), &recordingFinalizer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tracker.Await(ctx, "job-1", 10*time.Millisecond, time.Minute)
	if err == nil {
		t.Fatal("Await() expected error on cancelled context")
	}
}
