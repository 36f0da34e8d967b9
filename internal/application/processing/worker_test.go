package processing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/service"
	"dtf-editor-api/internal/infrastructure/messaging"
)

type noopJobCache struct{}

func (noopJobCache) InvalidateJob(context.Context, string) error { return nil }

func newTestWorker(f *orchestratorFixture, provider service.Provider) *Worker {
	return NewWorker(f.jobs, &stubRegistry{provider: provider}, f.orchestrator, noopJobCache{}, time.Millisecond, 2)
}

func jobMessage(t *testing.T, jobID string) *messaging.Message {
	t.Helper()
	payload, err := json.Marshal(&messaging.ImageJobMessage{
		JobID:     jobID,
		AccountID: "acc-1",
		Operation: string(entity.OperationUpscale),
		Provider:  string(entity.ProviderDeepImage),
	})
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	return &messaging.Message{ID: "msg-1", Type: messaging.MsgTypeImageProcess, JobID: jobID, Payload: payload}
}

func TestHandleDeadLetterFailsAndRefundsChargedJob(t *testing.T) {
	f := newOrchestratorFixture(t, 9, succeedingProvider(entity.ProviderDeepImage, "x"))
	w := newTestWorker(f, succeedingProvider(entity.ProviderDeepImage, "x"))

	// 已扣 1 积分、卡在 processing 的任务，其消息重试耗尽进了死信队列
	job := entity.NewProcessingJob("acc-1", entity.OperationUpscale, entity.ProviderDeepImage, 1, nil)
	job.ID = "job-dlq"
	job.Start()
	if err := f.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	w.HandleDeadLetter(context.Background(), jobMessage(t, "job-dlq"))

	stored, _ := f.jobs.GetByID(context.Background(), "job-dlq")
	if stored.Status != entity.JobStatusFailed {
		t.Errorf("status = %q, want failed", stored.Status)
	}
	if !stored.Finalized {
		t.Error("dead-lettered job must be finalized")
	}
	if got := f.accounts.remaining("acc-1"); got != 10 {
		t.Errorf("remaining credits = %d, want 10 after refund", got)
	}

	entries := f.costs.all()
	if len(entries) != 1 || entries[0].Outcome != entity.CostOutcomeFailure {
		t.Fatalf("cost records = %+v, want one failure", entries)
	}
}

func TestHandleDeadLetterFinalizesCancelledJob(t *testing.T) {
	f := newOrchestratorFixture(t, 7, succeedingProvider(entity.ProviderDeepImage, "x"))
	w := newTestWorker(f, succeedingProvider(entity.ProviderDeepImage, "x"))

	// 用户已取消但尚未结算的任务，消息随后死信
	job := entity.NewProcessingJob("acc-1", entity.OperationUpscale, entity.ProviderDeepImage, 1, nil)
	job.ID = "job-cancelled"
	job.Start()
	job.Cancel()
	if err := f.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	w.HandleDeadLetter(context.Background(), jobMessage(t, "job-cancelled"))

	stored, _ := f.jobs.GetByID(context.Background(), "job-cancelled")
	if stored.Status != entity.JobStatusCancelled {
		t.Errorf("status = %q, cancelled state must survive", stored.Status)
	}
	if !stored.Finalized {
		t.Error("cancelled job must be finalized after dead letter")
	}
	if got := f.accounts.remaining("acc-1"); got != 8 {
		t.Errorf("remaining credits = %d, want 8 after refund", got)
	}
}

func TestHandleDeadLetterIdempotentOnFinalizedJob(t *testing.T) {
	f := newOrchestratorFixture(t, 5, succeedingProvider(entity.ProviderDeepImage, "x"))
	w := newTestWorker(f, succeedingProvider(entity.ProviderDeepImage, "x"))

	job := entity.NewProcessingJob("acc-1", entity.OperationUpscale, entity.ProviderDeepImage, 1, nil)
	job.ID = "job-settled"
	job.Start()
	job.Fail("boom")
	job.Finalized = true
	if err := f.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	w.HandleDeadLetter(context.Background(), jobMessage(t, "job-settled"))

	if got := f.accounts.remaining("acc-1"); got != 5 {
		t.Errorf("remaining credits = %d, already settled job must not refund again", got)
	}
	if entries := f.costs.all(); len(entries) != 0 {
		t.Errorf("cost records = %d, want 0 for already settled job", len(entries))
	}
}

func TestHandleDeadLetterUnknownJobIsNoop(t *testing.T) {
	f := newOrchestratorFixture(t, 5, succeedingProvider(entity.ProviderDeepImage, "x"))
	w := newTestWorker(f, succeedingProvider(entity.ProviderDeepImage, "x"))

	w.HandleDeadLetter(context.Background(), jobMessage(t, "ghost"))

	if got := f.accounts.remaining("acc-1"); got != 5 {
		t.Errorf("remaining credits = %d, want untouched 5", got)
	}
}

func TestHandleImageJobNonRetryableFailureSettles(t *testing.T) {
	failing := &stubProvider{
		name: entity.ProviderDeepImage,
		invokeFn: func(context.Context, *service.ProviderRequest) (*service.Invocation, error) {
			return nil, &service.ProviderError{Provider: entity.ProviderDeepImage, Message: "bad input"}
		},
	}
	f := newOrchestratorFixture(t, 9, failing)
	w := newTestWorker(f, failing)

	job := entity.NewProcessingJob("acc-1", entity.OperationUpscale, entity.ProviderDeepImage, 1, []byte(`{"image_url":"https://example.com/in.png"}`))
	job.ID = "job-term"
	if err := f.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := w.HandleImageJob(context.Background(), jobMessage(t, "job-term")); err != nil {
		t.Fatalf("HandleImageJob() error = %v, non-retryable failure must ack", err)
	}

	stored, _ := f.jobs.GetByID(context.Background(), "job-term")
	if stored.Status != entity.JobStatusFailed || !stored.Finalized {
		t.Errorf("job = %q finalized=%v, want failed and finalized", stored.Status, stored.Finalized)
	}
	if got := f.accounts.remaining("acc-1"); got != 10 {
		t.Errorf("remaining credits = %d, want 10 after refund", got)
	}
}

func TestHandleImageJobRetryableFailureRequeues(t *testing.T) {
	failing := &stubProvider{
		name: entity.ProviderDeepImage,
		invokeFn: func(context.Context, *service.ProviderRequest) (*service.Invocation, error) {
			return nil, &service.ProviderError{Provider: entity.ProviderDeepImage, Retryable: true, Message: "upstream 502"}
		},
	}
	f := newOrchestratorFixture(t, 9, failing)
	w := newTestWorker(f, failing)

	job := entity.NewProcessingJob("acc-1", entity.OperationUpscale, entity.ProviderDeepImage, 1, []byte(`{"image_url":"https://example.com/in.png"}`))
	job.ID = "job-retry"
	if err := f.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := w.HandleImageJob(context.Background(), jobMessage(t, "job-retry")); err == nil {
		t.Fatal("HandleImageJob() expected error so the message is retried")
	}

	// 可重试失败不落终态也不退款，等待下一次投递
	stored, _ := f.jobs.GetByID(context.Background(), "job-retry")
	if stored.Status.IsTerminal() {
		t.Errorf("status = %q, retryable failure must not settle the job", stored.Status)
	}
	if got := f.accounts.remaining("acc-1"); got != 9 {
		t.Errorf("remaining credits = %d, want 9 (still reserved)", got)
	}
}

func TestHandleImageJobCompletesSyncResult(t *testing.T) {
	f := newOrchestratorFixture(t, 9, succeedingProvider(entity.ProviderDeepImage, "https://cdn.example.com/out.png"))
	w := newTestWorker(f, succeedingProvider(entity.ProviderDeepImage, "https://cdn.example.com/out.png"))

	job := entity.NewProcessingJob("acc-1", entity.OperationUpscale, entity.ProviderDeepImage, 1, []byte(`{"image_url":"https://example.com/in.png"}`))
	job.ID = "job-ok"
	if err := f.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := w.HandleImageJob(context.Background(), jobMessage(t, "job-ok")); err != nil {
		t.Fatalf("HandleImageJob() error = %v", err)
	}

	stored, _ := f.jobs.GetByID(context.Background(), "job-ok")
	if stored.Status != entity.JobStatusCompleted || !stored.Finalized {
		t.Errorf("job = %q finalized=%v, want completed and finalized", stored.Status, stored.Finalized)
	}
	if stored.ResultURL != "https://cdn.example.com/out.png" {
		t.Errorf("ResultURL = %q", stored.ResultURL)
	}
	if got := f.accounts.remaining("acc-1"); got != 9 {
		t.Errorf("remaining credits = %d, success must not refund", got)
	}
}
