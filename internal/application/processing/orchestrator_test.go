package processing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dtf-editor-api/internal/application/ledger"
	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/domain/repository"
	"dtf-editor-api/internal/domain/service"
	apperrors "dtf-editor-api/pkg/errors"
)

type stubProvider struct {
	name     entity.ProviderName
	invokeFn func(ctx context.Context, req *service.ProviderRequest) (*service.Invocation, error)
}

func (p *stubProvider) Name() entity.ProviderName { return p.name }

func (p *stubProvider) Invoke(ctx context.Context, req *service.ProviderRequest) (*service.Invocation, error) {
	return p.invokeFn(ctx, req)
}

func (p *stubProvider) Poll(context.Context, *service.DeferredHandle) (*service.Invocation, error) {
	return nil, errors.New("not implemented")
}

type stubRegistry struct {
	provider service.Provider
}

func (r *stubRegistry) Resolve(entity.OperationKind) (service.Provider, error) {
	if r.provider == nil {
		return nil, apperrors.ErrOperationDisabled
	}
	return r.provider, nil
}

type recordedCosts struct {
	mu      sync.Mutex
	entries []service.CostUsageInput
}

func (r *recordedCosts) Record(_ context.Context, in service.CostUsageInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, in)
	return nil
}

func (r *recordedCosts) all() []service.CostUsageInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]service.CostUsageInput(nil), r.entries...)
}

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*entity.ProcessingJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[string]*entity.ProcessingJob)}
}

func (r *memJobRepo) Create(_ context.Context, job *entity.ProcessingJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *memJobRepo) GetByID(_ context.Context, id string) (*entity.ProcessingJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (r *memJobRepo) Update(_ context.Context, job *entity.ProcessingJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *memJobRepo) ListByAccount(_ context.Context, accountID string, _ *repository.JobFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.ProcessingJob], error) {
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

func (r *memJobRepo) MarkProcessing(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Start()
	}
	return nil
}

func (r *memJobRepo) UpdateProgress(_ context.Context, id string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.UpdateProgress(progress)
	}
	return nil
}

func (r *memJobRepo) SetResult(_ context.Context, id string, result []byte, resultURL string, errMsg string) error {
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

func (r *memJobRepo) CancelIfActive(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return false, nil
	}
	return job.Cancel(), nil
}

func (r *memJobRepo) MarkFinalized(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Finalized {
		return false, nil
	}
	job.Finalized = true
	return true, nil
}

func (r *memJobRepo) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int64, error) {
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

func (r *memJobRepo) CountActive(_ context.Context) (int64, error) {
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

func (r *memJobRepo) GetJobStats(context.Context, string) (*repository.JobStats, error) {
	return &repository.JobStats{}, nil
}

// 账本侧的最小内存实现，语义与数据库单条条件 UPDATE 一致
type memAccountRepo struct {
	mu      sync.Mutex
	balance map[string]int
	used    map[string]int
}

func newMemAccountRepo(accountID string, credits int) *memAccountRepo {
	return &memAccountRepo{
		balance: map[string]int{accountID: credits},
		used:    map[string]int{},
	}
}

func (r *memAccountRepo) Create(context.Context, *entity.Account) error { return nil }

func (r *memAccountRepo) GetByID(_ context.Context, id string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	credits, ok := r.balance[id]
	if !ok {
		return nil, nil
	}
	return &entity.Account{ID: id, CreditsRemaining: credits, CreditsUsed: r.used[id], Status: entity.AccountStatusActive}, nil
}

func (r *memAccountRepo) GetByEmail(context.Context, string) (*entity.Account, error) {
	return nil, nil
}

func (r *memAccountRepo) Update(context.Context, *entity.Account) error { return nil }

func (r *memAccountRepo) UpdateStatus(context.Context, string, entity.AccountStatus) error {
	return nil
}

func (r *memAccountRepo) List(_ context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Account], error) {
	return repository.NewPagedResult([]*entity.Account{}, 0, pagination), nil
}

func (r *memAccountRepo) ReserveCredits(_ context.Context, id string, amount int) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	credits, ok := r.balance[id]
	if !ok || credits < amount {
		return 0, false, nil
	}
	r.balance[id] = credits - amount
	r.used[id] += amount
	return r.balance[id], true, nil
}

func (r *memAccountRepo) RefundCredits(_ context.Context, id string, amount int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balance[id] += amount
	return r.balance[id], nil
}

func (r *memAccountRepo) GrantCredits(_ context.Context, id string, amount int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balance[id] += amount
	return r.balance[id], nil
}

func (r *memAccountRepo) remaining(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balance[id]
}

type memTxRepo struct {
	mu  sync.Mutex
	txs []*entity.CreditTransaction
}

func (r *memTxRepo) Create(_ context.Context, tx *entity.CreditTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, tx)
	return nil
}

func (r *memTxRepo) ListByAccount(_ context.Context, _ string, pagination repository.Pagination) (*repository.PagedResult[*entity.CreditTransaction], error) {
	return repository.NewPagedResult([]*entity.CreditTransaction{}, 0, pagination), nil
}

func (r *memTxRepo) SumByType(context.Context, string) (map[entity.TransactionType]int64, error) {
	return map[entity.TransactionType]int64{}, nil
}

func (r *memTxRepo) byAccount(accountID string) []*entity.CreditTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*entity.CreditTransaction
	for _, tx := range r.txs {
		if tx.AccountID == accountID {
			items = append(items, tx)
		}
	}
	return items
}

type noopTx struct{}

func (noopTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type orchestratorFixture struct {
	orchestrator *Orchestrator
	accounts     *memAccountRepo
	txs          *memTxRepo
	jobs         *memJobRepo
	costs        *recordedCosts
}

func newOrchestratorFixture(t *testing.T, credits int, provider service.Provider) *orchestratorFixture {
	t.Helper()

	accounts := newMemAccountRepo("acc-1", credits)
	txs := &memTxRepo{}
	ledgerSvc := ledger.NewService(accounts, txs, noopTx{})
	jobs := newMemJobRepo()
	costs := &recordedCosts{}

	cfg := &config.ProcessingConfig{
		Costs: config.CostsConfig{
			Upscale:           1,
			BackgroundRemoval: 1,
			Vectorization:     2,
			Generation:        3,
		},
		Limits: config.LimitsConfig{
			MaxSidePixels:     6000,
			MaxMegapixels:     30.0,
			TargetDensity:     300,
			SyncDispatchLimit: 5 * time.Second,
		},
	}

	orchestrator := NewOrchestrator(
		ledgerSvc,
		&stubRegistry{provider: provider},
		costs,
		jobs,
		nil, // 同步路径不触达消息队列
		NewDimensionPlanner(cfg.Limits.MaxSidePixels, cfg.Limits.MaxMegapixels),
		cfg,
	)
	return &orchestratorFixture{orchestrator: orchestrator, accounts: accounts, txs: txs, jobs: jobs, costs: costs}
}

func succeedingProvider(name entity.ProviderName, url string) *stubProvider {
	return &stubProvider{
		name: name,
		invokeFn: func(context.Context, *service.ProviderRequest) (*service.Invocation, error) {
			return &service.Invocation{Result: &service.ProviderResult{URL: url}}, nil
		},
	}
}

func TestSubmitSyncSuccessChargesAndRecordsCost(t *testing.T) {
	f := newOrchestratorFixture(t, 10, succeedingProvider(entity.ProviderVectorizer, "https://cdn.example.com/out.svg"))

	res, err := f.orchestrator.Submit(context.Background(), &SubmitRequest{
		AccountID: "acc-1",
		Operation: entity.OperationVectorization,
		ImageURL:  "https://example.com/in.png",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if res.Status != entity.JobStatusCompleted {
		t.Errorf("Status = %q, want completed", res.Status)
	}
	if res.Output == nil || res.Output.URL != "https://cdn.example.com/out.svg" {
		t.Errorf("Output = %+v, want result URL", res.Output)
	}
	if res.CreditsCharged != 2 {
		t.Errorf("CreditsCharged = %d, want 2", res.CreditsCharged)
	}
	if got := f.accounts.remaining("acc-1"); got != 8 {
		t.Errorf("remaining credits = %d, want 8", got)
	}

	entries := f.costs.all()
	if len(entries) != 1 {
		t.Fatalf("cost records = %d, want 1", len(entries))
	}
	if entries[0].Outcome != entity.CostOutcomeSuccess || !entries[0].Attempted {
		t.Errorf("cost record = %+v, want attempted success", entries[0])
	}
	if entries[0].CreditsCharged != 2 {
		t.Errorf("cost CreditsCharged = %d, want 2", entries[0].CreditsCharged)
	}
}

func TestSubmitSyncProviderFailureRefunds(t *testing.T) {
	failing := &stubProvider{
		name: entity.ProviderDeepImage,
		invokeFn: func(context.Context, *service.ProviderRequest) (*service.Invocation, error) {
			return nil, &service.ProviderError{Provider: entity.ProviderDeepImage, Message: "upstream 500"}
		},
	}
	f := newOrchestratorFixture(t, 10, failing)

	_, err := f.orchestrator.Submit(context.Background(), &SubmitRequest{
		AccountID: "acc-1",
		Operation: entity.OperationUpscale,
		ImageURL:  "https://example.com/in.png",
	})
	if err == nil {
		t.Fatal("Submit() expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeProviderError {
		t.Errorf("error code = %v, want %v", appErr.Code, apperrors.CodeProviderError)
	}

	if got := f.accounts.remaining("acc-1"); got != 10 {
		t.Errorf("remaining credits = %d, want 10 after refund", got)
	}

	// 流水恰好一对：扣减与返还，金额带符号
	txs := f.txs.byAccount("acc-1")
	if len(txs) != 2 {
		t.Fatalf("transaction count = %d, want usage+refund pair", len(txs))
	}
	if txs[0].Type != entity.TransactionUsage || txs[0].Amount != -1 {
		t.Errorf("first tx = %s %d, want usage -1", txs[0].Type, txs[0].Amount)
	}
	if txs[0].BalanceAfter != 9 {
		t.Errorf("usage BalanceAfter = %d, want 9", txs[0].BalanceAfter)
	}
	if txs[1].Type != entity.TransactionRefund || txs[1].Amount != 1 {
		t.Errorf("second tx = %s %d, want refund +1", txs[1].Type, txs[1].Amount)
	}
	if txs[1].BalanceAfter != 10 {
		t.Errorf("refund BalanceAfter = %d, want 10", txs[1].BalanceAfter)
	}

	entries := f.costs.all()
	if len(entries) != 1 {
		t.Fatalf("cost records = %d, want 1", len(entries))
	}
	if entries[0].Outcome != entity.CostOutcomeFailure || !entries[0].Attempted {
		t.Errorf("cost record = %+v, want attempted failure", entries[0])
	}
}

func TestSubmitInsufficientCreditsRejectsWithoutProviderCall(t *testing.T) {
	invoked := false
	provider := &stubProvider{
		name: entity.ProviderOpenAI,
		invokeFn: func(context.Context, *service.ProviderRequest) (*service.Invocation, error) {
			invoked = true
			return &service.Invocation{Result: &service.ProviderResult{URL: "x"}}, nil
		},
	}
	f := newOrchestratorFixture(t, 2, provider)

	_, err := f.orchestrator.Submit(context.Background(), &SubmitRequest{
		AccountID: "acc-1",
		Operation: entity.OperationGeneration, // 价格 3，余额 2
		Prompt:    "a red dragon",
	})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInsufficientCredits {
		t.Fatalf("error code = %v, want %v", appErr.Code, apperrors.CodeInsufficientCredits)
	}
	if invoked {
		t.Error("provider must not be invoked on rejection")
	}
	if got := f.accounts.remaining("acc-1"); got != 2 {
		t.Errorf("remaining credits = %d, want unchanged 2", got)
	}

	entries := f.costs.all()
	if len(entries) != 1 {
		t.Fatalf("cost records = %d, want 1 for rejected request", len(entries))
	}
	if entries[0].Attempted {
		t.Error("rejected request must record Attempted=false")
	}
	if entries[0].Outcome != entity.CostOutcomeFailure {
		t.Errorf("Outcome = %q, want failure", entries[0].Outcome)
	}
}

func TestSubmitPrivilegedBypassesCharge(t *testing.T) {
	f := newOrchestratorFixture(t, 0, succeedingProvider(entity.ProviderOpenAI, "https://cdn.example.com/gen.png"))

	res, err := f.orchestrator.Submit(context.Background(), &SubmitRequest{
		AccountID:  "acc-1",
		Operation:  entity.OperationGeneration,
		Privileged: true,
		Prompt:     "sunset over mountains",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.CreditsCharged != 0 {
		t.Errorf("CreditsCharged = %d, want 0 for privileged account", res.CreditsCharged)
	}
	if got := f.accounts.remaining("acc-1"); got != 0 {
		t.Errorf("remaining credits = %d, want untouched 0", got)
	}

	// 特权请求仍须落一条成本记录
	entries := f.costs.all()
	if len(entries) != 1 {
		t.Fatalf("cost records = %d, want 1", len(entries))
	}
	if entries[0].CreditsCharged != 0 {
		t.Errorf("cost CreditsCharged = %d, want 0", entries[0].CreditsCharged)
	}
}

func TestSubmitPlansDimensionsFromPhysicalTarget(t *testing.T) {
	var captured *service.ProviderRequest
	provider := &stubProvider{
		name: entity.ProviderDeepImage,
		invokeFn: func(_ context.Context, req *service.ProviderRequest) (*service.Invocation, error) {
			captured = req
			return &service.Invocation{Result: &service.ProviderResult{URL: "x"}}, nil
		},
	}
	f := newOrchestratorFixture(t, 10, provider)

	res, err := f.orchestrator.Submit(context.Background(), &SubmitRequest{
		AccountID:            "acc-1",
		Operation:            entity.OperationUpscale,
		ImageURL:             "https://example.com/in.png",
		SourceWidth:          1000,
		SourceHeight:         2000,
		TargetPhysicalWidth:  4,
		TargetPhysicalHeight: 8,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if res.Plan == nil {
		t.Fatal("expected dimension plan in result")
	}
	if res.Plan.OutputWidth != 1200 || res.Plan.OutputHeight != 2400 {
		t.Errorf("plan output = %dx%d, want 1200x2400", res.Plan.OutputWidth, res.Plan.OutputHeight)
	}
	if captured == nil {
		t.Fatal("provider not invoked")
	}
	if captured.TargetWidth != 1200 || captured.TargetHeight != 2400 {
		t.Errorf("provider target = %dx%d, want 1200x2400", captured.TargetWidth, captured.TargetHeight)
	}
}

func TestSubmitUnknownOperation(t *testing.T) {
	f := newOrchestratorFixture(t, 10, succeedingProvider(entity.ProviderDeepImage, "x"))

	_, err := f.orchestrator.Submit(context.Background(), &SubmitRequest{
		AccountID: "acc-1",
		Operation: "sharpen",
	})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidParam {
		t.Fatalf("error code = %v, want %v", appErr.Code, apperrors.CodeInvalidParam)
	}
}

func TestFinalizeFailedJobRefundsExactlyOnce(t *testing.T) {
	f := newOrchestratorFixture(t, 8, succeedingProvider(entity.ProviderDeepImage, "x"))

	job := entity.NewProcessingJob("acc-1", entity.OperationUpscale, entity.ProviderDeepImage, 1, nil)
	job.ID = "job-1"
	job.Start()
	job.Fail("upstream error")
	if err := f.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := f.orchestrator.Finalize(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if res.Status != entity.JobStatusFailed {
		t.Errorf("Status = %q, want failed", res.Status)
	}
	if got := f.accounts.remaining("acc-1"); got != 9 {
		t.Errorf("remaining credits = %d, want 9 after refund", got)
	}

	// 第二次结算：幂等空转，不得再次返还
	if _, err := f.orchestrator.Finalize(context.Background(), "job-1"); err != nil {
		t.Fatalf("second Finalize() error = %v", err)
	}
	if got := f.accounts.remaining("acc-1"); got != 9 {
		t.Errorf("remaining credits = %d, want 9 after idempotent finalize", got)
	}
	if entries := f.costs.all(); len(entries) != 1 {
		t.Errorf("cost records = %d, want exactly 1", len(entries))
	}
}

func TestFinalizeCompletedJobRecordsSuccess(t *testing.T) {
	f := newOrchestratorFixture(t, 8, succeedingProvider(entity.ProviderVectorizer, "x"))

	job := entity.NewProcessingJob("acc-1", entity.OperationVectorization, entity.ProviderVectorizer, 2, nil)
	job.ID = "job-2"
	job.Start()
	job.Complete([]byte(`{"format":"svg"}`), "https://cdn.example.com/out.svg")
	if err := f.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := f.orchestrator.Finalize(context.Background(), "job-2")
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if res.Status != entity.JobStatusCompleted {
		t.Errorf("Status = %q, want completed", res.Status)
	}
	if res.Output == nil || res.Output.URL != "https://cdn.example.com/out.svg" {
		t.Errorf("Output = %+v, want result URL", res.Output)
	}
	if got := f.accounts.remaining("acc-1"); got != 8 {
		t.Errorf("remaining credits = %d, success must not refund", got)
	}

	entries := f.costs.all()
	if len(entries) != 1 || entries[0].Outcome != entity.CostOutcomeSuccess {
		t.Fatalf("cost records = %+v, want one success", entries)
	}
	if entries[0].CreditsCharged != 2 {
		t.Errorf("cost CreditsCharged = %d, want 2", entries[0].CreditsCharged)
	}
}

func TestFinalizeCancelledJobRefunds(t *testing.T) {
	f := newOrchestratorFixture(t, 5, succeedingProvider(entity.ProviderClippingMagic, "x"))

	job := entity.NewProcessingJob("acc-1", entity.OperationBackgroundRemoval, entity.ProviderClippingMagic, 1, nil)
	job.ID = "job-3"
	job.Start()
	if !job.Cancel() {
		t.Fatal("Cancel() should succeed on active job")
	}
	if err := f.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := f.orchestrator.Finalize(context.Background(), "job-3")
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if res.Status != entity.JobStatusCancelled {
		t.Errorf("Status = %q, want cancelled", res.Status)
	}
	if got := f.accounts.remaining("acc-1"); got != 6 {
		t.Errorf("remaining credits = %d, want 6 after refund", got)
	}
}

func TestFinalizeNonTerminalJobConflicts(t *testing.T) {
	f := newOrchestratorFixture(t, 5, succeedingProvider(entity.ProviderDeepImage, "x"))

	job := entity.NewProcessingJob("acc-1", entity.OperationUpscale, entity.ProviderDeepImage, 1, nil)
	job.ID = "job-4"
	job.Start()
	if err := f.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := f.orchestrator.Finalize(context.Background(), "job-4")
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Fatalf("error code = %v, want %v", appErr.Code, apperrors.CodeConflict)
	}
}

func TestFinalizeUnknownJob(t *testing.T) {
	f := newOrchestratorFixture(t, 5, succeedingProvider(entity.ProviderDeepImage, "x"))

	_, err := f.orchestrator.Finalize(context.Background(), "missing")
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeJobNotFound {
		t.Fatalf("error code = %v, want %v", appErr.Code, apperrors.CodeJobNotFound)
	}
}

func TestCostFor(t *testing.T) {
	f := newOrchestratorFixture(t, 0, succeedingProvider(entity.ProviderDeepImage, "x"))

	tests := []struct {
		op   entity.OperationKind
		want int
	}{
		{entity.OperationUpscale, 1},
		{entity.OperationBackgroundRemoval, 1},
		{entity.OperationVectorization, 2},
		{entity.OperationGeneration, 3},
	}
	for _, tt := range tests {
		got, err := f.orchestrator.CostFor(tt.op)
		if err != nil {
			t.Errorf("CostFor(%q) error = %v", tt.op, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CostFor(%q) = %d, want %d", tt.op, got, tt.want)
		}
	}

	if _, err := f.orchestrator.CostFor("blur"); err == nil {
		t.Error("CostFor() expected error for unknown operation")
	}
}
