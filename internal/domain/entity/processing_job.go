// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal 检查状态是否为终态
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// ProcessingJob 图像处理任务
type ProcessingJob struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"account_id"`
	Operation      OperationKind   `json:"operation"`
	Provider       ProviderName    `json:"provider"`
	RemoteID       string          `json:"remote_id,omitempty"`
	Status         JobStatus       `json:"status"`
	Progress       int             `json:"progress"` // 任务进度 (0-100)
	CreditsCharged int             `json:"credits_charged"`
	InputParams    json.RawMessage `json:"input_params"`
	OutputResult   json.RawMessage `json:"output_result,omitempty"`
	ResultURL      string          `json:"result_url,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	Finalized      bool            `json:"finalized"`
	RetryCount     int             `json:"retry_count"`
	DurationMs     int             `json:"duration_ms,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// NewProcessingJob 创建新任务
func NewProcessingJob(accountID string, op OperationKind, provider ProviderName, creditsCharged int, inputParams json.RawMessage) *ProcessingJob {
	return &ProcessingJob{
		AccountID:      accountID,
		Operation:      op,
		Provider:       provider,
		Status:         JobStatusPending,
		CreditsCharged: creditsCharged,
		InputParams:    inputParams,
		CreatedAt:      time.Now(),
	}
}

// Start 开始执行任务
func (j *ProcessingJob) Start() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.StartedAt = &now
}

// Complete 完成任务
func (j *ProcessingJob) Complete(result json.RawMessage, resultURL string) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.OutputResult = result
	j.ResultURL = resultURL
	j.Progress = 100
	j.CompletedAt = &now
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}
}

// Fail 任务失败
func (j *ProcessingJob) Fail(errMsg string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.CompletedAt = &now
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}
}

// Cancel 取消任务，仅对非终态生效
func (j *ProcessingJob) Cancel() bool {
	if j.Status.IsTerminal() {
		return false
	}
	now := time.Now()
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	return true
}

// UpdateProgress 更新任务进度，进度单调不减
func (j *ProcessingJob) UpdateProgress(progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress > j.Progress {
		j.Progress = progress
	}
}
