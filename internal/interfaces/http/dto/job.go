// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"dtf-editor-api/internal/application/jobtrack"
	"dtf-editor-api/internal/domain/entity"
)

// JobStatusResponse 任务状态响应
type JobStatusResponse struct {
	JobID          string     `json:"job_id"`
	Operation      string     `json:"operation"`
	Provider       string     `json:"provider"`
	Status         string     `json:"status"`
	Progress       int        `json:"progress"`
	CreditsCharged int        `json:"credits_charged"`
	ResultURL      string     `json:"result_url,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// NewJobStatusResponse 从状态快照构造响应
func NewJobStatusResponse(s *jobtrack.JobStatus) *JobStatusResponse {
	return &JobStatusResponse{
		JobID:          s.JobID,
		Operation:      string(s.Operation),
		Provider:       string(s.Provider),
		Status:         string(s.Status),
		Progress:       s.Progress,
		CreditsCharged: s.CreditsCharged,
		ResultURL:      s.ResultURL,
		ErrorMessage:   s.ErrorMessage,
		CreatedAt:      s.CreatedAt,
		CompletedAt:    s.CompletedAt,
	}
}

// NewJobStatusResponseFromEntity 从任务实体构造响应
func NewJobStatusResponseFromEntity(j *entity.ProcessingJob) *JobStatusResponse {
	return &JobStatusResponse{
		JobID:          j.ID,
		Operation:      string(j.Operation),
		Provider:       string(j.Provider),
		Status:         string(j.Status),
		Progress:       j.Progress,
		CreditsCharged: j.CreditsCharged,
		ResultURL:      j.ResultURL,
		ErrorMessage:   j.ErrorMessage,
		CreatedAt:      j.CreatedAt,
		CompletedAt:    j.CompletedAt,
	}
}

// JobListQuery 任务列表查询参数
type JobListQuery struct {
	Operation string `form:"operation" binding:"omitempty,oneof=upscale background_removal vectorization generation"`
	Status    string `form:"status" binding:"omitempty,oneof=pending processing completed failed cancelled"`
	Page      int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// AwaitQuery 任务等待查询参数
type AwaitQuery struct {
	IntervalMs int `form:"interval_ms,default=1000" binding:"omitempty,min=100,max=10000"`
	MaxWaitSec int `form:"max_wait_sec,default=60" binding:"omitempty,min=1,max=300"`
}
