package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/soundsteps/core"
)

type (
	StartLessonRequest struct {
		Phone    string `json:"phone" validate:"required,phone"`
		LessonID string `json:"lesson_id" validate:"required"`
	}

	StartLessonResponse struct {
		Success        bool   `json:"success"`
		Phone          string `json:"phone"`
		LessonID       string `json:"lesson_id"`
		TotalQuestions int    `json:"total_questions"`
	}

	OutboundCallRequest struct {
		Phone string `json:"phone" validate:"required,phone"`
	}

	OutboundCallResponse struct {
		Success bool                `json:"success"`
		Call    core.ProviderResult `json:"call"`
	}

	SessionStats struct {
		TotalSessions     int     `json:"total_sessions"`
		CompletedSessions int     `json:"completed_sessions"`
		ActiveSessions    int     `json:"active_sessions"`
		AverageScore      float64 `json:"average_score"`
	}
)

func (r StartLessonRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

func (r OutboundCallRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}
