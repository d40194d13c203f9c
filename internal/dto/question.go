package dto

import (
	"time"

	"loan-compare/internal/models"

	"github.com/google/uuid"
)

const (
	QuestionSourceCustom  = "custom"
	QuestionSourceDefault = "default"
)

// LoanTypeResponse describes one selectable loan product
type LoanTypeResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type QuestionOptionPayload struct {
	Value string `json:"value" validate:"required,max=100"`
	Label string `json:"label" validate:"required,max=255"`
}

// QuestionResponse is a single questionnaire step. ID falls back to the field
// name for built-in questions that were never persisted.
type QuestionResponse struct {
	ID            string                  `json:"id"`
	Field         string                  `json:"field"`
	Type          string                  `json:"type"`
	Label         string                  `json:"label"`
	Placeholder   string                  `json:"placeholder,omitempty"`
	HelpText      string                  `json:"helpText,omitempty"`
	Options       []QuestionOptionPayload `json:"options,omitempty"`
	Required      bool                    `json:"required"`
	SequenceOrder int                     `json:"sequenceOrder"`
	UpdatedAt     *time.Time              `json:"updatedAt,omitempty"`
}

func NewQuestionResponse(q models.LoanQuestion) QuestionResponse {
	resp := QuestionResponse{
		ID:            q.Field,
		Field:         q.Field,
		Type:          q.Type,
		Label:         q.Label,
		Placeholder:   q.Placeholder,
		HelpText:      q.HelpText,
		Required:      q.Required,
		SequenceOrder: q.SequenceOrder,
	}
	if q.ID != uuid.Nil {
		resp.ID = q.ID.String()
		updated := q.UpdatedAt
		resp.UpdatedAt = &updated
	}
	for _, opt := range q.Options {
		resp.Options = append(resp.Options, QuestionOptionPayload{Value: opt.Value, Label: opt.Label})
	}
	return resp
}

// QuestionnaireResponse is the ordered question list for a loan type
type QuestionnaireResponse struct {
	LoanType  string             `json:"loanType"`
	Source    string             `json:"source"`
	Questions []QuestionResponse `json:"questions"`
}

func NewQuestionnaireResponse(loanType, source string, questions []models.LoanQuestion) QuestionnaireResponse {
	resp := QuestionnaireResponse{
		LoanType:  loanType,
		Source:    source,
		Questions: make([]QuestionResponse, 0, len(questions)),
	}
	for _, q := range questions {
		resp.Questions = append(resp.Questions, NewQuestionResponse(q))
	}
	return resp
}

// CreateQuestionRequest adds an admin-managed question to a loan type
type CreateQuestionRequest struct {
	LoanType      string                  `json:"loanType" validate:"required,loan_type"`
	Field         string                  `json:"field" validate:"required,max=100,alphanum"`
	Type          string                  `json:"type" validate:"required,oneof=text number radio"`
	Label         string                  `json:"label" validate:"required,max=255"`
	Placeholder   string                  `json:"placeholder" validate:"max=255"`
	HelpText      string                  `json:"helpText" validate:"max=1000"`
	Options       []QuestionOptionPayload `json:"options" validate:"required_if=Type radio,dive"`
	Required      bool                    `json:"required"`
	SequenceOrder *int                    `json:"sequenceOrder" validate:"omitempty,min=0"`
}

func (r *CreateQuestionRequest) ToModel() models.LoanQuestion {
	q := models.LoanQuestion{
		LoanType:    r.LoanType,
		Field:       r.Field,
		Type:        r.Type,
		Label:       r.Label,
		Placeholder: r.Placeholder,
		HelpText:    r.HelpText,
		Options:     toOptions(r.Options),
		Required:    r.Required,
	}
	if r.SequenceOrder != nil {
		q.SequenceOrder = *r.SequenceOrder
	}
	return q
}

// UpdateQuestionRequest edits the presentation of an existing question. Nil fields are left unchanged.
type UpdateQuestionRequest struct {
	Type        *string                 `json:"type" validate:"omitempty,oneof=text number radio"`
	Label       *string                 `json:"label" validate:"omitempty,min=1,max=255"`
	Placeholder *string                 `json:"placeholder" validate:"omitempty,max=255"`
	HelpText    *string                 `json:"helpText" validate:"omitempty,max=1000"`
	Options     []QuestionOptionPayload `json:"options" validate:"omitempty,dive"`
	Required    *bool                   `json:"required"`
}

func (r *UpdateQuestionRequest) ApplyTo(q *models.LoanQuestion) {
	if r.Type != nil {
		q.Type = *r.Type
	}
	if r.Label != nil {
		q.Label = *r.Label
	}
	if r.Placeholder != nil {
		q.Placeholder = *r.Placeholder
	}
	if r.HelpText != nil {
		q.HelpText = *r.HelpText
	}
	if r.Options != nil {
		q.Options = toOptions(r.Options)
	}
	if r.Required != nil {
		q.Required = *r.Required
	}
}

// MoveQuestionRequest swaps a question with its neighbour
type MoveQuestionRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// SeedQuestionsResponse reports how many built-in questions were written
type SeedQuestionsResponse struct {
	LoanType string `json:"loanType"`
	Created  int    `json:"created"`
}

func toOptions(in []QuestionOptionPayload) models.QuestionOptions {
	if len(in) == 0 {
		return nil
	}
	out := make(models.QuestionOptions, 0, len(in))
	for _, opt := range in {
		out = append(out, models.QuestionOption{Value: opt.Value, Label: opt.Label})
	}
	return out
}
