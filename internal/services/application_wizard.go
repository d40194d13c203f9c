package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"loan-compare/internal/models"

	"github.com/google/uuid"
)

// WizardState is where an applicant is in the application flow
type WizardState int

const (
	WizardAnswering WizardState = iota
	WizardAwaitingDocuments
	WizardSubmitted
	WizardExited
)

func (s WizardState) String() string {
	switch s {
	case WizardAnswering:
		return "answering"
	case WizardAwaitingDocuments:
		return "awaiting_documents"
	case WizardSubmitted:
		return "submitted"
	case WizardExited:
		return "exited"
	}
	return "unknown"
}

var (
	ErrLoginRequired     = errors.New("login required")
	ErrWizardWrongState  = errors.New("action not allowed in the current wizard state")
	ErrAnswerNotAnOption = errors.New("answer is not one of the question's options")
)

// MissingAnswerError is returned when a required question is left empty
type MissingAnswerError struct {
	Field string
	Label string
}

func (e *MissingAnswerError) Error() string {
	return fmt.Sprintf("answer required for %s", e.Field)
}

// MissingDocumentsError lists the required document types not yet attached
type MissingDocumentsError struct {
	Types []string
}

func (e *MissingDocumentsError) Labels() []string {
	labels := make([]string, 0, len(e.Types))
	for _, t := range e.Types {
		labels = append(labels, models.DocumentTypeLabel(t))
	}
	return labels
}

func (e *MissingDocumentsError) Error() string {
	return "missing required documents: " + strings.Join(e.Labels(), ", ")
}

// WizardPersistence stores the application the wizard produces
type WizardPersistence interface {
	CreateApplication(ctx context.Context, userID uuid.UUID, loanType string, answers map[string]string) (*models.LoanApplication, error)
	SubmitApplication(ctx context.Context, app *models.LoanApplication) error
}

// ApplicationWizard walks an applicant through a questionnaire one question at a time,
// then waits for the required documents before submitting.
// A failed transition never changes the wizard's state.
type ApplicationWizard struct {
	loanType    string
	questions   []models.LoanQuestion
	answers     map[string]string
	step        int
	state       WizardState
	userID      *uuid.UUID
	application *models.LoanApplication
	persistence WizardPersistence
}

func NewApplicationWizard(loanType string, questions []models.LoanQuestion, persistence WizardPersistence) *ApplicationWizard {
	return &ApplicationWizard{
		loanType:    loanType,
		questions:   questions,
		answers:     make(map[string]string, len(questions)),
		state:       WizardAnswering,
		persistence: persistence,
	}
}

// ResumeApplicationWizard picks up a persisted application after the questionnaire step
func ResumeApplicationWizard(app *models.LoanApplication, persistence WizardPersistence) *ApplicationWizard {
	w := &ApplicationWizard{
		loanType:    app.LoanType,
		answers:     map[string]string{},
		state:       WizardAwaitingDocuments,
		application: app,
		persistence: persistence,
	}
	if !app.IsAwaitingDocuments() {
		w.state = WizardSubmitted
	}
	return w
}

// Authenticate attaches the caller's identity. Without one the wizard refuses to persist or submit.
func (w *ApplicationWizard) Authenticate(userID uuid.UUID) {
	if userID == uuid.Nil {
		w.userID = nil
		return
	}
	w.userID = &userID
}

func (w *ApplicationWizard) State() WizardState {
	return w.state
}

func (w *ApplicationWizard) Step() int {
	return w.step
}

func (w *ApplicationWizard) TotalSteps() int {
	return len(w.questions)
}

func (w *ApplicationWizard) Application() *models.LoanApplication {
	return w.application
}

// Current returns the question being answered, or nil outside the answering state
func (w *ApplicationWizard) Current() *models.LoanQuestion {
	if w.state != WizardAnswering || w.step >= len(w.questions) {
		return nil
	}
	return &w.questions[w.step]
}

func (w *ApplicationWizard) Answers() map[string]string {
	out := make(map[string]string, len(w.answers))
	for k, v := range w.answers {
		out[k] = v
	}
	return out
}

// Answer records the value for the current question
func (w *ApplicationWizard) Answer(value string) error {
	q := w.Current()
	if q == nil {
		return ErrWizardWrongState
	}
	w.answers[q.Field] = strings.TrimSpace(value)
	return nil
}

// Next advances past the current question. Leaving the last question persists
// the application and moves the wizard to AwaitingDocuments.
func (w *ApplicationWizard) Next(ctx context.Context) error {
	if w.state != WizardAnswering {
		return ErrWizardWrongState
	}

	if q := w.Current(); q != nil {
		if err := w.checkAnswer(q); err != nil {
			return err
		}
		if w.step < len(w.questions)-1 {
			w.step++
			return nil
		}
	}

	if w.userID == nil {
		return ErrLoginRequired
	}

	app, err := w.persistence.CreateApplication(ctx, *w.userID, w.loanType, w.Answers())
	if err != nil {
		return err
	}

	w.application = app
	w.state = WizardAwaitingDocuments
	return nil
}

// Back returns to the previous question; going back from the first one exits the wizard
func (w *ApplicationWizard) Back() error {
	if w.state != WizardAnswering {
		return ErrWizardWrongState
	}
	if w.step == 0 {
		w.state = WizardExited
		return nil
	}
	w.step--
	return nil
}

// Submit finalizes the application once every required document type is attached
func (w *ApplicationWizard) Submit(ctx context.Context, attachedTypes []string) error {
	if w.state != WizardAwaitingDocuments {
		return ErrWizardWrongState
	}
	if w.userID == nil {
		return ErrLoginRequired
	}
	if missing := models.MissingDocumentTypes(attachedTypes); len(missing) > 0 {
		return &MissingDocumentsError{Types: missing}
	}

	if err := w.persistence.SubmitApplication(ctx, w.application); err != nil {
		return err
	}

	w.state = WizardSubmitted
	return nil
}

func (w *ApplicationWizard) checkAnswer(q *models.LoanQuestion) error {
	answer := w.answers[q.Field]
	if answer == "" {
		if q.Required {
			return &MissingAnswerError{Field: q.Field, Label: q.Label}
		}
		return nil
	}
	if q.IsRadio() && !q.HasOption(answer) {
		return fmt.Errorf("%w: %s", ErrAnswerNotAnOption, q.Field)
	}
	return nil
}
