package assignment

import (
	"time"

	"github.com/google/uuid"
)

// Assignment links one relationship edge to one survey. The email/reminder
// timestamps are consumed by the emailing collaborator; this core only
// records them. At most one active assignment exists per (edge, survey)
// pair.
type Assignment struct {
	id                    uuid.UUID
	tenantID              uuid.UUID
	subjectEvaluatorID    uuid.UUID
	surveyID              uuid.UUID
	isActive              bool
	assignmentEmailSentAt *time.Time
	lastReminderSentAt    *time.Time
	createdAt             time.Time
	updatedAt             time.Time
}

func New(tenantID, subjectEvaluatorID, surveyID uuid.UUID) Assignment {
	return Assignment{
		id:                 uuid.New(),
		tenantID:           tenantID,
		subjectEvaluatorID: subjectEvaluatorID,
		surveyID:           surveyID,
		isActive:           true,
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	subjectEvaluatorID uuid.UUID,
	surveyID uuid.UUID,
	isActive bool,
	assignmentEmailSentAt *time.Time,
	lastReminderSentAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) Assignment {
	return Assignment{
		id:                    id,
		tenantID:              tenantID,
		subjectEvaluatorID:    subjectEvaluatorID,
		surveyID:              surveyID,
		isActive:              isActive,
		assignmentEmailSentAt: assignmentEmailSentAt,
		lastReminderSentAt:    lastReminderSentAt,
		createdAt:             createdAt,
		updatedAt:             updatedAt,
	}
}

func (a Assignment) ID() uuid.UUID                     { return a.id }
func (a Assignment) TenantID() uuid.UUID               { return a.tenantID }
func (a Assignment) SubjectEvaluatorID() uuid.UUID     { return a.subjectEvaluatorID }
func (a Assignment) SurveyID() uuid.UUID               { return a.surveyID }
func (a Assignment) IsActive() bool                    { return a.isActive }
func (a Assignment) AssignmentEmailSentAt() *time.Time { return a.assignmentEmailSentAt }
func (a Assignment) LastReminderSentAt() *time.Time    { return a.lastReminderSentAt }
func (a Assignment) CreatedAt() time.Time              { return a.createdAt }
func (a Assignment) UpdatedAt() time.Time              { return a.updatedAt }
func (a Assignment) IsZero() bool                      { return a.id == uuid.Nil }

func (a Assignment) Reactivated() Assignment {
	a.isActive = true
	return a
}

func (a Assignment) Deactivated() Assignment {
	a.isActive = false
	return a
}

func (a Assignment) WithAssignmentEmailSentAt(t time.Time) Assignment {
	a.assignmentEmailSentAt = &t
	return a
}

func (a Assignment) WithReminderSentAt(t time.Time) Assignment {
	a.lastReminderSentAt = &t
	return a
}
