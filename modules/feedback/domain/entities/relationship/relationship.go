package relationship

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SelfLabel marks an edge where the subject and evaluator must resolve to
// the same employee. The comparison is case-insensitive.
const SelfLabel = "Self"

func IsSelfLabel(label string) bool {
	return strings.EqualFold(strings.TrimSpace(label), SelfLabel)
}

// Edge is one typed subject↔evaluator association. Deactivated edges are
// kept for history and can be reactivated instead of duplicated; at most one
// active edge exists per (subject, evaluator) pair per tenant.
type Edge struct {
	id          uuid.UUID
	tenantID    uuid.UUID
	subjectID   uuid.UUID
	evaluatorID uuid.UUID
	label       string
	isActive    bool
	createdAt   time.Time
	updatedAt   time.Time
}

func New(tenantID, subjectID, evaluatorID uuid.UUID, label string) Edge {
	return Edge{
		id:          uuid.New(),
		tenantID:    tenantID,
		subjectID:   subjectID,
		evaluatorID: evaluatorID,
		label:       strings.TrimSpace(label),
		isActive:    true,
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	subjectID uuid.UUID,
	evaluatorID uuid.UUID,
	label string,
	isActive bool,
	createdAt time.Time,
	updatedAt time.Time,
) Edge {
	return Edge{
		id:          id,
		tenantID:    tenantID,
		subjectID:   subjectID,
		evaluatorID: evaluatorID,
		label:       label,
		isActive:    isActive,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (e Edge) ID() uuid.UUID          { return e.id }
func (e Edge) TenantID() uuid.UUID    { return e.tenantID }
func (e Edge) SubjectID() uuid.UUID   { return e.subjectID }
func (e Edge) EvaluatorID() uuid.UUID { return e.evaluatorID }
func (e Edge) Label() string          { return e.label }
func (e Edge) IsActive() bool         { return e.isActive }
func (e Edge) CreatedAt() time.Time   { return e.createdAt }
func (e Edge) UpdatedAt() time.Time   { return e.updatedAt }
func (e Edge) IsZero() bool           { return e.id == uuid.Nil }

func (e Edge) IsSelf() bool { return IsSelfLabel(e.label) }

// Reactivated restores a soft-deleted edge with a fresh label. CreatedAt is
// preserved.
func (e Edge) Reactivated(label string) Edge {
	e.isActive = true
	e.label = strings.TrimSpace(label)
	return e
}

func (e Edge) WithLabel(label string) Edge {
	e.label = strings.TrimSpace(label)
	return e
}

func (e Edge) Deactivated() Edge {
	e.isActive = false
	return e
}
