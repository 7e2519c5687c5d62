// Package policy decides whether an authenticated caller may perform an
// operation on a patient-scoped resource. Every service consults Engine
// before reading or writing data; it is the only place role, ownership and
// caregiver-link rules are evaluated.
package policy

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/clinicrecords/api/internal/platform/apperr"
	"github.com/clinicrecords/api/internal/platform/auth"
)

// Kind names a resource family.
type Kind string

const (
	KindPatient       Kind = "patient"
	KindAppointment   Kind = "appointment"
	KindClinicalNote  Kind = "clinical_note"
	KindPrescription  Kind = "prescription"
	KindNotification  Kind = "notification"
	KindCaregiverLink Kind = "caregiver_link"
	KindReport        Kind = "report"
	KindAudit         Kind = "audit"
)

// Operation is the action requested on a resource.
type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Kinds and Operations list every value the engine understands.
var (
	Kinds      = []Kind{KindPatient, KindAppointment, KindClinicalNote, KindPrescription, KindNotification, KindCaregiverLink, KindReport, KindAudit}
	Operations = []Operation{OpRead, OpCreate, OpUpdate, OpDelete}
)

// patientOwned kinds carry an owning patient and are visible to that
// patient and linked caregivers.
var patientOwned = map[Kind]bool{
	KindPatient:       true,
	KindAppointment:   true,
	KindClinicalNote:  true,
	KindPrescription:  true,
	KindNotification:  true,
	KindCaregiverLink: true,
}

var professionalOps = map[Operation]bool{OpRead: true, OpCreate: true, OpUpdate: true}

// Resource describes the target of an access check. OwnerPatientID is nil for
// collection-wide checks such as listing every patient.
type Resource struct {
	Kind           Kind
	OwnerPatientID *int64
}

// Owned is shorthand for a resource belonging to patientID.
func Owned(kind Kind, patientID int64) Resource {
	return Resource{Kind: kind, OwnerPatientID: &patientID}
}

// Decision is the result of an access check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// LinkChecker reports whether caregiverUserID holds a caregiver link to
// patientID.
type LinkChecker func(ctx context.Context, patientID, caregiverUserID int64) (bool, error)

type Engine struct {
	links  LinkChecker
	logger zerolog.Logger
}

func NewEngine(links LinkChecker, logger zerolog.Logger) *Engine {
	return &Engine{links: links, logger: logger}
}

// CanAccess evaluates the role rules in order; the first match wins.
// It never returns an error: missing identity fields or a failed link lookup
// produce a DENY.
func (e *Engine) CanAccess(ctx context.Context, id auth.Identity, res Resource, op Operation) Decision {
	if id.UserID <= 0 || !knownKind(res.Kind) || !knownOp(op) {
		return deny("invalid identity or resource")
	}

	switch id.Role {
	case auth.RoleAdmin:
		return allow("admin")

	case auth.RoleProfessional:
		if !patientOwned[res.Kind] {
			return deny("professionals cannot access " + string(res.Kind))
		}
		if !professionalOps[op] {
			return deny("professionals cannot " + string(op))
		}
		return allow("professional")

	case auth.RolePatient:
		if op != OpRead || !patientOwned[res.Kind] {
			return deny("patients have read-only access to their own records")
		}
		if id.LinkedPatientID == nil || res.OwnerPatientID == nil {
			return deny("no linked patient")
		}
		if *id.LinkedPatientID != *res.OwnerPatientID {
			return deny("record belongs to another patient")
		}
		return allow("own record")

	case auth.RoleCaregiver:
		if op != OpRead || !patientOwned[res.Kind] {
			return deny("caregivers have read-only access")
		}
		if res.OwnerPatientID == nil || e.links == nil {
			return deny("no patient in scope")
		}
		ok, err := e.links(ctx, *res.OwnerPatientID, id.UserID)
		if err != nil {
			e.logger.Warn().Err(err).
				Int64("user_id", id.UserID).
				Int64("patient_id", *res.OwnerPatientID).
				Msg("caregiver link lookup failed")
			return deny("link lookup failed")
		}
		if !ok {
			return deny("no caregiver link")
		}
		return allow("caregiver link")
	}

	return deny("unknown role")
}

// Authorize converts a DENY into a FORBIDDEN error.
func (e *Engine) Authorize(ctx context.Context, id auth.Identity, res Resource, op Operation) error {
	d := e.CanAccess(ctx, id, res, op)
	if !d.Allowed {
		return apperr.Forbidden(d.Reason)
	}
	return nil
}

func knownKind(k Kind) bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

func knownOp(op Operation) bool {
	for _, v := range Operations {
		if v == op {
			return true
		}
	}
	return false
}
