// internal/models/license.go
package models

import (
	"fmt"
	"time"
)

// License is a seller's regulatory credential. It is advisory only and never verified
// against an external registry.
type License struct {
	Type   string     `json:"type" gorm:"column:license_type;size:100"`
	Number string     `json:"number" gorm:"column:license_number;size:100"`
	Expiry *time.Time `json:"expiry,omitempty" gorm:"column:license_expiry"`
}

func (l *License) IsZero() bool {
	return l == nil || (l.Type == "" && l.Number == "" && l.Expiry == nil)
}

type LicenseStatus string

const (
	LicenseStatusNotApplicable   LicenseStatus = "not_applicable"
	LicenseStatusPendingApproval LicenseStatus = "pending_approval"
	LicenseStatusApproved        LicenseStatus = "approved"
	LicenseStatusRejected        LicenseStatus = "rejected"
)

type LicenseEvent string

const (
	LicenseEventApprove LicenseEvent = "approve"
	LicenseEventReject  LicenseEvent = "reject"
	LicenseEventApply   LicenseEvent = "apply"
)

// licenseTransitions is the complete workflow. Registration picks the initial state
// directly and is not an edge here.
var licenseTransitions = map[LicenseStatus]map[LicenseEvent]LicenseStatus{
	LicenseStatusPendingApproval: {
		LicenseEventApprove: LicenseStatusApproved,
		LicenseEventReject:  LicenseStatusRejected,
	},
	LicenseStatusApproved: {
		LicenseEventApprove: LicenseStatusApproved,
		LicenseEventReject:  LicenseStatusRejected,
	},
	LicenseStatusNotApplicable: {
		LicenseEventApply: LicenseStatusPendingApproval,
	},
	LicenseStatusRejected: {
		LicenseEventApply: LicenseStatusPendingApproval,
	},
}

type InvalidTransitionError struct {
	From  LicenseStatus
	Event LicenseEvent
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a license in state %s", e.Event, e.From)
}

// NextLicenseStatus returns the target of event from the given state, or an
// *InvalidTransitionError when the table has no such edge.
func NextLicenseStatus(from LicenseStatus, event LicenseEvent) (LicenseStatus, error) {
	if next, ok := licenseTransitions[from][event]; ok {
		return next, nil
	}
	return "", &InvalidTransitionError{From: from, Event: event}
}

// InitialLicenseStatus is the state a freshly registered user starts in.
func InitialLicenseStatus(sellerIntent bool) LicenseStatus {
	if sellerIntent {
		return LicenseStatusPendingApproval
	}
	return LicenseStatusNotApplicable
}
