package models

import (
	"time"
)

// Profile carries the membership fields of a platform user. Rows are created
// at signup by the identity service; this subsystem only mutates the
// membership_* columns, and only from the membership reconciliation handler.
//
// Invariant: MembershipPlanID set implies MembershipExpiresAt set.
type Profile struct {
	ID                  string     `gorm:"column:id;type:uuid;primary_key" json:"id"`
	MembershipPlanID    *string    `gorm:"column:membership_plan_id;type:varchar(64);default:null" json:"membership_plan_id"`
	MembershipStartedAt *time.Time `gorm:"column:membership_started_at;default:null" json:"membership_started_at"`
	MembershipExpiresAt *time.Time `gorm:"column:membership_expires_at;default:null" json:"membership_expires_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profile"
}

// HasActiveMembership reports whether the profile holds a membership that is
// still valid at the given time.
func (p *Profile) HasActiveMembership(at time.Time) bool {
	return p != nil &&
		p.MembershipPlanID != nil &&
		p.MembershipExpiresAt != nil &&
		p.MembershipExpiresAt.After(at)
}
