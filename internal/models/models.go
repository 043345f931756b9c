package models

import "time"

type Participant struct {
	ID                int        `gorm:"primaryKey;autoIncrement"  json:"id"`
	FirstName         string     `gorm:"size:32;not null"          json:"first_name"`
	LastName          string     `gorm:"size:32;not null"          json:"last_name"`
	WonOn             *time.Time `gorm:"type:date"                 json:"won_on,omitempty"`
	PickedBy          *uint      `gorm:"index"                     json:"-"`
	PickingTime       *time.Time `json:"-"`
	PresentIdentifier *string    `gorm:"size:1"                    json:"present_identifier,omitempty"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"size:64;unique;not null"  json:"username"`
	PasswordHash string `gorm:"size:255;not null"        json:"-"`
}

type AuditEvent struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TimeOfAction time.Time `gorm:"not null"                 json:"time_of_action"`
	UserID       *uint     `gorm:"index"                    json:"user_id,omitempty"`
	Action       string    `gorm:"size:32;not null"         json:"action"`
	Description  *string   `gorm:"type:text"                json:"description,omitempty"`
}

func (AuditEvent) TableName() string { return "performed_actions" }

// Action kinds written to the audit trail.
const (
	ActionSuccessfulLogin = "SuccessfulLogin"
	ActionFailedLogin     = "FailedLogin"
	ActionPasswordChanged = "PasswordChanged"
	ActionPickedWinner    = "PickedWinner"
	ActionRemovedWinner   = "RemovedWinner"
	ActionPackageSelected = "PackageSelected"
	ActionPackageChanged  = "PackageChanged"
)
