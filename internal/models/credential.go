package models

import "time"

// Credential keys stored in the local database
const (
	CredentialToken         = "access_token"
	CredentialRememberEmail = "remember_email"
)

// Credential is a locally persisted key/value used to restore a session.
// It is the only thing the client keeps on disk.
type Credential struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Profile string `gorm:"uniqueIndex:idx_profile_key;not null" json:"profile"` // api base URL the value belongs to
	Key     string `gorm:"uniqueIndex:idx_profile_key;not null" json:"key"`
	Value   string `gorm:"not null" json:"value"`
}
