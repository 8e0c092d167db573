package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/balkashynov/ems/internal/models"
)

// Credentials scopes credential reads and writes to one API profile
type Credentials struct {
	store   *Store
	profile string
}

// Credentials returns the credential store for the given api base URL
func (s *Store) Credentials(profile string) *Credentials {
	return &Credentials{store: s, profile: profile}
}

func (c *Credentials) get(key string) (string, error) {
	var cred models.Credential
	err := c.store.DB.Where("profile = ? AND key = ?", c.profile, key).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil // Missing is not an error
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return cred.Value, nil
}

func (c *Credentials) set(key, value string) error {
	var cred models.Credential
	err := c.store.DB.Where("profile = ? AND key = ?", c.profile, key).First(&cred).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		cred = models.Credential{Profile: c.profile, Key: key, Value: value}
		if err := c.store.DB.Create(&cred).Error; err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	cred.Value = value
	if err := c.store.DB.Save(&cred).Error; err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (c *Credentials) remove(key string) error {
	err := c.store.DB.Where("profile = ? AND key = ?", c.profile, key).Delete(&models.Credential{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// LoadToken returns the persisted bearer token, or "" when none is stored
func (c *Credentials) LoadToken() (string, error) {
	return c.get(models.CredentialToken)
}

// SaveToken persists the bearer token
func (c *Credentials) SaveToken(token string) error {
	return c.set(models.CredentialToken, token)
}

// ClearToken deletes the persisted bearer token
func (c *Credentials) ClearToken() error {
	return c.remove(models.CredentialToken)
}

// RememberedEmail returns the login email saved with "remember me"
func (c *Credentials) RememberedEmail() (string, error) {
	return c.get(models.CredentialRememberEmail)
}

// RememberEmail saves email for pre-filling the login form; "" forgets it
func (c *Credentials) RememberEmail(email string) error {
	if email == "" {
		return c.remove(models.CredentialRememberEmail)
	}
	return c.set(models.CredentialRememberEmail, email)
}
