package models

import "time"

// Profile is the authenticated user's identity record. It is cached next to
// the credentials after login and purged together with them.
type Profile struct {
	ID          string    `json:"id" dynamodbav:"id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Email       string    `json:"email" dynamodbav:"email"`
	Phone       string    `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Designation string    `json:"designation,omitempty" dynamodbav:"designation,omitempty"`
	Depot       string    `json:"depot,omitempty" dynamodbav:"depot,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty" dynamodbav:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty" dynamodbav:"updated_at,omitempty"`
}

// ProfileUpdate carries the mutable profile fields for PATCH /profile.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Name        *string `json:"name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Designation *string `json:"designation,omitempty"`
	Depot       *string `json:"depot,omitempty"`
}

// Preferences holds the user's notification and display settings, synced to
// the backend on explicit save.
type Preferences struct {
	EmailAlerts       bool   `json:"email_alerts"`
	SMSAlerts         bool   `json:"sms_alerts"`
	MaintenanceDigest bool   `json:"maintenance_digest"`
	MileageUnit       string `json:"mileage_unit"`
	Theme             string `json:"theme"`
}
