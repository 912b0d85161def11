package api

import (
	"context"
	"net/http"

	"github.com/railops/railops/internal/models"
)

// Profile fetches the authoritative profile from the backend and refreshes
// the local cache with it.
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &profile); err != nil {
		return nil, err
	}
	c.sessions.CacheProfile(ctx, &profile)
	return &profile, nil
}

type ProfileInput struct {
	Name        string `json:"name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"omitempty,e164"`
	Designation string `json:"designation" validate:"omitempty,max=80"`
	Depot       string `json:"depot" validate:"omitempty,max=80"`
}

// UpdateProfile replaces the whole profile.
func (c *Client) UpdateProfile(ctx context.Context, input ProfileInput) (*models.Profile, error) {
	if err := c.validator.Struct(input); err != nil {
		return nil, err
	}
	var profile models.Profile
	if err := c.do(ctx, http.MethodPut, "/profile", input, &profile); err != nil {
		return nil, err
	}
	c.sessions.CacheProfile(ctx, &profile)
	return &profile, nil
}

// PatchProfile sends only the fields set on the update; nil fields are left
// untouched server-side.
func (c *Client) PatchProfile(ctx context.Context, patch models.ProfileUpdate) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodPatch, "/profile", patch, &profile); err != nil {
		return nil, err
	}
	c.sessions.CacheProfile(ctx, &profile)
	return &profile, nil
}

// Preferences fetches notification and display preferences.
func (c *Client) Preferences(ctx context.Context) (*models.Preferences, error) {
	var prefs models.Preferences
	if err := c.do(ctx, http.MethodGet, "/preferences", nil, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

type PreferencesInput struct {
	EmailAlerts       bool   `json:"email_alerts"`
	SMSAlerts         bool   `json:"sms_alerts"`
	MaintenanceDigest bool   `json:"maintenance_digest"`
	MileageUnit       string `json:"mileage_unit" validate:"required,oneof=km mi"`
	Theme             string `json:"theme" validate:"required,oneof=light dark system"`
}

// UpdatePreferences replaces the stored preferences.
func (c *Client) UpdatePreferences(ctx context.Context, input PreferencesInput) (*models.Preferences, error) {
	if err := c.validator.Struct(input); err != nil {
		return nil, err
	}
	var prefs models.Preferences
	if err := c.do(ctx, http.MethodPut, "/preferences", input, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}
