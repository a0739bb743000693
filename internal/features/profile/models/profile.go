package models

import (
	"news-miniapp-gateway/internal/features/catalog"
	"news-miniapp-gateway/internal/platform/newsapi"
)

// OnboardingRequest is the category pick submitted by a new user.
type OnboardingRequest struct {
	Categories []string `json:"categories" binding:"required,min=1,max=16,dive,required,max=32"`
	FullName   *string  `json:"full_name,omitempty" binding:"omitempty,max=128"`
	Email      *string  `json:"email,omitempty" binding:"omitempty,max=254"`
}

type OnboardingResponse struct {
	// Created is false when the user was already registered and nothing was written.
	Created bool         `json:"created"`
	Route   string       `json:"route"`
	Profile *ProfileView `json:"profile"`
}

// ProfileView is a backend profile with labelled categories.
type ProfileView struct {
	TgID       int64              `json:"tg_id"`
	FullName   string             `json:"full_name"`
	Email      *string            `json:"email"`
	Categories []catalog.Category `json:"categories"`
	CreatedAt  string             `json:"created_at,omitempty"`
}

type HomeView struct {
	FirstName string       `json:"first_name,omitempty"`
	Language  string       `json:"language"`
	Profile   *ProfileView `json:"profile"`
}

type SettingsView struct {
	Language  string             `json:"language"`
	Profile   *ProfileView       `json:"profile"`
	Available []catalog.Category `json:"available_categories"`
}

// SettingsUpdate is a partial profile edit; absent fields are left untouched.
type SettingsUpdate struct {
	Categories []string `json:"categories,omitempty" binding:"omitempty,max=16,dive,required,max=32"`
	FullName   *string  `json:"full_name,omitempty" binding:"omitempty,max=128"`
	Email      *string  `json:"email,omitempty" binding:"omitempty,max=254"`
}

type SettingsUpdateResponse struct {
	Updated  newsapi.UpdatedFields `json:"updated_fields"`
	Settings *SettingsView         `json:"settings"`
}
