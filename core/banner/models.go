package banner

import (
	"time"

	"github.com/kayembe/elimu/core"
)

// Visibility modes
const (
	VisibilityNow       = "now"
	VisibilityScheduled = "scheduled"
	VisibilityDraft     = "draft"
)

type (
	// Banner is a promotional entry shown on the home page carousel.
	Banner struct {
		ID           string     `json:"id"`
		Title        string     `json:"title"`
		Description  string     `json:"description,omitempty"`
		ImageURL     string     `json:"image_url"`
		TargetURL    string     `json:"target_url,omitempty"`
		Visibility   string     `json:"visibility"`
		IsActive     bool       `json:"is_active"` // admin kill switch, independent of visibility
		ScheduleDate *time.Time `json:"schedule_date,omitempty"`
		ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
		Order        int        `json:"order"`
		CreatedAt    time.Time  `json:"created_at"` // UTC
		UpdatedAt    time.Time  `json:"updated_at"` // UTC
	}

	NewBanner struct {
		Title        string     `json:"title" validate:"required,min=3"`
		Description  string     `json:"description"`
		ImageURL     string     `json:"image_url" validate:"required,url"`
		TargetURL    string     `json:"target_url" validate:"omitempty,url"`
		Visibility   string     `json:"visibility" validate:"required,oneof=now scheduled draft"`
		IsActive     *bool      `json:"is_active"` // enabled unless explicitly turned off
		ScheduleDate *time.Time `json:"schedule_date"`
		ExpiryDate   *time.Time `json:"expiry_date"`
	}

	// UpdateBanner is a partial update; nil fields leave the stored value
	// untouched.
	UpdateBanner struct {
		Title        *string    `json:"title" validate:"omitempty,min=3"`
		Description  *string    `json:"description"`
		ImageURL     *string    `json:"image_url" validate:"omitempty,url"`
		TargetURL    *string    `json:"target_url" validate:"omitempty,url"`
		Visibility   *string    `json:"visibility" validate:"omitempty,oneof=now scheduled draft"`
		IsActive     *bool      `json:"is_active"`
		ScheduleDate *time.Time `json:"schedule_date"`
		ExpiryDate   *time.Time `json:"expiry_date"`
	}
)

func (nb *NewBanner) Validate() error {
	nb.Title = core.CleanString(nb.Title)
	nb.Description = core.CleanString(nb.Description)

	if err := core.Validate.Struct(nb); err != nil {
		return err
	}
	if nb.Visibility == VisibilityScheduled && nb.ScheduleDate == nil {
		return core.NewFieldError("schedule_date", "A schedule date is required for scheduled banners")
	}
	return nil
}

func (ub *UpdateBanner) Validate() error {
	if ub.Title != nil {
		title := core.CleanString(*ub.Title)
		ub.Title = &title
	}
	if err := core.Validate.Struct(ub); err != nil {
		return err
	}
	if ub.Visibility != nil && *ub.Visibility == VisibilityScheduled && ub.ScheduleDate == nil {
		return core.NewFieldError("schedule_date", "A schedule date is required for scheduled banners")
	}
	return nil
}
