// Package profile holds the mentor's public profile and the audit trail of
// changes made to it.
package profile

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mentordesk/mentordesk/internal/query"
)

// Collection names.
const (
	ProfileCollection = "profile.profile"
	AuditCollection   = "profile.audit"
)

// ProfileID is the id of the single profile record.
const ProfileID = "profile"

// Profile is the public mentor profile.
type Profile struct {
	ID          string    `json:"id" yaml:"id"`
	DisplayName string    `json:"display_name" yaml:"display_name" validate:"required,max=80"`
	Headline    string    `json:"headline" yaml:"headline" validate:"max=140"`
	Bio         string    `json:"bio" yaml:"bio" validate:"max=2000"`
	Email       string    `json:"email" yaml:"email" validate:"required,email"`
	Timezone    string    `json:"timezone" yaml:"timezone" validate:"omitempty,timezone"`
	Languages   []string  `json:"languages" yaml:"languages" validate:"dive,required"`
	Expertise   []string  `json:"expertise" yaml:"expertise" validate:"dive,required"`
	HourlyRate  float64   `json:"hourly_rate" yaml:"hourly_rate" validate:"gte=0"`
	AvatarURL   string    `json:"avatar_url" yaml:"avatar_url" validate:"omitempty,url"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Clone deep-copies the profile.
func (p Profile) Clone() Profile {
	p.Languages = slices.Clone(p.Languages)
	p.Expertise = slices.Clone(p.Expertise)
	return p
}

// fields renders the auditable fields in display order.
func (p Profile) fields() [][2]string {
	return [][2]string{
		{"display_name", p.DisplayName},
		{"headline", p.Headline},
		{"bio", p.Bio},
		{"email", p.Email},
		{"timezone", p.Timezone},
		{"languages", strings.Join(p.Languages, ", ")},
		{"expertise", strings.Join(p.Expertise, ", ")},
		{"hourly_rate", strconv.FormatFloat(p.HourlyRate, 'f', 2, 64)},
		{"avatar_url", p.AvatarURL},
	}
}

// Patch is a partial profile update. Nil fields are left alone.
type Patch struct {
	DisplayName *string   `json:"display_name"`
	Headline    *string   `json:"headline"`
	Bio         *string   `json:"bio"`
	Email       *string   `json:"email"`
	Timezone    *string   `json:"timezone"`
	Languages   *[]string `json:"languages"`
	Expertise   *[]string `json:"expertise"`
	HourlyRate  *float64  `json:"hourly_rate"`
	AvatarURL   *string   `json:"avatar_url"`
}

func (p Patch) apply(dst *Profile) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&dst.DisplayName, p.DisplayName)
	set(&dst.Headline, p.Headline)
	set(&dst.Bio, p.Bio)
	set(&dst.Email, p.Email)
	set(&dst.Timezone, p.Timezone)
	set(&dst.AvatarURL, p.AvatarURL)
	if p.Languages != nil {
		dst.Languages = slices.Clone(*p.Languages)
	}
	if p.Expertise != nil {
		dst.Expertise = slices.Clone(*p.Expertise)
	}
	if p.HourlyRate != nil {
		dst.HourlyRate = *p.HourlyRate
	}
}

// AuditEntry records one changed field.
type AuditEntry struct {
	ID     string    `json:"id" yaml:"id"`
	Action string    `json:"action" yaml:"action"`
	Actor  string    `json:"actor" yaml:"actor"`
	Field  string    `json:"field" yaml:"field"`
	Before string    `json:"before" yaml:"before"`
	After  string    `json:"after" yaml:"after"`
	At     time.Time `json:"at" yaml:"at"`
}

// ActionUpdate is the audit action for profile edits.
const ActionUpdate = "profile.update"

// AuditSchema is how the query engine reads audit entries. Status is the
// action and the category is the field.
var AuditSchema = query.Schema[AuditEntry]{
	ID:       func(a AuditEntry) string { return a.ID },
	Time:     func(a AuditEntry) time.Time { return a.At },
	Status:   func(a AuditEntry) string { return a.Action },
	Category: func(a AuditEntry) []string { return []string{a.Field} },
	Text:     func(a AuditEntry) []string { return []string{a.Action, a.Actor, a.Field, a.Before, a.After} },
}
