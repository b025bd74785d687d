// Package domain contains the core domain types for the translation desk.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Collection names in the data store.
const (
	TableProjects    = "projects"
	TableProjectRows = "project_rows"
	TableUserRoles   = "user_roles"
)

// Status is the review state of a project and its rows.
type Status string

const (
	StatusDraft    Status = "Draft"
	StatusReviewed Status = "Reviewed"
	StatusApproved Status = "Approved"
)

// ParseStatus validates s. An empty string yields Draft.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "":
		return StatusDraft, nil
	case StatusDraft, StatusReviewed, StatusApproved:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// IsReviewed reports whether s is one of the terminal review states.
func (s Status) IsReviewed() bool {
	return s == StatusReviewed || s == StatusApproved
}

// Role is the access level of a user.
type Role string

const (
	RoleUser     Role = "user"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

// AllRoles lists every valid role, lowest privilege first.
var AllRoles = []Role{RoleUser, RoleReviewer, RoleAdmin}

// ParseRole validates s.
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// Locale maps a locale code to its column in project_rows.
type Locale struct {
	Code   string
	Column string
}

// Locales are the translation slots of a project row.
var Locales = []Locale{
	{Code: "zh-TW", Column: "zh_tw"},
	{Code: "zh-CN", Column: "zh_cn"},
	{Code: "ja-JP", Column: "ja_jp"},
	{Code: "th-TH", Column: "th_th"},
	{Code: "vi-VN", Column: "vi_vn"},
}

// ID is a record identifier. The store may hand back numeric or string keys;
// both decode into the string form.
type ID string

// UnmarshalJSON accepts JSON strings and numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as a string.
func (id ID) String() string {
	return string(id)
}

// Project is a row of the projects collection.
type Project struct {
	ID        ID         `json:"id,omitempty"`
	Name      string     `json:"project_name"`
	Languages []string   `json:"languages"`
	Status    Status     `json:"status"`
	OwnerID   *string    `json:"owner_id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ProjectRow is one block of a project with its per-locale translations.
type ProjectRow struct {
	ID          ID         `json:"id,omitempty"`
	ProjectID   ID         `json:"project_id"`
	BlockIndex  int        `json:"block_index"`
	EnglishText string     `json:"english_text"`
	ZhTW        *string    `json:"zh_tw"`
	ZhCN        *string    `json:"zh_cn"`
	JaJP        *string    `json:"ja_jp"`
	ThTH        *string    `json:"th_th"`
	ViVN        *string    `json:"vi_vn"`
	Status      Status     `json:"status"`
	ReviewedBy  *string    `json:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Translation returns the text stored in the slot for code, or nil.
func (r *ProjectRow) Translation(code string) *string {
	if slot := r.slot(code); slot != nil {
		return *slot
	}
	return nil
}

// SetTranslation stores text in the slot for code. Empty text clears the slot.
// Unknown codes are ignored.
func (r *ProjectRow) SetTranslation(code, text string) {
	slot := r.slot(code)
	if slot == nil {
		return
	}
	if text == "" {
		*slot = nil
		return
	}
	*slot = &text
}

func (r *ProjectRow) slot(code string) **string {
	switch code {
	case "zh-TW":
		return &r.ZhTW
	case "zh-CN":
		return &r.ZhCN
	case "ja-JP":
		return &r.JaJP
	case "th-TH":
		return &r.ThTH
	case "vi-VN":
		return &r.ViVN
	}
	return nil
}

// Block is the request-side shape of a project row.
type Block struct {
	EnglishText  string            `json:"englishText"`
	Translations map[string]string `json:"translations"`
}

// User is an identity known to the identity provider.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// UserRole is a row of the user_roles collection.
type UserRole struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// UserWithRole is a user joined with its materialized role.
type UserWithRole struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	Role      Role       `json:"role"`
}
