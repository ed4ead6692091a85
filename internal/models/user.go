package models

import "time"

// UserRole represents the available roles for festival accounts.
type UserRole string

const (
	RoleParticipant UserRole = "participant"
	RoleJudge       UserRole = "judge"
	RoleAdmin       UserRole = "admin"
)

// ExperienceCategory splits participants into experience divisions.
type ExperienceCategory string

const (
	CategoryPro    ExperienceCategory = "pro"
	CategoryJunior ExperienceCategory = "junior"
)

// User represents a festival account stored in the users table.
// Access codes are the only credential; they are short, unique, and looked
// up by value at login.
type User struct {
	ID                 string              `db:"id" json:"id"`
	Code               string              `db:"code" json:"code"`
	Nickname           *string             `db:"nickname" json:"nickname,omitempty"`
	TelegramID         *string             `db:"telegram_id" json:"telegram_id,omitempty"`
	Role               UserRole            `db:"role" json:"role"`
	ExperienceCategory *ExperienceCategory `db:"experience_category" json:"experience_category,omitempty"`
	CreatedAt          time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at" json:"updated_at"`
}

// DisplayName prefers the nickname and falls back to the access code.
func (u User) DisplayName() string {
	if u.Nickname != nil && *u.Nickname != "" {
		return *u.Nickname
	}
	return u.Code
}

// CreateUserRequest registers a new account. When Code is empty a random
// unique code is generated.
type CreateUserRequest struct {
	Code               string              `json:"code" validate:"omitempty,min=4,max=12,alphanum"`
	Nickname           *string             `json:"nickname" validate:"omitempty,max=100"`
	TelegramID         *string             `json:"telegram_id" validate:"omitempty,max=64"`
	Role               UserRole            `json:"role" validate:"required,oneof=participant judge admin"`
	ExperienceCategory *ExperienceCategory `json:"experience_category" validate:"omitempty,oneof=pro junior"`
}

// UpdateUserRequest updates the mutable fields of an account.
type UpdateUserRequest struct {
	Nickname           *string             `json:"nickname" validate:"omitempty,max=100"`
	TelegramID         *string             `json:"telegram_id" validate:"omitempty,max=64"`
	Role               *UserRole           `json:"role" validate:"omitempty,oneof=participant judge admin"`
	ExperienceCategory *ExperienceCategory `json:"experience_category" validate:"omitempty,oneof=pro junior"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role               *UserRole
	ExperienceCategory *ExperienceCategory
	Search             string
	Page               int
	PageSize           int
	SortBy             string
	SortOrder          string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
