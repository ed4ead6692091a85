package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest carries the access code entered at login.
type LoginRequest struct {
	Code      string `json:"code" validate:"required,min=4,max=12"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// UserInfo is the public profile attached to auth responses.
type UserInfo struct {
	ID                 string              `json:"id"`
	Code               string              `json:"code"`
	Nickname           *string             `json:"nickname,omitempty"`
	Role               UserRole            `json:"role"`
	ExperienceCategory *ExperienceCategory `json:"experience_category,omitempty"`
}

// LoginResponse contains issued tokens and user context.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
	User         UserInfo  `json:"user"`
}

// RefreshTokenRequest exchanges a refresh token for a new pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse carries the rotated token pair.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshToken is a persisted, rotatable session token.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress string     `db:"ip_address" json:"-"`
	UserAgent string     `db:"user_agent" json:"-"`
}

// JWTClaims embeds festival-specific claims into the JWT payload.
type JWTClaims struct {
	UserID string   `json:"uid"`
	Code   string   `json:"code"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
