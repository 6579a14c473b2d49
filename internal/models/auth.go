package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// IssueTokenRequest describes the account a token is signed for.
type IssueTokenRequest struct {
	UserID    string   `json:"user_id" validate:"required"`
	Email     string   `json:"email" validate:"omitempty,email"`
	FullName  string   `json:"full_name"`
	Role      UserRole `json:"role" validate:"required,oneof=ADMIN TEACHER"`
	TeacherID string   `json:"teacher_id" validate:"required_if=Role TEACHER"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	FullName  string   `json:"full_name"`
	TeacherID string   `json:"teacher_id,omitempty"`
	jwt.RegisteredClaims
}
