package dto

import (
	"time"

	"loan-compare/internal/models"

	"github.com/google/uuid"
)

// ListUsersRequest represents query parameters for listing users
type ListUsersRequest struct {
	Role   string `query:"role" validate:"omitempty,oneof=applicant admin"`
	Query  string `query:"q" validate:"max=100"`
	Offset int    `query:"offset" validate:"min=0"`
	Limit  int    `query:"limit" validate:"min=1,max=100"`
}

// ChangeRoleRequest promotes or demotes a user
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=applicant admin"`
}

// UserResponse represents a user in admin API responses
type UserResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Email               string     `json:"email"`
	FullName            string     `json:"fullName"`
	Phone               string     `json:"phone,omitempty"`
	Role                string     `json:"role"`
	FailedLoginAttempts int        `json:"failedLoginAttempts"`
	LockedAt            *time.Time `json:"lockedAt,omitempty"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:                  u.ID,
		Email:               u.Email,
		FullName:            u.FullName,
		Phone:               u.Phone,
		Role:                u.Role,
		FailedLoginAttempts: u.FailedLoginAttempts,
		LockedAt:            u.LockedAt,
		LastLoginAt:         u.LastLoginAt,
		CreatedAt:           u.CreatedAt,
	}
}

// UsersListResponse represents a paginated list of users
type UsersListResponse struct {
	Users  []UserResponse `json:"users"`
	Total  int64          `json:"total"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

// AuditLogsListResponse represents a paginated list of audit logs
type AuditLogsListResponse struct {
	Logs   []*models.AuditLog `json:"logs"`
	Total  int64              `json:"total"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
}
