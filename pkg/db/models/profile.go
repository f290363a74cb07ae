package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/licenciapp/licencias-backend/pkg/enums"
)

// Profile is the actor record authorization decisions are sourced from.
// The role column here is authoritative; role claims cached in tokens are
// hints only and are re-read per request.
type Profile struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string          `gorm:"column:email;not null;unique"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	FirstName    string          `gorm:"column:first_name;not null"`
	LastName     string          `gorm:"column:last_name;not null"`
	Role         enums.ActorRole `gorm:"column:role;type:actor_role;not null;default:solicitante"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}
