package models

import "time"

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

type Plan string

const (
	PlanSolo Plan = "SOLO"
	PlanTeam Plan = "TEAM"
)

// Plan limits. SOLO is the free tier.
const (
	SoloMaxChatRooms      = 2
	SoloMaxFilesPerRoom   = 2
	InviteTokenTTL        = 72 * time.Hour
	PasswordResetTokenTTL = 1 * time.Hour
)

type User struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name         string  `gorm:"type:varchar(128)" json:"name"`
	PasswordHash string  `gorm:"type:varchar(255)" json:"-"`
	Role         Role    `gorm:"type:varchar(16);not null;default:MEMBER" json:"role"`
	InvitedByID  *uint64 `gorm:"index" json:"-"`

	OrganizationID string       `gorm:"type:varchar(26);index;not null" json:"-"`
	Organization   Organization `gorm:"foreignKey:OrganizationID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

type Organization struct {
	ID    string `gorm:"primaryKey;size:26" json:"id"` // ULID
	Name  string `gorm:"type:varchar(128);uniqueIndex;not null" json:"name"`
	Email string `gorm:"type:varchar(255)" json:"email"`

	// Per-tenant OpenAI credential. Nil until the admin sets it; every
	// ingestion and answer call requires it.
	OpenAIAPIKey *string `gorm:"column:openai_api_key;type:varchar(255)" json:"-"`

	Subscription Plan `gorm:"type:varchar(16);not null;default:SOLO" json:"subscription"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Organization) TableName() string { return "organizations" }
