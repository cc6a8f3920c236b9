package chatroom

import (
	"time"

	"github.com/docuchat/backend/internal/models"
)

type Status string

const (
	// StatusPending means the room has no usable knowledge base yet.
	StatusPending Status = "PENDING"
	// StatusReady means at least one file exists and the room is queryable
	// (or will be after its ingestion run completes).
	StatusReady Status = "READY"
)

type ChatRoom struct {
	ID          string `gorm:"primaryKey;size:26" json:"id"` // ULID
	Name        string `gorm:"type:varchar(128);not null" json:"name"`
	Description string `gorm:"type:varchar(512)" json:"description"`

	OrganizationID string              `gorm:"type:varchar(26);index;not null" json:"-"`
	Organization   models.Organization `gorm:"foreignKey:OrganizationID" json:"-"`

	Status Status `gorm:"type:varchar(16);not null;default:PENDING" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ChatRoom) TableName() string { return "chat_rooms" }

// CollectionName is the deterministic vector-collection name for a room.
// Collection existence is the source of truth for "has been ingested".
func CollectionName(chatRoomID string) string {
	return "chat_room_" + chatRoomID
}

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// IngestJob tracks one async ingestion run for a chat room.
type IngestJob struct {
	ID string `gorm:"primaryKey;size:26" json:"id"` // ULID length

	ChatRoomID string `gorm:"size:26;index;not null" json:"chat_room_id"`

	Status JobStatus `gorm:"type:varchar(16);index;not null" json:"status"`

	// Filled when failed
	Error *string `gorm:"type:text" json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (IngestJob) TableName() string { return "ingest_jobs" }
