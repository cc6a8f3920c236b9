package chatroom

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, room *ChatRoom) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*ChatRoom, error) {
	var room ChatRoom
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// GetWithOrganization loads a room together with its owning organization,
// which carries the tenant OpenAI key the RAG pipelines need.
func (r *Repo) GetWithOrganization(ctx context.Context, id string) (*ChatRoom, error) {
	var room ChatRoom
	if err := r.db.WithContext(ctx).
		Preload("Organization").
		First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repo) ListByOrganization(ctx context.Context, orgID string) ([]ChatRoom, error) {
	var rooms []ChatRoom
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *Repo) CountByOrganization(ctx context.Context, orgID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&ChatRoom{}).
		Where("organization_id = ?", orgID).
		Count(&cnt).Error
	return cnt, err
}

func (r *Repo) UpdateDetails(ctx context.Context, id, name, description string) error {
	return r.db.WithContext(ctx).Model(&ChatRoom{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":        name,
			"description": description,
		}).Error
}

// UpdateStatusFrom is a guarded status transition (compare-and-swap).
// Returns the number of rows changed so callers can tell whether the
// transition actually happened.
func (r *Repo) UpdateStatusFrom(ctx context.Context, id string, from, to Status) (int64, error) {
	res := r.db.WithContext(ctx).Model(&ChatRoom{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (r *Repo) SetStatus(ctx context.Context, id string, status Status) error {
	return r.db.WithContext(ctx).Model(&ChatRoom{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Job CRUD
func (r *Repo) CreateJob(ctx context.Context, job *IngestJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) GetJobByID(ctx context.Context, id string) (*IngestJob, error) {
	var j IngestJob
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// GetActiveJobByRoom returns a queued or running job for the room, if any.
func (r *Repo) GetActiveJobByRoom(ctx context.Context, chatRoomID string) (*IngestJob, error) {
	var j IngestJob
	err := r.db.WithContext(ctx).
		Where("chat_room_id = ? AND status IN ?", chatRoomID, []JobStatus{JobQueued, JobRunning}).
		First(&j).Error
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repo) UpdateJobStatusRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&IngestJob{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning).Error
}

func (r *Repo) MarkJobSucceeded(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&IngestJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": JobSucceeded,
			"error":  nil,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&IngestJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": JobFailed,
			"error":  errMsg,
		}).Error
}
