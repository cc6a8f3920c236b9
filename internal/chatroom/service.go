package chatroom

import (
	"context"
	"errors"

	"github.com/docuchat/backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrPlanLimit  = errors.New("chat room limit reached for current plan")
	ErrJobRunning = errors.New("an ingestion job is already queued or running")
)

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, org *models.Organization, name, description string) (*ChatRoom, error) {
	if org.Subscription == models.PlanSolo {
		cnt, err := s.repo.CountByOrganization(ctx, org.ID)
		if err != nil {
			return nil, err
		}
		if cnt >= models.SoloMaxChatRooms {
			return nil, ErrPlanLimit
		}
	}

	id, err := NewID()
	if err != nil {
		return nil, err
	}

	room := &ChatRoom{
		ID:             id,
		Name:           name,
		Description:    description,
		OrganizationID: org.ID,
		Status:         StatusPending,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Service) List(ctx context.Context, orgID string) ([]ChatRoom, error) {
	return s.repo.ListByOrganization(ctx, orgID)
}

// GetOwned returns the room only when it belongs to the organization.
func (s *Service) GetOwned(ctx context.Context, orgID, roomID string) (*ChatRoom, error) {
	room, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	return room, nil
}

// GetOwnedWithOrg is GetOwned with the organization preloaded, for callers
// that need the organization name or plan.
func (s *Service) GetOwnedWithOrg(ctx context.Context, orgID, roomID string) (*ChatRoom, error) {
	room, err := s.repo.GetWithOrganization(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	return room, nil
}

func (s *Service) UpdateDetails(ctx context.Context, orgID, roomID, name, description string) error {
	if _, err := s.GetOwned(ctx, orgID, roomID); err != nil {
		return err
	}
	return s.repo.UpdateDetails(ctx, roomID, name, description)
}

// Readiness tracker. Transitions are guarded updates so concurrent file
// mutations cannot double-apply them.

// MarkFileUploaded flips PENDING -> READY after the first file lands.
func (s *Service) MarkFileUploaded(ctx context.Context, roomID string) error {
	_, err := s.repo.UpdateStatusFrom(ctx, roomID, StatusPending, StatusReady)
	return err
}

// MarkFileDeleted flips READY -> PENDING once the last file is gone.
func (s *Service) MarkFileDeleted(ctx context.Context, roomID string, remainingFiles int) error {
	if remainingFiles > 0 {
		return nil
	}
	_, err := s.repo.UpdateStatusFrom(ctx, roomID, StatusReady, StatusPending)
	return err
}

// MarkIngested records a successful ingestion run.
func (s *Service) MarkIngested(ctx context.Context, roomID string) error {
	return s.repo.SetStatus(ctx, roomID, StatusReady)
}

// EnqueueIngest creates a queued ingest job for the room, refusing when one
// is already in flight.
func (s *Service) EnqueueIngest(ctx context.Context, orgID, roomID string) (*IngestJob, error) {
	if _, err := s.GetOwned(ctx, orgID, roomID); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetActiveJobByRoom(ctx, roomID); err == nil {
		return nil, ErrJobRunning
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	id, err := NewID()
	if err != nil {
		return nil, err
	}
	job := &IngestJob{
		ID:         id,
		ChatRoomID: roomID,
		Status:     JobQueued,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*IngestJob, error) {
	return s.repo.GetJobByID(ctx, jobID)
}
