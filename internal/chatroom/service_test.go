package chatroom

import (
	"context"
	"errors"
	"testing"

	"github.com/docuchat/backend/internal/models"
	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Organization{}, &ChatRoom{}, &IngestJob{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedOrg(t *testing.T, db *gorm.DB, plan models.Plan) *models.Organization {
	t.Helper()
	id, err := NewID()
	if err != nil {
		t.Fatalf("org id: %v", err)
	}
	org := &models.Organization{
		ID:           id,
		Name:         "org-" + id,
		Email:        "owner@example.com",
		Subscription: plan,
	}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("create org: %v", err)
	}
	return org
}

func TestCreate_SoloPlanLimit(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	org := seedOrg(t, db, models.PlanSolo)

	for i := 0; i < models.SoloMaxChatRooms; i++ {
		if _, err := svc.Create(context.Background(), org, "room", ""); err != nil {
			t.Fatalf("create room %d: %v", i, err)
		}
	}

	_, err := svc.Create(context.Background(), org, "one too many", "")
	if !errors.Is(err, ErrPlanLimit) {
		t.Fatalf("expected ErrPlanLimit, got %v", err)
	}
}

func TestCreate_TeamPlanUnlimited(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	org := seedOrg(t, db, models.PlanTeam)

	for i := 0; i < models.SoloMaxChatRooms+2; i++ {
		if _, err := svc.Create(context.Background(), org, "room", ""); err != nil {
			t.Fatalf("create room %d: %v", i, err)
		}
	}
}

func TestGetOwned_WrongOrganization(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	owner := seedOrg(t, db, models.PlanTeam)
	other := seedOrg(t, db, models.PlanTeam)

	room, err := svc.Create(context.Background(), owner, "private", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetOwned(context.Background(), other.ID, room.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record-not-found for foreign org, got %v", err)
	}
	if _, err := svc.GetOwned(context.Background(), owner.ID, room.ID); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
}

func TestReadinessTransitions(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	org := seedOrg(t, db, models.PlanTeam)

	room, err := svc.Create(context.Background(), org, "docs", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if room.Status != StatusPending {
		t.Fatalf("new room status = %s, want PENDING", room.Status)
	}

	status := func() Status {
		var r ChatRoom
		if err := db.First(&r, "id = ?", room.ID).Error; err != nil {
			t.Fatalf("reload: %v", err)
		}
		return r.Status
	}

	// first upload flips to READY
	if err := svc.MarkFileUploaded(context.Background(), room.ID); err != nil {
		t.Fatalf("mark uploaded: %v", err)
	}
	if got := status(); got != StatusReady {
		t.Fatalf("after first upload status = %s, want READY", got)
	}

	// further uploads are no-ops
	if err := svc.MarkFileUploaded(context.Background(), room.ID); err != nil {
		t.Fatalf("second mark uploaded: %v", err)
	}
	if got := status(); got != StatusReady {
		t.Fatalf("after second upload status = %s, want READY", got)
	}

	// deleting with files left keeps READY
	if err := svc.MarkFileDeleted(context.Background(), room.ID, 1); err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	if got := status(); got != StatusReady {
		t.Fatalf("with files remaining status = %s, want READY", got)
	}

	// deleting the last file flips back to PENDING
	if err := svc.MarkFileDeleted(context.Background(), room.ID, 0); err != nil {
		t.Fatalf("mark last deleted: %v", err)
	}
	if got := status(); got != StatusPending {
		t.Fatalf("after last delete status = %s, want PENDING", got)
	}
}

func TestEnqueueIngest_RefusesDuplicate(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	svc := NewService(repo)
	org := seedOrg(t, db, models.PlanTeam)

	room, err := svc.Create(context.Background(), org, "docs", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	job, err := svc.EnqueueIngest(context.Background(), org.ID, room.ID)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if job.Status != JobQueued {
		t.Fatalf("job status = %s, want queued", job.Status)
	}

	if _, err := svc.EnqueueIngest(context.Background(), org.ID, room.ID); !errors.Is(err, ErrJobRunning) {
		t.Fatalf("expected ErrJobRunning, got %v", err)
	}

	// still refused while the job is running
	if err := repo.UpdateJobStatusRunning(context.Background(), job.ID); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	if _, err := svc.EnqueueIngest(context.Background(), org.ID, room.ID); !errors.Is(err, ErrJobRunning) {
		t.Fatalf("expected ErrJobRunning while running, got %v", err)
	}

	// a finished job frees the room for the next run
	if err := repo.MarkJobSucceeded(context.Background(), job.ID); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}
	if _, err := svc.EnqueueIngest(context.Background(), org.ID, room.ID); err != nil {
		t.Fatalf("enqueue after success: %v", err)
	}
}

func TestJobFailureRecordsError(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	svc := NewService(repo)
	org := seedOrg(t, db, models.PlanTeam)

	room, err := svc.Create(context.Background(), org, "docs", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	job, err := svc.EnqueueIngest(context.Background(), org.ID, room.ID)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := repo.MarkJobFailed(context.Background(), job.ID, "no files uploaded"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	got, err := svc.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != JobFailed {
		t.Fatalf("job status = %s, want failed", got.Status)
	}
	if got.Error == nil || *got.Error != "no files uploaded" {
		t.Fatalf("job error not recorded: %v", got.Error)
	}
}
