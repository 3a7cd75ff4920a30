package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
)

func TestResumeRepositoryLifecycle(t *testing.T) {
	repo := NewResumeRepository(setupDB(t))
	ctx := context.Background()

	resume := tracker.NewResume("classic")
	if err := repo.Create(ctx, resume); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.Get(ctx, resume.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.TemplateID != "classic" || string(got.Sections) != "[]" {
		t.Fatalf("Get() = %+v", got)
	}

	got.TemplateID = "modern"
	got.Sections = json.RawMessage(`[{"type":"summary","content":"Go engineer"}]`)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	updated, err := repo.Get(ctx, resume.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if updated.TemplateID != "modern" || len(updated.Sections) < 10 {
		t.Fatalf("Get() after update = %+v", updated)
	}

	if err := repo.Delete(ctx, resume.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, resume.ID); errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("Get(deleted) error = %v, want not found", err)
	}
	if err := repo.Update(ctx, tracker.Resume{ID: uuid.New(), TemplateID: "x"}); errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("Update(missing) error = %v, want not found", err)
	}
}
