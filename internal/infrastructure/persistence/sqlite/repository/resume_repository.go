package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
	"applytrack/internal/infrastructure/persistence/sqlite/model"
	"applytrack/internal/ports"
)

type ResumeRepository struct {
	db *gorm.DB
}

var _ ports.ResumeRepository = (*ResumeRepository)(nil)

func NewResumeRepository(db *gorm.DB) *ResumeRepository {
	return &ResumeRepository{db: db}
}

func (r *ResumeRepository) Get(ctx context.Context, id uuid.UUID) (tracker.Resume, error) {
	db, _, err := dbFromContext(ctx, r.db)
	if err != nil {
		return tracker.Resume{}, err
	}

	var row model.Resume
	if err := db.Where("id = ?", id.String()).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tracker.Resume{}, errs.NotFoundf("resume %s not found", id)
		}
		return tracker.Resume{}, errs.Storage("query resume", err)
	}
	return resumeFromModel(row)
}

func (r *ResumeRepository) Create(ctx context.Context, resume tracker.Resume) error {
	db, _, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := resumeToModel(resume)
	if err := db.Create(&row).Error; err != nil {
		return errs.Storage("insert resume", err)
	}
	return nil
}

func (r *ResumeRepository) Update(ctx context.Context, resume tracker.Resume) error {
	db, _, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := resumeToModel(resume)
	result := db.Model(&model.Resume{}).Where("id = ?", row.ID).Updates(map[string]any{
		"template_id": row.TemplateID,
		"sections":    row.Sections,
	})
	if result.Error != nil {
		return errs.Storage("update resume", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NotFoundf("resume %s not found", resume.ID)
	}
	return nil
}

func (r *ResumeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, _, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Where("id = ?", id.String()).Delete(&model.Resume{})
	if result.Error != nil {
		return errs.Storage("delete resume", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NotFoundf("resume %s not found", id)
	}
	return nil
}

func resumeToModel(resume tracker.Resume) model.Resume {
	sections := resume.Sections
	if len(sections) == 0 {
		sections = json.RawMessage("[]")
	}
	return model.Resume{
		ID:         resume.ID.String(),
		TemplateID: resume.TemplateID,
		Sections:   datatypes.JSON(sections),
	}
}

func resumeFromModel(row model.Resume) (tracker.Resume, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return tracker.Resume{}, errs.Wrapf(err, "parse resume id %q", row.ID)
	}
	sections := json.RawMessage(row.Sections)
	if len(sections) == 0 {
		sections = json.RawMessage("[]")
	}
	return tracker.Resume{ID: id, TemplateID: row.TemplateID, Sections: sections}, nil
}
