package tracker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	domaintracker "applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
)

func (s *Service) GetResume(ctx context.Context, id uuid.UUID) (domaintracker.Resume, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.Resume{}, err
	}
	return s.resumes.Get(ctx, id)
}

// UpdateResume replaces the template and sections of a stored resume.
// Sections must be a JSON array; an empty value stores [].
func (s *Service) UpdateResume(ctx context.Context, resume domaintracker.Resume) (domaintracker.Resume, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.Resume{}, err
	}
	if strings.TrimSpace(resume.TemplateID) == "" {
		return domaintracker.Resume{}, errs.Validationf("resume template_id is required")
	}
	if len(resume.Sections) == 0 {
		resume.Sections = json.RawMessage("[]")
	}
	var sections []json.RawMessage
	if err := json.Unmarshal(resume.Sections, &sections); err != nil {
		return domaintracker.Resume{}, errs.Validationf("resume sections must be a JSON array: %v", err)
	}
	if err := s.resumes.Update(ctx, resume); err != nil {
		return domaintracker.Resume{}, err
	}
	return resume, nil
}

func (s *Service) DeleteResume(ctx context.Context, id uuid.UUID) error {
	if err := requireContext(ctx); err != nil {
		return err
	}
	return s.resumes.Delete(ctx, id)
}
