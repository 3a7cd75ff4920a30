package seed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"applytrack/internal/domain/tracker"
)

type Fixture struct {
	Listings []ListingFixture `toml:"listings" yaml:"listings"`
}

type ListingFixture struct {
	URL          string               `toml:"url" yaml:"url"`
	Title        string               `toml:"title" yaml:"title"`
	Company      string               `toml:"company" yaml:"company"`
	Domain       string               `toml:"domain" yaml:"domain"`
	Location     string               `toml:"location" yaml:"location"`
	Description  string               `toml:"description" yaml:"description"`
	Notes        string               `toml:"notes" yaml:"notes"`
	PostedDate   string               `toml:"posted_date" yaml:"posted_date"`
	Skills       []string             `toml:"skills" yaml:"skills"`
	Requirements []string             `toml:"requirements" yaml:"requirements"`
	Applications []ApplicationFixture `toml:"applications" yaml:"applications"`
}

type ApplicationFixture struct {
	Events []EventFixture `toml:"events" yaml:"events"`
}

type EventFixture struct {
	Status       string           `toml:"status" yaml:"status"`
	Date         string           `toml:"date" yaml:"date"`
	Notes        string           `toml:"notes" yaml:"notes"`
	Stage        int              `toml:"stage" yaml:"stage"`
	Interviewers []tracker.Person `toml:"interviewers" yaml:"interviewers"`
	Referrals    []tracker.Person `toml:"referrals" yaml:"referrals"`
}

// LoadFile decodes a fixture as TOML or YAML according to the extension.
func LoadFile(path string) (Fixture, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Fixture{}, errors.New("seed file is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, err
	}

	var fixture Fixture
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(raw, &fixture)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &fixture)
	default:
		return Fixture{}, fmt.Errorf("unsupported seed file extension %q", ext)
	}
	if err != nil {
		return Fixture{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return fixture, nil
}

func (f ListingFixture) Listing() (tracker.Listing, error) {
	listing := tracker.Listing{
		URL:          f.URL,
		Title:        f.Title,
		Company:      f.Company,
		Domain:       f.Domain,
		Description:  f.Description,
		Skills:       f.Skills,
		Requirements: f.Requirements,
	}
	if f.Location != "" {
		listing.Location = &f.Location
	}
	if f.Notes != "" {
		listing.Notes = &f.Notes
	}
	if f.PostedDate != "" {
		date, err := tracker.ParseDate(f.PostedDate)
		if err != nil {
			return tracker.Listing{}, err
		}
		listing.PostedDate = &date
	}
	return listing, nil
}

func (f EventFixture) Event() (tracker.StatusEvent, error) {
	status, err := tracker.ParseStatus(f.Status)
	if err != nil {
		return tracker.StatusEvent{}, err
	}
	event := tracker.StatusEvent{Status: status}
	if f.Date != "" {
		event.Date, err = tracker.ParseDate(f.Date)
		if err != nil {
			return tracker.StatusEvent{}, err
		}
	}
	if f.Notes != "" {
		event.Notes = &f.Notes
	}
	switch status {
	case tracker.StatusInterview:
		event.Details = tracker.InterviewDetails{Stage: f.Stage, Interviewers: f.Interviewers}
	case tracker.StatusApplied:
		if len(f.Referrals) > 0 {
			event.Details = tracker.AppliedDetails{Referrals: f.Referrals}
		}
	}
	return event, nil
}
