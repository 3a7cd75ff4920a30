package trackerconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
)

const maxShownEvents = 6
const maxAuditLines = 8

// Tracker is the slice of the tracker service the console drives.
type Tracker interface {
	ListListings(ctx context.Context, query tracker.ListingQuery) (tracker.Page[tracker.ListingSummary], error)
	GetListingDetail(ctx context.Context, id uuid.UUID) (tracker.Listing, error)
	CreateApplication(ctx context.Context, listingID uuid.UUID) (tracker.Application, error)
	SyncStatus(ctx context.Context, applicationID uuid.UUID) (tracker.Application, error)
}

type Options struct {
	Search          string
	StatusFilter    string
	PageSize        int
	RefreshInterval time.Duration
}

type trackerModel struct {
	ctx             context.Context
	service         Tracker
	search          string
	statuses        []tracker.Status
	pageSize        int
	refreshInterval time.Duration

	listings      []tracker.ListingSummary
	total         int
	selectedIndex int
	detail        tracker.Listing
	hasDetail     bool
	status        string
	auditLogs     []string
}

type listingsLoadedMsg struct {
	page tracker.Page[tracker.ListingSummary]
	err  error
}

type detailLoadedMsg struct {
	listingID uuid.UUID
	detail    tracker.Listing
	err       error
}

type tickMsg struct{}

type actionDoneMsg struct {
	action    string
	listingID uuid.UUID
	result    string
	err       error
}

func NewTrackerModel(ctx context.Context, service Tracker, options Options) (tea.Model, error) {
	statuses, err := tracker.ParseStatuses(options.StatusFilter)
	if err != nil {
		return nil, err
	}
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &trackerModel{
		ctx:             ctx,
		service:         service,
		search:          strings.TrimSpace(options.Search),
		statuses:        statuses,
		pageSize:        pageSize,
		refreshInterval: interval,
		status:          "loading",
	}, nil
}

func (m *trackerModel) Init() tea.Cmd {
	return tea.Batch(m.loadListingsCmd(), m.tickCmd())
}

func (m *trackerModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadListingsCmd(), m.tickCmd())
	case listingsLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.listings = msg.page.Items
		m.total = msg.page.Total
		if len(m.listings) == 0 {
			m.selectedIndex = 0
			m.hasDetail = false
			m.status = "no listings"
			return m, nil
		}
		m.selectedIndex = min(max(m.selectedIndex, 0), len(m.listings)-1)
		m.status = fmt.Sprintf("refreshed, %d of %d listings", len(m.listings), m.total)
		return m, m.loadSelectedDetailCmd()
	case detailLoadedMsg:
		if !m.isCurrentSelection(msg.listingID) {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.status = "detail failed: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.detail
		m.hasDetail = true
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			m.appendAuditLog(msg.action, msg.listingID, "failed", msg.err)
		} else {
			m.status = fmt.Sprintf("%s done: %s", msg.action, msg.result)
			m.appendAuditLog(msg.action, msg.listingID, msg.result, nil)
		}
		return m, m.loadListingsCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadListingsCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.listings)-1 {
				m.selectedIndex++
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "a":
			return m, m.applyCmd()
		case "y":
			return m, m.syncCmd()
		}
	}
	return m, nil
}

func (m *trackerModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Application Tracker"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"search=%s status=%s refresh=%s",
		firstNonEmpty(m.search, "-"),
		firstNonEmpty(joinStatuses(m.statuses), "all"),
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Listings"))
	builder.WriteString("\n")
	if len(m.listings) == 0 {
		builder.WriteString(dimStyle.Render("- no listings"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.listings {
			line := fmt.Sprintf("%-28s %-20s %s", truncate(item.Title, 28), truncate(item.Company, 20), summaryStatus(item))
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if !m.hasDetail {
		builder.WriteString(dimStyle.Render("- no detail"))
		builder.WriteString("\n\n")
	} else {
		builder.WriteString(fmt.Sprintf("Listing: %s\n", m.detail.ID))
		builder.WriteString(fmt.Sprintf("URL: %s\n", m.detail.URL))
		if m.detail.Location != nil {
			builder.WriteString(fmt.Sprintf("Location: %s\n", *m.detail.Location))
		}
		if len(m.detail.Skills) > 0 {
			builder.WriteString(fmt.Sprintf("Skills: %s\n", strings.Join(m.detail.Skills, ", ")))
		}
		if len(m.detail.Applications) == 0 {
			builder.WriteString("\nApplications: none\n")
		}
		for _, app := range m.detail.Applications {
			builder.WriteString(fmt.Sprintf("\nApplication %s [%s since %s]\n", app.ID, app.CurrentStatus, app.LastStatusAt))
			events := app.StatusEvents
			start := max(len(events)-maxShownEvents, 0)
			for _, event := range events[start:] {
				builder.WriteString("- " + describeEvent(event) + "\n")
			}
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Audit Log"))
	builder.WriteString("\n")
	if len(m.auditLogs) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.auditLogs {
			builder.WriteString("- " + line + "\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j move  g refresh  a apply  y resync  q quit"))
	return builder.String()
}

func (m *trackerModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *trackerModel) loadListingsCmd() tea.Cmd {
	query := tracker.ListingQuery{
		Search:   m.search,
		Statuses: m.statuses,
		SortBy:   tracker.SortLastStatusAt,
		SortDir:  tracker.SortDesc,
		Page:     1,
		Size:     m.pageSize,
	}
	return func() tea.Msg {
		page, err := m.service.ListListings(m.ctx, query)
		return listingsLoadedMsg{page: page, err: err}
	}
}

func (m *trackerModel) loadSelectedDetailCmd() tea.Cmd {
	selected, ok := m.selectedListing()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		detail, err := m.service.GetListingDetail(m.ctx, selected.ID)
		return detailLoadedMsg{listingID: selected.ID, detail: detail, err: err}
	}
}

func (m *trackerModel) applyCmd() tea.Cmd {
	selected, ok := m.selectedListing()
	if !ok {
		m.status = "no listing selected"
		return nil
	}
	m.status = "creating application"
	return func() tea.Msg {
		app, err := m.service.CreateApplication(m.ctx, selected.ID)
		if err != nil {
			return actionDoneMsg{action: "apply", listingID: selected.ID, err: err}
		}
		return actionDoneMsg{action: "apply", listingID: selected.ID, result: app.ID.String()}
	}
}

// syncCmd resyncs every application of the selected listing.
func (m *trackerModel) syncCmd() tea.Cmd {
	selected, ok := m.selectedListing()
	if !ok || !m.hasDetail || m.detail.ID != selected.ID {
		m.status = "no detail loaded"
		return nil
	}
	ids := make([]uuid.UUID, 0, len(m.detail.Applications))
	for _, app := range m.detail.Applications {
		ids = append(ids, app.ID)
	}
	m.status = "resyncing"
	return func() tea.Msg {
		for _, id := range ids {
			if _, err := m.service.SyncStatus(m.ctx, id); err != nil {
				return actionDoneMsg{action: "resync", listingID: selected.ID, err: err}
			}
		}
		return actionDoneMsg{action: "resync", listingID: selected.ID, result: fmt.Sprintf("%d applications", len(ids))}
	}
}

func (m *trackerModel) selectedListing() (tracker.ListingSummary, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.listings) {
		return tracker.ListingSummary{}, false
	}
	return m.listings[m.selectedIndex], true
}

func (m *trackerModel) isCurrentSelection(id uuid.UUID) bool {
	selected, ok := m.selectedListing()
	return ok && selected.ID == id
}

func (m *trackerModel) appendAuditLog(action string, listingID uuid.UUID, result string, err error) {
	line := fmt.Sprintf("%s %s %s -> %s", time.Now().Format("15:04:05"), action, shortID(listingID), result)
	if err != nil {
		line += " (" + err.Error() + ")"
		logging.Warn(
			logging.WithAttrs(m.ctx, slog.String("component", "usecase.trackerconsole")),
			"console action failed",
			slog.String("action", action),
			slog.String("listing_id", listingID.String()),
			slog.Any("err", errs.Loggable(err)),
		)
	}
	m.auditLogs = append(m.auditLogs, line)
	if len(m.auditLogs) > maxAuditLines {
		m.auditLogs = m.auditLogs[len(m.auditLogs)-maxAuditLines:]
	}
}

func summaryStatus(item tracker.ListingSummary) string {
	if item.CurrentStatus == nil {
		return "-"
	}
	if item.LastStatusAt == nil {
		return string(*item.CurrentStatus)
	}
	return fmt.Sprintf("%s (%s)", *item.CurrentStatus, *item.LastStatusAt)
}

func describeEvent(event tracker.StatusEvent) string {
	line := event.Date.String() + " " + string(event.Status)
	switch details := event.Details.(type) {
	case tracker.InterviewDetails:
		line += fmt.Sprintf(" stage=%d", details.Stage)
		if len(details.Interviewers) > 0 {
			line += " with " + joinPeople(details.Interviewers)
		}
	case tracker.AppliedDetails:
		if len(details.Referrals) > 0 {
			line += " via " + joinPeople(details.Referrals)
		}
	}
	if event.Notes != nil && strings.TrimSpace(*event.Notes) != "" {
		line += ": " + firstLine(*event.Notes)
	}
	return line
}

func joinPeople(people []tracker.Person) string {
	names := make([]string, 0, len(people))
	for _, person := range people {
		names = append(names, person.Name)
	}
	return strings.Join(names, ", ")
}

func joinStatuses(statuses []tracker.Status) string {
	parts := make([]string, 0, len(statuses))
	for _, status := range statuses {
		parts = append(parts, string(status))
	}
	return strings.Join(parts, ",")
}

func truncate(value string, width int) string {
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	return string(runes[:width-1]) + "…"
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func firstLine(value string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(value), "\n")
	return line
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
