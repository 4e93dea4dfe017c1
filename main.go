package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"creekwatch/cmd"
	"creekwatch/internal/agent"
	"creekwatch/internal/creek"
	"creekwatch/internal/llm"
)

// logger writes to err.log in the data directory so the TUI screen stays
// clean. dataset.go nil-checks it, which keeps code paths that never call
// setupLogger safe.
var logger *slog.Logger

// setupLogger creates and configures the application logger
func setupLogger(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	logPath := filepath.Join(dataDir, "err.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true, // Include file:line information
	})

	logger = slog.New(handler)
	logger.Info("Application started", "version", "1.0", "data_dir", dataDir)

	return nil
}

// renderMarkdown renders assistant replies with glamour for the transcript
func renderMarkdown(content string, width int) (string, error) {
	// Account for borders, padding, and glamour's internal gutter
	const glamourGutter = 2
	const borderWidth = 4 // 2 for border characters, 2 for padding

	renderWidth := width - borderWidth - glamourGutter
	if renderWidth < 40 {
		renderWidth = 40 // Minimum width for readable content
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return "", err
	}

	return rendered, nil
}

type view int

const (
	chatView view = iota
	sitesView
	detailView
	savePromptView
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	questionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))
)

// chatTurn is one question and answer pair in the transcript.
type chatTurn struct {
	question string
	answer   string
	failed   bool
}

// siteItem adapts a monitoring site for the bubbles list.
type siteItem struct {
	site   creek.Site
	latest *creek.Measurement
}

func (i siteItem) Title() string {
	marker := "  "
	if i.latest != nil {
		if v, ok := i.latest.Value(creek.MetricEColi); ok {
			if std, found := creek.StandardFor(creek.MetricEColi); found {
				switch std.Classify(v) {
				case creek.BandAbove:
					marker = "🔴"
				case creek.BandAt:
					marker = "🟡"
				default:
					marker = "🟢"
				}
			}
		}
	}
	return fmt.Sprintf("%s %s", marker, i.site.DisplayName())
}

func (i siteItem) Description() string {
	if i.site.Records == 0 {
		return "no samples yet"
	}
	ecoli := "E. coli N/A"
	if i.latest != nil && i.latest.EColi.Valid {
		ecoli = fmt.Sprintf("E. coli %.0f MPN/100 mL", i.latest.EColi.Float64)
	}
	return fmt.Sprintf("%d samples (%s), latest %s", i.site.Records, i.site.SampleRangeString(), ecoli)
}

func (i siteItem) FilterValue() string {
	return i.site.Name + " " + i.site.Code
}

type chatReplyMsg struct {
	question string
	reply    agent.Reply
	err      error
}

type transcriptSavedMsg struct {
	filename string
	err      error
}

type model struct {
	store     creek.Store
	assistant Chatter
	sessionID string

	currentView view
	returnView  view

	chatInput textinput.Model
	saveInput textinput.Model
	viewport  viewport.Model
	detail    viewport.Model
	siteList  list.Model

	turns        []chatTurn
	sites        []creek.Site
	latest       []creek.SiteLatest
	summary      *creek.DatasetSummary
	selectedSite *creek.Site

	width         int
	height        int
	viewportReady bool
	thinking      bool
	err           error
	statusMsg     string
}

func initialModel(store creek.Store, assistant Chatter) model {
	chatInput := textinput.New()
	chatInput.Placeholder = "Ask about the creek (e.g. \"which site is worst for E. coli?\")"
	chatInput.Focus()
	chatInput.CharLimit = maxMessageLen
	chatInput.Width = 70

	saveInput := textinput.New()
	saveInput.Placeholder = "conversation.md"
	saveInput.CharLimit = 120
	saveInput.Width = 50

	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	siteList := list.New([]list.Item{}, delegate, 0, 0)
	siteList.Title = "Monitoring Sites"
	siteList.SetShowStatusBar(false)
	siteList.SetFilteringEnabled(true)
	siteList.Styles.Title = lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		Padding(0, 1)

	m := model{
		store:       store,
		assistant:   assistant,
		sessionID:   uuid.New().String(),
		currentView: chatView,
		returnView:  chatView,
		chatInput:   chatInput,
		saveInput:   saveInput,
		viewport:    viewport.New(80, 20),
		detail:      viewport.New(80, 20),
		siteList:    siteList,
	}
	m.loadDataset()
	return m
}

// loadDataset pulls the site roster, latest readings, and dataset summary
// once at startup. The store is in memory, so this is cheap.
func (m *model) loadDataset() {
	sites, err := m.store.Sites()
	if err != nil {
		m.err = fmt.Errorf("failed to load sites: %w", err)
		return
	}
	m.sites = sites

	latest, err := m.store.LatestAll()
	if err != nil {
		m.err = fmt.Errorf("failed to load latest readings: %w", err)
		return
	}
	m.latest = latest

	summary, err := m.store.Summary()
	if err != nil {
		m.err = fmt.Errorf("failed to summarize dataset: %w", err)
		return
	}
	m.summary = summary

	byCode := make(map[string]*creek.Measurement, len(latest))
	for i := range latest {
		byCode[latest[i].Site.Code] = &latest[i].Latest
	}
	items := make([]list.Item, len(sites))
	for i, s := range sites {
		items[i] = siteItem{site: s, latest: byCode[s.Code]}
	}
	m.siteList.SetItems(items)
}

// askAssistant sends one question to the chat agent off the UI goroutine.
func (m *model) askAssistant(question string) tea.Cmd {
	assistant := m.assistant
	sessionID := m.sessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		reply, err := assistant.Chat(ctx, sessionID, question)
		return chatReplyMsg{question: question, reply: reply, err: err}
	}
}

// saveTranscript writes the conversation to a markdown file.
func saveTranscript(turns []chatTurn, filename string) tea.Cmd {
	return func() tea.Msg {
		var b strings.Builder
		b.WriteString("# CreekWatch conversation\n\n")
		b.WriteString(fmt.Sprintf("Saved %s\n\n", time.Now().Format("2006-01-02 15:04")))
		for _, t := range turns {
			b.WriteString(fmt.Sprintf("## %s\n\n", t.question))
			b.WriteString(t.answer)
			b.WriteString("\n\n")
		}

		if err := os.WriteFile(filename, []byte(b.String()), 0644); err != nil {
			return transcriptSavedMsg{err: fmt.Errorf("failed to save transcript: %w", err)}
		}
		return transcriptSavedMsg{filename: filename}
	}
}

func defaultTranscriptName() string {
	return fmt.Sprintf("creek_chat_%s.md", time.Now().Format("2006-01-02"))
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// header, status, input box, and help line take 9 rows
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = msg.Height - 9
		if m.viewport.Height < 5 {
			m.viewport.Height = 5
		}
		m.detail.Width = msg.Width - 2
		m.detail.Height = msg.Height - 4
		if m.detail.Height < 5 {
			m.detail.Height = 5
		}
		m.siteList.SetSize(msg.Width-4, msg.Height-10)
		m.chatInput.Width = msg.Width - 8
		m.viewportReady = true

		m.viewport.SetContent(m.renderTranscript())
		if m.currentView == detailView && m.selectedSite != nil {
			m.detail.SetContent(m.renderSiteDetail(*m.selectedSite))
		}
		return m, nil

	case tea.KeyMsg:
		switch m.currentView {
		case chatView:
			return m.handleChatViewKeys(msg)
		case sitesView:
			return m.handleSitesViewKeys(msg)
		case detailView:
			return m.handleDetailViewKeys(msg)
		case savePromptView:
			return m.handleSavePromptKeys(msg)
		}

	case chatReplyMsg:
		m.thinking = false
		turn := chatTurn{question: msg.question, answer: msg.reply.Text, failed: msg.reply.Failed}
		if msg.err != nil && msg.reply.Text == "" {
			turn.answer = msg.err.Error()
			turn.failed = true
		}
		m.turns = append(m.turns, turn)

		if msg.reply.Directive != nil && msg.reply.Directive.Action == agent.ActionSelectSite {
			m.applyDirective(msg.reply.Directive.Site)
		}
		if turn.failed && logger != nil {
			logger.Error("Chat turn failed", "error", msg.err, "session", m.sessionID)
		}

		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case transcriptSavedMsg:
		m.currentView = chatView
		m.saveInput.Blur()
		m.chatInput.Focus()
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.statusMsg = fmt.Sprintf("Saved transcript to %s", msg.filename)
		}
		return m, textinput.Blink
	}

	// Remaining message types (mouse wheel, blink ticks) go to whichever
	// component the current view shows.
	var cmd tea.Cmd
	switch m.currentView {
	case chatView:
		m.viewport, cmd = m.viewport.Update(msg)
	case sitesView:
		m.siteList, cmd = m.siteList.Update(msg)
	case detailView:
		m.detail, cmd = m.detail.Update(msg)
	}
	return m, cmd
}

func (m model) handleChatViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyTab:
		m.currentView = sitesView
		return m, nil

	case tea.KeyCtrlD:
		if m.selectedSite != nil {
			return m.openDetail(*m.selectedSite, chatView)
		}
		m.statusMsg = "No site selected yet. Ask about one, or pick from the site list (Tab)."
		return m, nil

	case tea.KeyCtrlY:
		last := m.lastAnswer()
		if last == "" {
			return m, nil
		}
		if err := clipboard.WriteAll(last); err != nil {
			m.err = fmt.Errorf("failed to copy to clipboard: %w", err)
		} else {
			m.err = nil
			m.statusMsg = "Copied last reply to clipboard"
		}
		return m, nil

	case tea.KeyCtrlW:
		if len(m.turns) == 0 {
			m.statusMsg = "Nothing to save yet"
			return m, nil
		}
		m.saveInput.SetValue(defaultTranscriptName())
		m.saveInput.Focus()
		m.chatInput.Blur()
		m.currentView = savePromptView
		return m, textinput.Blink

	case tea.KeyEsc:
		m.chatInput.SetValue("")
		m.err = nil
		m.statusMsg = ""
		return m, nil

	case tea.KeyEnter:
		question := strings.TrimSpace(m.chatInput.Value())
		if question == "" || m.thinking {
			return m, nil
		}
		m.chatInput.SetValue("")
		m.thinking = true
		m.err = nil
		m.statusMsg = ""
		return m, m.askAssistant(question)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m model) handleSitesViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the list filter is open it owns the keyboard.
	if m.siteList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.siteList, cmd = m.siteList.Update(msg)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyTab, tea.KeyEsc:
		m.currentView = chatView
		return m, textinput.Blink

	case tea.KeyEnter:
		if item, ok := m.siteList.SelectedItem().(siteItem); ok {
			site := item.site
			m.selectedSite = &site
			return m.openDetail(site, sitesView)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.siteList, cmd = m.siteList.Update(msg)
	return m, cmd
}

func (m model) handleDetailViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		m.currentView = m.returnView
		if m.returnView == chatView {
			return m, textinput.Blink
		}
		return m, nil

	case tea.KeyCtrlY:
		if m.selectedSite != nil {
			if err := clipboard.WriteAll(m.siteClipboardText(*m.selectedSite)); err != nil {
				m.err = fmt.Errorf("failed to copy to clipboard: %w", err)
			} else {
				m.err = nil
				m.statusMsg = "Copied site summary to clipboard"
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m model) handleSavePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		m.currentView = chatView
		m.saveInput.Blur()
		m.chatInput.Focus()
		return m, textinput.Blink

	case tea.KeyEnter:
		filename := strings.TrimSpace(m.saveInput.Value())
		if filename == "" {
			filename = defaultTranscriptName()
		}
		if !strings.HasSuffix(filename, ".md") {
			filename += ".md"
		}
		return m, saveTranscript(m.turns, filename)
	}

	var cmd tea.Cmd
	m.saveInput, cmd = m.saveInput.Update(msg)
	return m, cmd
}

// openDetail switches to the detail view for a site, remembering where to
// return on Esc.
func (m model) openDetail(site creek.Site, from view) (tea.Model, tea.Cmd) {
	m.selectedSite = &site
	m.returnView = from
	m.currentView = detailView
	m.detail.SetContent(m.renderSiteDetail(site))
	m.detail.GotoTop()
	return m, nil
}

// applyDirective highlights the site the assistant pointed at.
func (m *model) applyDirective(code string) {
	for i := range m.sites {
		if m.sites[i].Code != code {
			continue
		}
		m.selectedSite = &m.sites[i]
		m.statusMsg = fmt.Sprintf("Assistant highlighted %s. Ctrl+D opens its details.", m.sites[i].DisplayName())
		for j, it := range m.siteList.Items() {
			if si, ok := it.(siteItem); ok && si.site.Code == code {
				m.siteList.Select(j)
				break
			}
		}
		return
	}
	if logger != nil {
		logger.Warn("Directive named unknown site", "site", code)
	}
}

func (m *model) lastAnswer() string {
	for i := len(m.turns) - 1; i >= 0; i-- {
		if !m.turns[i].failed {
			return m.turns[i].answer
		}
	}
	return ""
}

func (m *model) renderTranscript() string {
	if len(m.turns) == 0 {
		return m.welcomeText()
	}

	var b strings.Builder
	for _, t := range m.turns {
		b.WriteString(questionStyle.Render("You: " + t.question))
		b.WriteString("\n")
		if t.failed {
			b.WriteString(errorStyle.Render(t.answer))
			b.WriteString("\n\n")
			continue
		}
		rendered, err := renderMarkdown(t.answer, m.viewport.Width)
		if err != nil {
			rendered = t.answer + "\n"
		}
		b.WriteString(rendered)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *model) welcomeText() string {
	var b strings.Builder
	b.WriteString("# Welcome to CreekWatch\n\n")
	b.WriteString("Ask about the Peavine Creek monitoring data in plain English.\n\n")
	if m.summary != nil && m.summary.Records > 0 {
		b.WriteString(fmt.Sprintf("The dataset covers **%d sites** with **%d samples** (%s).\n\n",
			m.summary.Sites, m.summary.Records, m.summary.DateRangeString()))
	}
	b.WriteString("Try:\n\n")
	b.WriteString("- which site had the worst E. coli reading?\n")
	b.WriteString("- is the creek within the EPA limit for E. coli?\n")
	b.WriteString("- how has turbidity at Old Briarcliff Way changed lately?\n")

	rendered, err := renderMarkdown(b.String(), m.viewport.Width)
	if err != nil {
		return b.String()
	}
	return rendered
}

// renderSiteDetail builds the scrollable site dashboard: latest readings
// against the screening thresholds, recent trends, standing among the other
// sites, and the sample history.
func (m *model) renderSiteDetail(site creek.Site) string {
	var b strings.Builder
	gaugeWidth := 30
	chartWidth := m.detail.Width - 24
	if chartWidth < 20 {
		chartWidth = 20
	}

	b.WriteString(headerStyle.Render("📍 " + site.DisplayName()))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Coordinates: %s\n", site.CoordinatesString()))
	b.WriteString(fmt.Sprintf("Samples:     %d (%s)\n", site.Records, site.SampleRangeString()))

	latest, err := m.store.LatestRecord(site.Code)
	if err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("\nFailed to load readings: %v\n", err)))
		return b.String()
	}
	if latest == nil {
		b.WriteString(helpStyle.Render("\nNo samples recorded for this site yet.\n"))
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Latest readings, sampled %s", latest.DateString())))
	b.WriteString("\n")
	for _, std := range creek.Standards() {
		v, ok := latest.Value(std.Metric)
		if !ok {
			b.WriteString(fmt.Sprintf("  %-10s no reading\n", std.Label))
			continue
		}
		b.WriteString(fmt.Sprintf("  %-10s %s\n", std.Label, ThresholdGauge(v, std, gaugeWidth)))
		b.WriteString(helpStyle.Render("             " + std.Explain(v)))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("  %-10s %s\n", "Coliform", latest.TotalColiformString()))

	end := latest.Timestamp
	start := end.AddDate(0, 0, -7*agent.DefaultTrendWeeks)
	records, err := m.store.RecordsInWindow(site.Code, start, end)
	if err == nil {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(fmt.Sprintf("Trend, last %d weeks", agent.DefaultTrendWeeks)))
		b.WriteString("\n")
		for _, std := range creek.Standards() {
			points := creek.TrendPoints(records, std.Metric)
			direction := creek.DirectionOf(creek.PointValues(points))
			b.WriteString(fmt.Sprintf("  %-10s %s\n", std.Label, TrendLine(points, direction)))
		}
	}

	if std, ok := creek.StandardFor(creek.MetricEColi); ok {
		ranked, _ := creek.RankByMetric(m.latest, creek.MetricEColi, nil)
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Standing among sites, E. coli"))
		b.WriteString("\n")
		b.WriteString(RankingChart(ranked, std, chartWidth))
	}

	if m.summary != nil && len(m.summary.Metrics) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Across all sites, latest readings"))
		b.WriteString("\n")
		for _, ms := range m.summary.Metrics {
			if !ms.Min.Valid || !ms.Avg.Valid || !ms.Max.Valid {
				continue
			}
			label := ms.Metric
			if std, ok := creek.StandardFor(ms.Metric); ok {
				label = std.Label
			}
			b.WriteString(fmt.Sprintf("  %-10s %s\n", label,
				RangeBar(ms.Min.Float64, ms.Avg.Float64, ms.Max.Float64, chartWidth)))
		}
	}

	history, err := m.store.RecordsForSite(site.Code)
	if err == nil && len(history) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Sample history"))
		b.WriteString("\n")
		if vals := creek.PointValues(creek.TrendPoints(history, creek.MetricEColi)); len(vals) > 1 {
			b.WriteString(fmt.Sprintf("  E. coli over time: %s\n", Sparkline(vals)))
		}
		b.WriteString(helpStyle.Render(fmt.Sprintf("  %-12s %-22s %-8s %s", "Date", "E. coli", "pH", "Turbidity")))
		b.WriteString("\n")
		shown := 0
		for i := len(history) - 1; i >= 0 && shown < 12; i-- {
			rec := &history[i]
			b.WriteString(fmt.Sprintf("  %-12s %-22s %-8s %s\n",
				rec.DateString(), rec.EColiString(), rec.PHString(), rec.TurbidityString()))
			shown++
		}
		if len(history) > shown {
			b.WriteString(helpStyle.Render(fmt.Sprintf("  ... and %d earlier samples", len(history)-shown)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// siteClipboardText is the plain-text version of the site detail for
// pasting elsewhere.
func (m *model) siteClipboardText(site creek.Site) string {
	var b strings.Builder
	b.WriteString(site.DisplayName() + "\n")
	b.WriteString(fmt.Sprintf("Coordinates: %s\n", site.CoordinatesString()))
	b.WriteString(fmt.Sprintf("Samples: %d (%s)\n", site.Records, site.SampleRangeString()))
	if latest, err := m.store.LatestRecord(site.Code); err == nil && latest != nil {
		b.WriteString(fmt.Sprintf("Latest sample %s: E. coli %s, pH %s, turbidity %s, total coliform %s\n",
			latest.DateString(), latest.EColiString(), latest.PHString(),
			latest.TurbidityString(), latest.TotalColiformString()))
		for _, std := range creek.Standards() {
			if v, ok := latest.Value(std.Metric); ok {
				b.WriteString(std.Explain(v) + "\n")
			}
		}
	}
	return b.String()
}

func (m model) View() string {
	if !m.viewportReady {
		return "Loading..."
	}

	switch m.currentView {
	case sitesView:
		return m.sitesViewRender()
	case detailView:
		return m.detailViewRender()
	case savePromptView:
		return m.savePromptViewRender()
	default:
		return m.chatViewRender()
	}
}

func (m model) statusLine() string {
	switch {
	case m.thinking:
		return statusStyle.Render("⏳ Thinking...")
	case m.err != nil:
		return errorStyle.Render("Error: " + m.err.Error())
	case m.statusMsg != "":
		return successStyle.Render(m.statusMsg)
	}
	return ""
}

func (m model) chatViewRender() string {
	header := headerStyle.Render("💧 CreekWatch")
	help := helpStyle.Render("Enter: send • Tab: sites • Ctrl+D: site detail • Ctrl+Y: copy reply • Ctrl+W: save • Ctrl+C: quit")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		header,
		m.viewport.View(),
		m.statusLine(),
		inputStyle.Render(m.chatInput.View()),
		help,
	)
}

func (m model) sitesViewRender() string {
	var header strings.Builder
	header.WriteString(headerStyle.Render("💧 CreekWatch: monitoring sites"))
	header.WriteString("\n")
	if std, ok := creek.StandardFor(creek.MetricEColi); ok {
		compliant, total := complianceCounts(m.latest, std)
		width := m.width - 30
		if width < 20 {
			width = 20
		}
		header.WriteString(fmt.Sprintf("E. coli (%s): %s\n", std.ThresholdString(), ComplianceSummaryBar(compliant, total, width)))
	}
	if m.summary != nil {
		header.WriteString(helpStyle.Render(fmt.Sprintf("%d samples across %d sites, %s",
			m.summary.Records, m.summary.Sites, m.summary.DateRangeString())))
		header.WriteString("\n")
	}

	help := helpStyle.Render("Enter: details • /: filter • Tab/Esc: back to chat • Ctrl+C: quit")
	return fmt.Sprintf("%s\n%s\n%s", header.String(), m.siteList.View(), help)
}

func (m model) detailViewRender() string {
	scroll := helpStyle.Render(fmt.Sprintf("%3.0f%%", m.detail.ScrollPercent()*100))
	help := helpStyle.Render("↑/↓: scroll • Ctrl+Y: copy summary • Esc: back • Ctrl+C: quit")
	status := m.statusLine()
	if status != "" {
		return fmt.Sprintf("%s\n%s\n%s %s", m.detail.View(), status, help, scroll)
	}
	return fmt.Sprintf("%s\n%s %s", m.detail.View(), help, scroll)
}

func (m model) savePromptViewRender() string {
	header := headerStyle.Render("💾 Save conversation")
	help := helpStyle.Render("Enter: save • Esc: cancel")

	return fmt.Sprintf("%s\n\nFilename for the transcript:\n%s\n\n%s",
		header,
		inputStyle.Render(m.saveInput.View()),
		help,
	)
}

// complianceCounts tallies sites whose latest reading meets the standard.
// Sites with no reading for the metric are left out of the total.
func complianceCounts(latest []creek.SiteLatest, std creek.Standard) (compliant, total int) {
	for i := range latest {
		v, ok := latest[i].Latest.Value(std.Metric)
		if !ok {
			continue
		}
		total++
		if v <= std.Threshold {
			compliant++
		}
	}
	return compliant, total
}

// buildAgent wires the configured chat model to the dataset tools.
func buildAgent(ctx context.Context, store creek.Store, cfg *Config) (*agent.Agent, error) {
	chatModel, err := llm.NewChatModel(ctx, cfg.LLMConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize the %s model: %w", cfg.Provider, err)
	}

	opts := []agent.AgentOption{
		agent.WithChatModel(chatModel),
		agent.WithStore(store),
		agent.WithMaxHistory(cfg.MaxHistory),
	}
	if cfg.ErrorReply != "" {
		opts = append(opts, agent.WithErrorReply(cfg.ErrorReply))
	}
	return agent.New(ctx, opts...)
}

// ensureDataFiles downloads missing dataset files after asking the user.
func ensureDataFiles(dataDir string) bool {
	missing := CheckDataFiles(dataDir)
	if len(missing) == 0 {
		return true
	}

	client, err := NewGitHubClient("")
	if err != nil {
		fmt.Printf("❌ Cannot set up the download cache: %v\n", err)
		return false
	}
	manifest, err := client.FetchManifest()
	if err != nil {
		fmt.Printf("❌ Cannot reach the dataset repository: %v\n", err)
		fmt.Printf("   Place %s and %s in %s and try again.\n", measurementsFile, siteLocationsFile, dataDir)
		return false
	}

	if !PromptUserForDownload(missing, manifest) {
		return false
	}
	if err := DownloadDataFiles(dataDir, missing, manifest); err != nil {
		fmt.Printf("❌ Download failed: %v\n", err)
		return false
	}
	return true
}

func launchTUI(dataDir string) {
	if err := setupLogger(dataDir); err != nil {
		fmt.Printf("❌ Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	if !ensureDataFiles(dataDir) {
		fmt.Println("❌ Cannot proceed without the dataset files. Exiting.")
		os.Exit(1)
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Printf("❌ Configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.RequireCredential(); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	db, err := NewDB(dataDir)
	if err != nil {
		fmt.Printf("❌ Failed to load the dataset: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	assistant, err := buildAgent(ctx, db, cfg)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("🤖 Chat backed by %s (%s), keeping the last %d turns\n", cfg.Provider, cfg.Model, cfg.MaxHistory)

	p := tea.NewProgram(initialModel(db, assistant), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Printf("❌ Error running CreekWatch: %v\n", err)
		os.Exit(1)
	}
}

// initStore opens the dataset for CLI commands. The cleanup func closes it.
func initStore(dataDir string) (creek.Store, func(), error) {
	if err := setupLogger(dataDir); err != nil {
		return nil, nil, err
	}

	if missing := CheckDataFiles(dataDir); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, f := range missing {
			names[i] = f.LocalName
		}
		return nil, nil, fmt.Errorf("missing data files (%s), run \"creekwatch fetch\" first",
			strings.Join(names, ", "))
	}

	db, err := NewDB(dataDir)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}

func startServer(dataDir string, port int) error {
	store, cleanup, err := initStore(dataDir)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireCredential(); err != nil {
		return err
	}

	ctx := context.Background()
	assistant, err := buildAgent(ctx, store, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("🤖 Chat backed by %s (%s)\n", cfg.Provider, cfg.Model)
	return StartServer(ServerConfig{
		Port:     port,
		Store:    store,
		Agent:    assistant,
		Sessions: NewSessionManager(),
	})
}

func fetchData(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	missing := CheckDataFiles(dataDir)
	if len(missing) == 0 {
		fmt.Println("✅ Dataset files already present.")
		return nil
	}

	client, err := NewGitHubClient("")
	if err != nil {
		return err
	}
	manifest, err := client.FetchManifest()
	if err != nil {
		return err
	}
	return DownloadDataFiles(dataDir, missing, manifest)
}

// askQuestion runs a single chat turn for the ask command.
func askQuestion(dataDir, question string) (string, error) {
	store, cleanup, err := initStore(dataDir)
	if err != nil {
		return "", err
	}
	defer cleanup()

	cfg, err := LoadConfig()
	if err != nil {
		return "", err
	}
	if err := cfg.RequireCredential(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	assistant, err := buildAgent(ctx, store, cfg)
	if err != nil {
		return "", err
	}

	reply, err := assistant.Chat(ctx, uuid.New().String(), question)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

func runQuery(dataDir, query string) ([]map[string]interface{}, error) {
	store, cleanup, err := initStore(dataDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, ok := store.(*DB)
	if !ok {
		return nil, fmt.Errorf("store does not support raw queries")
	}
	return db.ExecuteQuery(query)
}

func main() {
	cmd.LaunchTUI = launchTUI
	cmd.InitStore = initStore
	cmd.StartServer = startServer
	cmd.FetchData = fetchData
	cmd.AskQuestion = askQuestion
	cmd.RunQuery = runQuery

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
