package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"creekwatch/internal/agent"
	"creekwatch/internal/creek"
)

// TestInitialModel tests the initial model creation
func TestInitialModel(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	chat := &stubChatter{reply: agent.Reply{Text: "scripted reply"}}
	m := initialModel(db, chat)

	if m.currentView != chatView {
		t.Errorf("Expected initial view to be chatView, got %v", m.currentView)
	}

	if !m.chatInput.Focused() {
		t.Error("Expected chat input to be focused initially")
	}

	if m.sessionID == "" {
		t.Error("Expected a session ID to be minted")
	}

	if len(m.turns) != 0 {
		t.Errorf("Expected no turns initially, got %d", len(m.turns))
	}

	if m.thinking {
		t.Error("Expected thinking to be false initially")
	}

	if m.err != nil {
		t.Errorf("Expected no error initially, got %v", m.err)
	}

	if len(m.sites) != 4 {
		t.Errorf("Expected 4 sites loaded, got %d", len(m.sites))
	}

	if len(m.siteList.Items()) != 4 {
		t.Errorf("Expected 4 list items, got %d", len(m.siteList.Items()))
	}

	if m.summary == nil || m.summary.Records != 8 {
		t.Errorf("Expected summary with 8 records, got %+v", m.summary)
	}
}

// TestWindowSizeMsg tests that resizing lays out the components
func TestWindowSizeMsg(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})

	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = newModel.(model)

	if !m.viewportReady {
		t.Error("Expected viewportReady after a window size message")
	}

	if m.viewport.Width != 98 {
		t.Errorf("Expected viewport width 98, got %d", m.viewport.Width)
	}

	if m.viewport.Height != 31 {
		t.Errorf("Expected viewport height 31, got %d", m.viewport.Height)
	}

	if m.width != 100 || m.height != 40 {
		t.Errorf("Expected dimensions recorded, got %dx%d", m.width, m.height)
	}
}

// TestChatSubmit tests sending a question through the chat view
func TestChatSubmit(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	chat := &stubChatter{reply: agent.Reply{Text: "scripted reply"}}
	m := initialModel(db, chat)
	m.viewportReady = true

	m.chatInput.SetValue("which site is worst for E. coli?")
	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = newModel.(model)

	if cmd == nil {
		t.Fatal("Expected a command to run the chat request")
	}
	if !m.thinking {
		t.Error("Expected thinking while the request is in flight")
	}
	if m.chatInput.Value() != "" {
		t.Errorf("Expected input cleared, got %q", m.chatInput.Value())
	}

	// Run the command synchronously and feed the reply back in.
	msg := cmd()
	reply, ok := msg.(chatReplyMsg)
	if !ok {
		t.Fatalf("Expected chatReplyMsg, got %T", msg)
	}

	newModel, _ = m.Update(reply)
	m = newModel.(model)

	if m.thinking {
		t.Error("Expected thinking cleared after the reply")
	}
	if len(m.turns) != 1 {
		t.Fatalf("Expected 1 turn, got %d", len(m.turns))
	}
	if m.turns[0].answer != "scripted reply" {
		t.Errorf("Expected scripted reply, got %q", m.turns[0].answer)
	}
	if m.turns[0].failed {
		t.Error("Expected turn not marked failed")
	}

	if len(chat.sessions) != 1 || chat.sessions[0] != m.sessionID {
		t.Errorf("Expected one chat call on session %q, got %v", m.sessionID, chat.sessions)
	}
}

// TestChatSubmitEmpty tests that blank input does not produce a request
func TestChatSubmitEmpty(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	chat := &stubChatter{}
	m := initialModel(db, chat)

	m.chatInput.SetValue("   ")
	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = newModel.(model)

	if cmd != nil {
		t.Error("Expected no command for blank input")
	}
	if m.thinking {
		t.Error("Expected no request for blank input")
	}
}

// TestChatReplyDirective tests that a selectSite directive highlights the site
func TestChatReplyDirective(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})
	m.viewportReady = true

	reply := chatReplyMsg{
		question: "worst site?",
		reply: agent.Reply{
			Text:      "Peavine Creek at North Decatur has the worst reading.",
			Directive: &agent.Directive{Action: agent.ActionSelectSite, Site: "peav@ndec"},
		},
	}
	newModel, _ := m.Update(reply)
	m = newModel.(model)

	if m.selectedSite == nil || m.selectedSite.Code != "peav@ndec" {
		t.Fatalf("Expected peav@ndec selected, got %+v", m.selectedSite)
	}
	if !strings.Contains(m.statusMsg, m.selectedSite.DisplayName()) {
		t.Errorf("Expected status to name the site, got %q", m.statusMsg)
	}
}

// TestChatReplyUnknownDirective tests that an unknown site is ignored
func TestChatReplyUnknownDirective(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})
	m.viewportReady = true

	reply := chatReplyMsg{
		question: "worst site?",
		reply: agent.Reply{
			Text:      "Not sure.",
			Directive: &agent.Directive{Action: agent.ActionSelectSite, Site: "ghost@site"},
		},
	}
	newModel, _ := m.Update(reply)
	m = newModel.(model)

	if m.selectedSite != nil {
		t.Errorf("Expected no site selected for an unknown code, got %+v", m.selectedSite)
	}
}

// TestChatReplyFailed tests that a failed turn keeps the canned reply text
func TestChatReplyFailed(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})
	m.viewportReady = true

	reply := chatReplyMsg{
		question: "anything?",
		reply:    agent.Reply{Text: agent.DefaultErrorReply, Failed: true},
		err:      agent.ErrRemoteCall,
	}
	newModel, _ := m.Update(reply)
	m = newModel.(model)

	if len(m.turns) != 1 {
		t.Fatalf("Expected 1 turn, got %d", len(m.turns))
	}
	if !m.turns[0].failed {
		t.Error("Expected turn marked failed")
	}
	if m.turns[0].answer != agent.DefaultErrorReply {
		t.Errorf("Expected the canned reply, got %q", m.turns[0].answer)
	}
}

// TestChatReplyBareError tests a transport error with no reply text
func TestChatReplyBareError(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})
	m.viewportReady = true

	reply := chatReplyMsg{
		question: "anything?",
		err:      errors.New("connection refused"),
	}
	newModel, _ := m.Update(reply)
	m = newModel.(model)

	if len(m.turns) != 1 {
		t.Fatalf("Expected 1 turn, got %d", len(m.turns))
	}
	if !m.turns[0].failed {
		t.Error("Expected turn marked failed")
	}
	if m.turns[0].answer != "connection refused" {
		t.Errorf("Expected the error text, got %q", m.turns[0].answer)
	}
}

// TestViewSwitching tests moving between the chat and site views
func TestViewSwitching(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})
	m.viewportReady = true

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = newModel.(model)
	if m.currentView != sitesView {
		t.Fatalf("Expected sitesView after Tab, got %v", m.currentView)
	}

	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = newModel.(model)
	if m.currentView != chatView {
		t.Fatalf("Expected chatView after second Tab, got %v", m.currentView)
	}
}

// TestSiteListSelection tests opening a site's detail from the list
func TestSiteListSelection(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})
	m.viewportReady = true
	m.currentView = sitesView

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = newModel.(model)

	if m.currentView != detailView {
		t.Fatalf("Expected detailView after Enter, got %v", m.currentView)
	}
	if m.selectedSite == nil {
		t.Fatal("Expected a selected site")
	}
	if m.returnView != sitesView {
		t.Errorf("Expected returnView sitesView, got %v", m.returnView)
	}

	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = newModel.(model)
	if m.currentView != sitesView {
		t.Errorf("Expected Esc to return to sitesView, got %v", m.currentView)
	}
}

// TestDetailFromChat tests the Ctrl+D shortcut
func TestDetailFromChat(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})
	m.viewportReady = true

	// Without a selected site the shortcut just hints.
	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	m = newModel.(model)
	if m.currentView != chatView {
		t.Fatalf("Expected to stay in chatView, got %v", m.currentView)
	}
	if m.statusMsg == "" {
		t.Error("Expected a hint when no site is selected")
	}

	m.applyDirective("peav@oldb")
	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	m = newModel.(model)
	if m.currentView != detailView {
		t.Fatalf("Expected detailView, got %v", m.currentView)
	}
	if m.returnView != chatView {
		t.Errorf("Expected returnView chatView, got %v", m.returnView)
	}

	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = newModel.(model)
	if m.currentView != chatView {
		t.Errorf("Expected Esc to return to chatView, got %v", m.currentView)
	}
}

// TestRenderSiteDetail tests the detail content for a site with samples
func TestRenderSiteDetail(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})

	var site *creek.Site
	for i := range m.sites {
		if m.sites[i].Code == "peav@oldb" {
			site = &m.sites[i]
		}
	}
	if site == nil {
		t.Fatal("Fixture site peav@oldb missing")
	}

	content := m.renderSiteDetail(*site)

	for _, want := range []string{
		"Old Briarcliff",
		"Latest readings",
		"2024-06-10",
		"Trend, last 8 weeks",
		"Standing among sites",
		"Sample history",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("Expected detail to contain %q", want)
		}
	}
}

// TestRenderSiteDetailNoSamples tests the detail content for an empty site
func TestRenderSiteDetailNoSamples(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})

	var site *creek.Site
	for i := range m.sites {
		if m.sites[i].Records == 0 {
			site = &m.sites[i]
		}
	}
	if site == nil {
		t.Fatal("Fixture has no empty site")
	}

	content := m.renderSiteDetail(*site)
	if !strings.Contains(content, "No samples recorded") {
		t.Errorf("Expected the no-samples notice, got %q", content)
	}
}

// TestSavePromptFlow tests saving the transcript to a file
func TestSavePromptFlow(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})
	m.viewportReady = true

	// Nothing to save yet.
	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlW})
	m = newModel.(model)
	if m.currentView != chatView {
		t.Fatalf("Expected to stay in chatView with no turns, got %v", m.currentView)
	}

	m.turns = append(m.turns, chatTurn{question: "how bad is it?", answer: "Quite bad."})
	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlW})
	m = newModel.(model)
	if m.currentView != savePromptView {
		t.Fatalf("Expected savePromptView, got %v", m.currentView)
	}
	if !strings.HasPrefix(m.saveInput.Value(), "creek_chat_") {
		t.Errorf("Expected a prefilled filename, got %q", m.saveInput.Value())
	}

	path := filepath.Join(t.TempDir(), "transcript.md")
	m.saveInput.SetValue(path)
	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = newModel.(model)
	if cmd == nil {
		t.Fatal("Expected a save command")
	}

	msg := cmd()
	saved, ok := msg.(transcriptSavedMsg)
	if !ok {
		t.Fatalf("Expected transcriptSavedMsg, got %T", msg)
	}
	if saved.err != nil {
		t.Fatalf("Save failed: %v", saved.err)
	}

	newModel, _ = m.Update(saved)
	m = newModel.(model)
	if m.currentView != chatView {
		t.Errorf("Expected chatView after save, got %v", m.currentView)
	}
	if !strings.Contains(m.statusMsg, "Saved transcript") {
		t.Errorf("Expected save confirmation, got %q", m.statusMsg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read transcript: %v", err)
	}
	if !strings.Contains(string(data), "how bad is it?") || !strings.Contains(string(data), "Quite bad.") {
		t.Errorf("Transcript missing the conversation: %q", string(data))
	}
}

// TestSavePromptCancel tests Esc from the save prompt
func TestSavePromptCancel(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})
	m.viewportReady = true
	m.turns = append(m.turns, chatTurn{question: "q", answer: "a"})

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlW})
	m = newModel.(model)
	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = newModel.(model)

	if m.currentView != chatView {
		t.Errorf("Expected chatView after cancel, got %v", m.currentView)
	}
}

// TestSiteItemStrings tests the list item rendering helpers
func TestSiteItemStrings(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})

	var worst, empty siteItem
	for _, it := range m.siteList.Items() {
		si := it.(siteItem)
		switch si.site.Code {
		case "peav@ndec":
			worst = si
		case "burn@burn":
			empty = si
		}
	}

	if !strings.Contains(worst.Title(), "🔴") {
		t.Errorf("Expected exceeding site marked red, got %q", worst.Title())
	}
	if !strings.Contains(worst.Description(), "E. coli 200") {
		t.Errorf("Expected latest reading in description, got %q", worst.Description())
	}
	if empty.Description() != "no samples yet" {
		t.Errorf("Expected empty site description, got %q", empty.Description())
	}
	if !strings.Contains(worst.FilterValue(), "peav@ndec") {
		t.Errorf("Expected code in filter value, got %q", worst.FilterValue())
	}
}

// TestComplianceCounts tests the sites view tally
func TestComplianceCounts(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	latest, err := db.LatestAll()
	if err != nil {
		t.Fatalf("LatestAll failed: %v", err)
	}
	std, _ := creek.StandardFor(creek.MetricEColi)

	compliant, total := complianceCounts(latest, std)
	if total != 3 {
		t.Errorf("Expected 3 sites with readings, got %d", total)
	}
	if compliant != 1 {
		t.Errorf("Expected 1 compliant site (a reading at the threshold passes), got %d", compliant)
	}
}

// TestTranscriptRendering tests the welcome text and failed turn styling
func TestTranscriptRendering(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})

	welcome := m.renderTranscript()
	if !strings.Contains(welcome, "CreekWatch") {
		t.Errorf("Expected welcome text, got %q", welcome)
	}

	m.turns = append(m.turns, chatTurn{question: "hello?", answer: "The model is unreachable.", failed: true})
	transcript := m.renderTranscript()
	if !strings.Contains(transcript, "hello?") {
		t.Error("Expected the question in the transcript")
	}
	if !strings.Contains(transcript, "The model is unreachable.") {
		t.Error("Expected the failure text in the transcript")
	}
}

// TestLastAnswer tests that failed turns are skipped when copying
func TestLastAnswer(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	m := initialModel(db, &stubChatter{})

	if m.lastAnswer() != "" {
		t.Errorf("Expected no answer initially, got %q", m.lastAnswer())
	}

	m.turns = append(m.turns,
		chatTurn{question: "a", answer: "first answer"},
		chatTurn{question: "b", answer: "went wrong", failed: true},
	)
	if m.lastAnswer() != "first answer" {
		t.Errorf("Expected the last successful answer, got %q", m.lastAnswer())
	}
}

// TestDefaultTranscriptName tests the prefilled save filename
func TestDefaultTranscriptName(t *testing.T) {
	name := defaultTranscriptName()
	if !strings.HasPrefix(name, "creek_chat_") || !strings.HasSuffix(name, ".md") {
		t.Errorf("Unexpected transcript name %q", name)
	}
}
