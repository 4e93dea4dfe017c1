package main

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"creekwatch/internal/agent"
	"creekwatch/internal/creek"
)

// maxMessageLen caps a single chat message, matching the API contract.
const maxMessageLen = 2000

// WebHandler handles HTMX HTML requests
type WebHandler struct {
	Store     creek.Store
	Agent     Chatter
	Sessions  *SessionManager
	templates *template.Template
}

// NewWebHandler creates a new WebHandler with parsed templates
func NewWebHandler(store creek.Store, chatAgent Chatter, sessions *SessionManager) *WebHandler {
	tmpl := template.Must(template.ParseGlob("templates/*.html"))
	template.Must(tmpl.ParseGlob("templates/partials/*.html"))
	return &WebHandler{
		Store:     store,
		Agent:     chatAgent,
		Sessions:  sessions,
		templates: tmpl,
	}
}

// siteRow is the dashboard's per-site latest-readings view.
type siteRow struct {
	Site      creek.Site
	Latest    creek.Measurement
	OverEColi bool
}

// Dashboard renders the main monitoring page
func (h *WebHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Store.Summary()
	if err != nil {
		log.Printf("Summary error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	latest, err := h.Store.LatestAll()
	if err != nil {
		log.Printf("Latest readings error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	std, _ := creek.StandardFor(creek.MetricEColi)
	rows := make([]siteRow, 0, len(latest))
	for i := range latest {
		v, ok := latest[i].Latest.Value(creek.MetricEColi)
		rows = append(rows, siteRow{
			Site:      latest[i].Site,
			Latest:    latest[i].Latest,
			OverEColi: ok && v > std.Threshold,
		})
	}

	data := map[string]interface{}{
		"Title":       "CreekWatch",
		"Summary":     summary,
		"DateRange":   summary.DateRangeString(),
		"Rows":        rows,
		"Exceedances": creek.ExceedingSites(latest, std),
		"Standard":    std,
	}

	if err := h.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// SiteDetail renders one site's panel. HTMX requests get the bare card to
// swap into the dashboard; direct visits get a full page around it.
func (h *WebHandler) SiteDetail(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	card, err := h.siteCard(code)
	if err != nil {
		if errors.Is(err, creek.ErrUnknownSite) {
			http.NotFound(w, r)
			return
		}
		log.Printf("Site lookup error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		if err := h.templates.ExecuteTemplate(w, "site_card.html", card); err != nil {
			log.Printf("Template error: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	data := map[string]interface{}{
		"Title": card["Site"].(*creek.Site).DisplayName(),
		"Card":  card,
	}
	if err := h.templates.ExecuteTemplate(w, "site.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Chat answers one chat form submission and returns the turn partial. When a
// tool selected a site, the response also carries the site panel as an
// out-of-band swap so the dashboard follows the conversation.
func (h *WebHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	message := strings.TrimSpace(r.FormValue("message"))
	if message == "" {
		http.Error(w, "Message cannot be empty", http.StatusBadRequest)
		return
	}
	if len(message) > maxMessageLen {
		http.Error(w, "Message is too long", http.StatusBadRequest)
		return
	}

	session := h.Sessions.Get(r.FormValue("session_id"))
	release, err := session.Acquire()
	if err != nil {
		http.Error(w, "A previous message is still being answered", http.StatusConflict)
		return
	}
	defer release()

	reply, err := h.Agent.Chat(r.Context(), session.ID, message)
	if err != nil {
		log.Printf("Chat error (session %s): %v", session.ID, err)
	}

	data := map[string]interface{}{
		"SessionID": session.ID,
		"Message":   message,
		"Reply":     reply.Text,
		"Failed":    reply.Failed,
	}

	if reply.Directive != nil && reply.Directive.Action == agent.ActionSelectSite {
		session.SelectedSite = reply.Directive.Site
		if card, cardErr := h.siteCard(reply.Directive.Site); cardErr == nil {
			data["SiteCard"] = card
		} else {
			log.Printf("Directive site lookup failed: %v", cardErr)
		}
	}

	if err := h.templates.ExecuteTemplate(w, "chat_turn.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// siteCard assembles the site panel view: metadata plus the sample history,
// newest first.
func (h *WebHandler) siteCard(code string) (map[string]interface{}, error) {
	site, err := h.Store.SiteByCode(code)
	if err != nil {
		return nil, err
	}

	records, err := h.Store.RecordsForSite(site.Code)
	if err != nil {
		return nil, err
	}

	newestFirst := make([]creek.Measurement, len(records))
	for i := range records {
		newestFirst[len(records)-1-i] = records[i]
	}

	std, _ := creek.StandardFor(creek.MetricEColi)
	return map[string]interface{}{
		"Site":     site,
		"Records":  newestFirst,
		"Standard": std,
	}, nil
}
