package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"creekwatch/internal/agent"
	"creekwatch/internal/creek"
)

var validate = validator.New()

// APIHandler handles JSON API requests
type APIHandler struct {
	Store    creek.Store
	Agent    Chatter
	Sessions *SessionManager
}

// SiteJSON is the wire shape of a monitoring site.
type SiteJSON struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Records     int      `json:"records"`
	FirstSample string   `json:"first_sample,omitempty"`
	LastSample  string   `json:"last_sample,omitempty"`
}

func siteJSON(s *creek.Site) SiteJSON {
	out := SiteJSON{
		Code:    s.Code,
		Name:    s.Name,
		Records: s.Records,
	}
	if s.Lat.Valid {
		out.Lat = &s.Lat.Float64
	}
	if s.Lon.Valid {
		out.Lon = &s.Lon.Float64
	}
	if s.Records > 0 {
		out.FirstSample = s.FirstSample.Format("2006-01-02")
		out.LastSample = s.LastSample.Format("2006-01-02")
	}
	return out
}

// MeasurementJSON is the wire shape of one sample. NULL readings are omitted.
type MeasurementJSON struct {
	Date          string   `json:"date"`
	TotalColiform *float64 `json:"total_coliform,omitempty"`
	EColi         *float64 `json:"ecoli,omitempty"`
	PH            *float64 `json:"ph,omitempty"`
	Turbidity     *float64 `json:"turbidity,omitempty"`
}

func measurementJSON(m *creek.Measurement) MeasurementJSON {
	out := MeasurementJSON{Date: m.DateString()}
	if m.TotalColiform.Valid {
		out.TotalColiform = &m.TotalColiform.Float64
	}
	if m.EColi.Valid {
		out.EColi = &m.EColi.Float64
	}
	if m.PH.Valid {
		out.PH = &m.PH.Float64
	}
	if m.Turbidity.Valid {
		out.Turbidity = &m.Turbidity.Float64
	}
	return out
}

// Health reports server and dataset status
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Store.Summary()
	if err != nil {
		log.Printf("Health check error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Dataset unavailable",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"sites":   summary.Sites,
		"records": summary.Records,
	})
}

// Sites handles API requests for the site list
func (h *APIHandler) Sites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.Store.Sites()
	if err != nil {
		log.Printf("Site list error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	out := make([]SiteJSON, len(sites))
	for i := range sites {
		out[i] = siteJSON(&sites[i])
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sites": out,
		"count": len(out),
	})
}

// GetSite handles API requests for a single site with its sample history
func (h *APIHandler) GetSite(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	site, err := h.Store.SiteByCode(code)
	if err != nil {
		if errors.Is(err, creek.ErrUnknownSite) {
			respondJSON(w, http.StatusNotFound, map[string]string{
				"error": "Site not found",
			})
			return
		}
		log.Printf("Site lookup error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	records, err := h.Store.RecordsForSite(site.Code)
	if err != nil {
		log.Printf("Record lookup error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	samples := make([]MeasurementJSON, len(records))
	for i := range records {
		samples[i] = measurementJSON(&records[i])
	}

	resp := map[string]interface{}{
		"site":    siteJSON(site),
		"samples": samples,
	}
	if len(records) > 0 {
		resp["latest"] = samples[len(samples)-1]
	}

	respondJSON(w, http.StatusOK, resp)
}

// Trend handles API requests for one site's recent movement in a metric
func (h *APIHandler) Trend(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	metric, ok := normalizeMetricParam(r.URL.Query().Get("metric"))
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Unknown metric: " + r.URL.Query().Get("metric"),
		})
		return
	}

	weeks := agent.DefaultTrendWeeks
	if v := r.URL.Query().Get("weeks"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error": "weeks must be a positive integer",
			})
			return
		}
		weeks = parsed
	}

	site, err := h.Store.SiteByCode(code)
	if err != nil {
		if errors.Is(err, creek.ErrUnknownSite) {
			respondJSON(w, http.StatusNotFound, map[string]string{
				"error": "Site not found",
			})
			return
		}
		log.Printf("Site lookup error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	std, _ := creek.StandardFor(metric)
	resp := map[string]interface{}{
		"site":      site.Code,
		"name":      site.Name,
		"metric":    metric,
		"unit":      std.Unit,
		"weeks":     weeks,
		"points":    []creek.TrendPoint{},
		"direction": creek.TrendFlat,
	}

	latest, err := h.Store.LatestRecord(site.Code)
	if err != nil {
		log.Printf("Latest record error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}
	if latest == nil {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	// The window is anchored at the site's latest sample, not the wall
	// clock, so sparse datasets still produce a usable trend.
	end := latest.Timestamp
	start := end.AddDate(0, 0, -7*weeks)
	records, err := h.Store.RecordsInWindow(site.Code, start, end)
	if err != nil {
		log.Printf("Window query error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	points := creek.TrendPoints(records, metric)
	resp["direction"] = creek.DirectionOf(creek.PointValues(points))
	resp["window"] = map[string]string{
		"start": start.Format("2006-01-02"),
		"end":   end.Format("2006-01-02"),
	}
	if points != nil {
		resp["points"] = points
	}
	if len(points) > 1 {
		resp["change"] = points[len(points)-1].Value - points[0].Value
	}

	respondJSON(w, http.StatusOK, resp)
}

// Compare handles API requests ranking sites by a metric
func (h *APIHandler) Compare(w http.ResponseWriter, r *http.Request) {
	metric, ok := normalizeMetricParam(r.URL.Query().Get("metric"))
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Unknown metric: " + r.URL.Query().Get("metric"),
		})
		return
	}

	var include, unknown []string
	if param := r.URL.Query().Get("sites"); param != "" {
		all, err := h.Store.Sites()
		if err != nil {
			log.Printf("Site list error: %v", err)
			respondJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Internal server error",
			})
			return
		}
		for _, q := range strings.Split(param, ",") {
			q = strings.TrimSpace(q)
			if q == "" {
				continue
			}
			if s, ok := creek.ResolveSite(all, q); ok {
				include = append(include, s.Code)
			} else {
				unknown = append(unknown, q)
			}
		}
	}

	latest, err := h.Store.LatestAll()
	if err != nil {
		log.Printf("Latest readings error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	ranking, missing := creek.RankByMetric(latest, metric, include)
	if ranking == nil {
		ranking = []creek.RankedSite{}
	}

	std, _ := creek.StandardFor(metric)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"metric":        metric,
		"unit":          std.Unit,
		"ranking":       ranking,
		"missing":       missing,
		"unknown_sites": unknown,
	})
}

// Compliance handles API requests for EPA threshold exceedances
func (h *APIHandler) Compliance(w http.ResponseWriter, r *http.Request) {
	metric, ok := normalizeMetricParam(r.URL.Query().Get("metric"))
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Unknown metric: " + r.URL.Query().Get("metric"),
		})
		return
	}
	std, _ := creek.StandardFor(metric)

	latest, err := h.Store.LatestAll()
	if err != nil {
		log.Printf("Latest readings error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	exceedances := creek.ExceedingSites(latest, std)
	if exceedances == nil {
		exceedances = []creek.Exceedance{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"metric":        metric,
		"label":         std.Label,
		"threshold":     std.Threshold,
		"unit":          std.Unit,
		"basis":         std.Basis,
		"health_note":   std.Note,
		"exceedances":   exceedances,
		"all_compliant": len(exceedances) == 0,
	})
}

// Summary handles API requests for the whole-dataset aggregate
func (h *APIHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Store.Summary()
	if err != nil {
		log.Printf("Summary error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	type metricJSON struct {
		Metric string   `json:"metric"`
		Min    *float64 `json:"min,omitempty"`
		Avg    *float64 `json:"avg,omitempty"`
		Max    *float64 `json:"max,omitempty"`
	}
	metrics := make([]metricJSON, 0, len(summary.Metrics))
	for i := range summary.Metrics {
		ms := &summary.Metrics[i]
		mj := metricJSON{Metric: ms.Metric}
		if ms.Min.Valid {
			mj.Min = &ms.Min.Float64
		}
		if ms.Avg.Valid {
			mj.Avg = &ms.Avg.Float64
		}
		if ms.Max.Valid {
			mj.Max = &ms.Max.Float64
		}
		metrics = append(metrics, mj)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sites":      summary.Sites,
		"records":    summary.Records,
		"date_range": summary.DateRangeString(),
		"metrics":    metrics,
	})
}

// Explain handles API requests interpreting one reading against the standard
func (h *APIHandler) Explain(w http.ResponseWriter, r *http.Request) {
	metric, ok := normalizeMetricParam(r.URL.Query().Get("metric"))
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Unknown metric: " + r.URL.Query().Get("metric"),
		})
		return
	}

	value, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "value must be a number",
		})
		return
	}

	std, _ := creek.StandardFor(metric)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"metric":      metric,
		"label":       std.Label,
		"value":       value,
		"unit":        std.Unit,
		"band":        std.Classify(value).String(),
		"threshold":   std.Threshold,
		"basis":       std.Basis,
		"explanation": std.Explain(value),
		"health_note": std.Note,
	})
}

// ChatRequest is the POST /api/chat body.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" validate:"required,max=2000"`
}

// ChatResponse pairs the reply with the session it belongs to. SelectedSite
// echoes the session's current selection so a client that joined mid-session
// still knows which site the conversation is about.
type ChatResponse struct {
	SessionID    string           `json:"session_id"`
	Reply        string           `json:"reply"`
	Directive    *agent.Directive `json:"directive,omitempty"`
	SelectedSite string           `json:"selected_site,omitempty"`
	Failed       bool             `json:"failed,omitempty"`
}

// Chat handles API chat requests. Each session answers one message at a
// time; a message arriving mid-turn is rejected with 409 rather than queued.
func (h *APIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Invalid JSON body",
		})
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "message is required and must be at most 2000 characters",
		})
		return
	}

	session := h.Sessions.Get(req.SessionID)
	release, err := session.Acquire()
	if err != nil {
		respondJSON(w, http.StatusConflict, map[string]string{
			"error":      "A previous message in this session is still being answered",
			"session_id": session.ID,
		})
		return
	}
	defer release()

	reply, err := h.Agent.Chat(r.Context(), session.ID, req.Message)
	if err != nil {
		// The reply still carries user-facing text; surface the cause in
		// the server log only.
		log.Printf("Chat error (session %s): %v", session.ID, err)
	}
	if reply.Directive != nil && reply.Directive.Action == agent.ActionSelectSite {
		session.SelectedSite = reply.Directive.Site
	}

	respondJSON(w, http.StatusOK, ChatResponse{
		SessionID:    session.ID,
		Reply:        reply.Text,
		Directive:    reply.Directive,
		SelectedSite: session.SelectedSite,
		Failed:       reply.Failed,
	})
}

// EndSession handles API requests dropping a chat session
func (h *APIHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.Agent.ClearSession(id)
	h.Sessions.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

// normalizeMetricParam folds a metric query parameter to its canonical key,
// defaulting to E. coli when absent.
func normalizeMetricParam(param string) (string, bool) {
	if param == "" {
		return creek.MetricEColi, true
	}
	return creek.NormalizeMetric(param)
}

// respondJSON is a helper function to send JSON responses
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("JSON encoding error: %v", err)
	}
}
