package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/kerem-ae/prospect"
	"github.com/kerem-ae/prospect/domain"
)

// envelope is the JSON shape of every workflow response.
type envelope struct {
	Status  string `json:"status"`
	Phase   int    `json:"phase,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Println(err)
	}
}

func success(w http.ResponseWriter, phase int, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: "success", Phase: phase, Message: message, Data: data})
}

func fail(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{Status: "error", Message: message})
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(out)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (server *Server) session(r *http.Request) *sessions.Session {
	session, _ := server.store.Get(r, sessionName)
	return session
}

func currentPhase(session *sessions.Session) int {
	phase, ok := session.Values["phase"].(int)
	if !ok || phase < 1 {
		return 1
	}
	return phase
}

func sessionString(session *sessions.Session, key string) string {
	value, _ := session.Values[key].(string)
	return value
}

func (server *Server) saveSession(w http.ResponseWriter, r *http.Request, session *sessions.Session) bool {
	if err := session.Save(r, w); err != nil {
		fail(w, http.StatusInternalServerError, fmt.Sprintf("saving session : %s", err.Error()))
		return false
	}
	return true
}

func scrapeFailureCode(err error) int {
	if errors.Is(err, prospect.ErrFetch) || errors.Is(err, prospect.ErrNotHTML) || errors.Is(err, prospect.ErrExtract) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (server *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		fail(w, http.StatusNotFound, "Not found")
		return
	}
	session := server.session(r)
	session.Values["phase"] = 1
	if !server.saveSession(w, r, session) {
		return
	}
	if err := server.tpl.ExecuteTemplate(w, "index.html", nil); err != nil {
		log.Println(err)
	}
}

func (server *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"config_valid": server.app.Config.Validate() == nil,
	})
}

func (server *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	session := server.session(r)
	success(w, currentPhase(session), "", map[string]any{
		"lead_name":        sessionString(session, "lead_name"),
		"selected_url":     sessionString(session, "selected_url"),
		"has_lead_company": sessionString(session, "lead_company_id") != "",
		"has_report":       sessionString(session, "report_id") != "",
	})
}

func (server *Server) handleSetLead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		fail(w, http.StatusBadRequest, "Lead name is required")
		return
	}

	session := server.session(r)
	session.Values["lead_name"] = name
	delete(session.Values, "selected_url")
	delete(session.Values, "lead_company_id")
	delete(session.Values, "report_id")
	session.Values["phase"] = 2
	if !server.saveSession(w, r, session) {
		return
	}
	success(w, 2, "Lead company set. Ready for discovery search.", map[string]any{"lead_name": name})
}

func (server *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	session := server.session(r)
	if currentPhase(session) < 2 {
		fail(w, http.StatusBadRequest, "Please complete Phase 1 first")
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	lead := strings.TrimSpace(body.Name)
	if lead == "" {
		lead = sessionString(session, "lead_name")
	}
	if lead == "" {
		fail(w, http.StatusBadRequest, "Lead name is required")
		return
	}

	results, err := server.searcher.FindCompanyURL(r.Context(), lead, 5)
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	session.Values["lead_name"] = lead
	session.Values["phase"] = 3
	if !server.saveSession(w, r, session) {
		return
	}
	success(w, 3, fmt.Sprintf("Found %d similar companies", len(results)), map[string]any{
		"lead_name": lead,
		"results":   results,
	})
}

func (server *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	session := server.session(r)
	if currentPhase(session) < 3 {
		fail(w, http.StatusBadRequest, "Please complete Phase 2 first")
		return
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &body); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(body.URL) == "" {
		fail(w, http.StatusBadRequest, "URL selection is required")
		return
	}

	selected := prospect.CleanURL(body.URL)
	session.Values["selected_url"] = selected
	session.Values["phase"] = 4
	if !server.saveSession(w, r, session) {
		return
	}
	success(w, 4, "URL selected. Ready for target company scraping.", map[string]any{"selected_url": selected})
}

func (server *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	session := server.session(r)
	if currentPhase(session) < 4 {
		fail(w, http.StatusBadRequest, "Please complete Phase 3 first")
		return
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &body); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	target := strings.TrimSpace(body.URL)
	if target == "" {
		target = sessionString(session, "selected_url")
	}
	if target == "" {
		fail(w, http.StatusBadRequest, "No URL selected")
		return
	}

	profile, err := server.scraper.ScrapeCompany(r.Context(), target)
	if err != nil {
		fail(w, scrapeFailureCode(err), err.Error())
		return
	}

	session.Values["lead_company_id"] = profile.ID.String()
	session.Values["phase"] = 5
	if !server.saveSession(w, r, session) {
		return
	}
	success(w, 5, "Target company scraped successfully. Ready for comparison.", profile)
}

func (server *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	session := server.session(r)
	if currentPhase(session) < 5 {
		fail(w, http.StatusBadRequest, "Please complete Phase 4 first")
		return
	}
	var body struct {
		UserCompany domain.CompanyProfile `json:"user_company"`
	}
	if err := decodeBody(r, &body); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	source, err := server.sourceCompany(session, &body.UserCompany)
	if err != nil {
		fail(w, http.StatusBadRequest, "Missing company data")
		return
	}
	lead, err := server.sessionCompany(session, "lead_company_id")
	if err != nil {
		fail(w, http.StatusBadRequest, "Missing company data")
		return
	}

	report, err := server.comparer.CompareCompanies(r.Context(), source, lead)
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	session.Values["source_company_id"] = source.ID.String()
	session.Values["report_id"] = report.ID.String()
	session.Values["phase"] = 6
	if !server.saveSession(w, r, session) {
		return
	}
	success(w, 6, "Comparison complete!", report)
}

// sourceCompany resolves the user's company for a comparison: the profile in
// the request body when one was sent, otherwise the company stored by an
// earlier comparison in this session. Bodied profiles are persisted so the
// session only has to carry the ID.
func (server *Server) sourceCompany(session *sessions.Session, bodied *domain.CompanyProfile) (*domain.CompanyProfile, error) {
	if strings.TrimSpace(bodied.Name) == "" {
		return server.sessionCompany(session, "source_company_id")
	}
	id, err := server.app.Repo.InsertCompany(bodied)
	if err != nil {
		return nil, fmt.Errorf("storing source company : %w", err)
	}
	bodied.ID = id
	return bodied, nil
}

func (server *Server) sessionCompany(session *sessions.Session, key string) (*domain.CompanyProfile, error) {
	raw := sessionString(session, key)
	if raw == "" {
		return nil, fmt.Errorf("no company in session")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing company id : %w", err)
	}
	company, err := server.app.Repo.GetCompany(id)
	if err != nil {
		return nil, fmt.Errorf("loading company : %w", err)
	}
	return company, nil
}

func (server *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	session := server.session(r)
	session.Values = make(map[any]any)
	session.Values["phase"] = 1
	if !server.saveSession(w, r, session) {
		return
	}
	success(w, 1, "Session reset. Ready to start fresh.", nil)
}

func (server *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	session := server.session(r)
	raw := sessionString(session, "report_id")
	if raw == "" {
		fail(w, http.StatusBadRequest, "No report available")
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		fail(w, http.StatusBadRequest, "No report available")
		return
	}
	report, err := server.app.Repo.GetReport(id)
	if errors.Is(err, domain.ErrNotFound) {
		fail(w, http.StatusGone, "Report no longer available")
		return
	}
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	var path string
	switch format := r.URL.Query().Get("format"); format {
	case "", "txt":
		path, err = prospect.SaveReportToFile(report, server.app.Config.ReportsPath())
	case "json":
		path, err = prospect.SaveReportJSON(report, server.app.Config.ReportsPath())
	default:
		fail(w, http.StatusBadRequest, fmt.Sprintf("Unknown export format: %s", format))
		return
	}
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	success(w, currentPhase(session), "Report exported", map[string]any{"filepath": path})
}

func (server *Server) handleQuickMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var body struct {
		SourceURL string `json:"source_url"`
		TargetURL string `json:"target_url"`
	}
	if err := decodeBody(r, &body); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(body.SourceURL) == "" || strings.TrimSpace(body.TargetURL) == "" {
		fail(w, http.StatusBadRequest, "Both source_url and target_url are required")
		return
	}

	source, err := server.scraper.ScrapeCompany(r.Context(), prospect.CleanURL(body.SourceURL))
	if err != nil {
		fail(w, scrapeFailureCode(err), "Failed to scrape one or both companies")
		return
	}
	target, err := server.scraper.ScrapeCompany(r.Context(), prospect.CleanURL(body.TargetURL))
	if err != nil {
		fail(w, scrapeFailureCode(err), "Failed to scrape one or both companies")
		return
	}

	report, err := server.comparer.CompareCompanies(r.Context(), source, target)
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	success(w, 0, "", report)
}
