package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/carbon-validator/internal/application/analysis"
	appgis "github.com/bryanwahyu/carbon-validator/internal/application/gis"
	appprojects "github.com/bryanwahyu/carbon-validator/internal/application/projects"
	"github.com/bryanwahyu/carbon-validator/internal/domain/ai"
	"github.com/bryanwahyu/carbon-validator/internal/domain/documents"
	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
	"github.com/bryanwahyu/carbon-validator/internal/middleware"
)

const (
	maxUploadBytes = 32 << 20
	maxBodyBytes   = 16 << 20
	maxQueryBytes  = 4 << 10
)

// Options wires the services and middleware settings into the router.
type Options struct {
	Analysis  *appanalysis.Service
	GIS       *appgis.Service
	Projects  *appprojects.Service
	Documents documents.Store // nil disables uploads
	Logger    *zap.Logger

	APIKeys      map[string]string
	RateLimit    int
	RateRefill   int
	CORSOrigins  []string
	HealthChecks map[string]middleware.HealthChecker
}

type Router struct {
	analysis  *appanalysis.Service
	gis       *appgis.Service
	projects  *appprojects.Service
	documents documents.Store
	log       *zap.Logger
}

func NewRouter(o Options) http.Handler {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{analysis: o.Analysis, gis: o.GIS, projects: o.Projects, documents: o.Documents, log: log}

	origins := o.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.Logging(log))
	mux.Use(middleware.APIKeyAuth(o.APIKeys))
	if o.RateLimit > 0 {
		mux.Use(middleware.RateLimitMiddleware(o.RateLimit, o.RateRefill))
	}

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(o.HealthChecks))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Get("/projects", r.wrap(r.handleListProjects))
		rt.Get("/projects/{code}", r.wrap(r.handleGetProject))
		rt.Get("/projects/{code}/exists", r.wrap(r.handleProjectExists))
		rt.Post("/projects/{code}/gis", r.wrap(r.handleIngestGIS))
		rt.Post("/upload", r.wrap(r.handleUpload))
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/generate-text", r.wrap(r.handleGenerateText))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status := statusFor(err)
			if status >= 500 {
				r.log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err),
					zap.String("kind", ai.KindOf(err).String()))
			}
			writeJSON(w, status, map[string]any{"error": err.Error(), "kind": kindLabel(err)})
		}
	}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, projects.ErrNotFound), errors.Is(err, documents.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, projects.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, documents.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, documents.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	}
	switch ai.KindOf(err) {
	case ai.KindUpstream, ai.KindMalformedResponse, ai.KindMissingField, ai.KindTypeCoercion:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func kindLabel(err error) string {
	switch {
	case errors.Is(err, projects.ErrNotFound), errors.Is(err, documents.ErrNotFound):
		return "not_found"
	case errors.Is(err, projects.ErrInvalidInput):
		return "validation"
	case errors.Is(err, documents.ErrTooLarge):
		return "too_large"
	}
	return ai.KindOf(err).String()
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, req *http.Request, dst any) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", projects.ErrInvalidInput, err)
	}
	return nil
}

func projectCode(req *http.Request) (string, error) {
	code := strings.TrimSpace(chi.URLParam(req, "code"))
	if err := middleware.ValidateProjectCode(code); err != nil {
		return "", fmt.Errorf("%w: %v", projects.ErrInvalidInput, err)
	}
	return code, nil
}

// GET /api/projects
func (r *Router) handleListProjects(w http.ResponseWriter, req *http.Request) error {
	list, err := r.projects.List(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /api/projects/{code}
func (r *Router) handleGetProject(w http.ResponseWriter, req *http.Request) error {
	code, err := projectCode(req)
	if err != nil {
		return err
	}
	b, err := r.projects.Get(req.Context(), code)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, b)
}

// GET /api/projects/{code}/exists
func (r *Router) handleProjectExists(w http.ResponseWriter, req *http.Request) error {
	code, err := projectCode(req)
	if err != nil {
		return err
	}
	ok, err := r.projects.Exists(req.Context(), code)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]bool{"exists": ok})
}

// POST /api/projects/{code}/gis
// Body: {"deforestation_data":[{"year":2020,"hectares":150}], "emissions_data":[...], "pie_chart_data":[...]}
func (r *Router) handleIngestGIS(w http.ResponseWriter, req *http.Request) error {
	code, err := projectCode(req)
	if err != nil {
		return err
	}
	var body appgis.Bundle
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	rep, err := r.gis.Ingest(req.Context(), code, body)
	if err != nil {
		return err
	}
	middleware.IncrementGISIngestions()
	return writeJSON(w, http.StatusOK, map[string]any{
		"success":  rep.OK(),
		"inserted": rep.Inserted,
		"failures": rep.Failures,
	})
}

// POST /api/upload (multipart: file, optional kind=policy)
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	if r.documents == nil {
		return ai.Configuration("document store is not configured")
	}
	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return fmt.Errorf("%w: parse upload: %v", projects.ErrInvalidInput, err)
	}
	file, hdr, err := req.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: file is required", projects.ErrInvalidInput)
	}
	defer file.Close()

	kind := documents.KindProject
	if strings.EqualFold(req.FormValue("kind"), "policy") {
		kind = documents.KindPolicy
	}
	h, err := r.documents.Put(req.Context(), kind, hdr.Filename, hdr.Header.Get("Content-Type"), file, hdr.Size)
	if err != nil {
		return err
	}
	r.log.Info("document uploaded", zap.String("handle", string(h)), zap.String("kind", string(kind)), zap.Int64("bytes", hdr.Size))
	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"fileId":  string(h),
		"handle":  string(h),
		"kind":    string(kind),
	})
}

type analyzeRequest struct {
	DocumentText     string   `json:"document_text"`
	DocumentHandle   string   `json:"document_handle"`
	PolicyDocuments  string   `json:"policy_documents"`
	RegionalPolicies string   `json:"regional_policies"`
	PolicyHandles    []string `json:"policy_handles"`
}

// POST /api/analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) (err error) {
	var body analyzeRequest
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	cmd := appanalysis.AnalyzeCommand{
		DocumentText:       body.DocumentText,
		DocumentHandle:     documents.Handle(strings.TrimSpace(body.DocumentHandle)),
		PolicyText:         body.PolicyDocuments,
		RegionalPolicyText: body.RegionalPolicies,
	}
	for _, h := range body.PolicyHandles {
		if h = strings.TrimSpace(h); h != "" {
			cmd.PolicyHandles = append(cmd.PolicyHandles, documents.Handle(h))
		}
	}

	done := middleware.AnalysisStarted()
	defer func() { done(err) }()

	res, err := r.analysis.RunAnalysis(req.Context(), cmd)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"project_id": res.ProjectID,
		"data":       res,
	})
}

// POST /api/generate-text
// Body: {"projectCode": "GF-001", "query": "..."}
func (r *Router) handleGenerateText(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ProjectCode string `json:"projectCode"`
		Query       string `json:"query"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	query := middleware.SanitizeString(body.Query)
	if err := middleware.ValidateText("query", query, maxQueryBytes); err != nil {
		return fmt.Errorf("%w: %v", projects.ErrInvalidInput, err)
	}
	if err := middleware.ValidateProjectCode(strings.TrimSpace(body.ProjectCode)); err != nil {
		return fmt.Errorf("%w: %v", projects.ErrInvalidInput, err)
	}
	out, err := r.analysis.Ask(req.Context(), strings.TrimSpace(body.ProjectCode), query)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"response": out})
}
