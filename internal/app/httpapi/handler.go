package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	app "github.com/R3E-Network/exercise_tracker/internal/app"
	core "github.com/R3E-Network/exercise_tracker/internal/app/core/service"
	"github.com/R3E-Network/exercise_tracker/internal/app/domain/exercise"
	"github.com/R3E-Network/exercise_tracker/internal/app/domain/user"
	"github.com/R3E-Network/exercise_tracker/internal/app/metrics"
	"github.com/R3E-Network/exercise_tracker/internal/app/services/exercises"
	svcerrors "github.com/R3E-Network/exercise_tracker/internal/errors"
	"github.com/R3E-Network/exercise_tracker/internal/middleware"
	"github.com/R3E-Network/exercise_tracker/pkg/logger"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app  *app.Application
	log  *logger.Logger
	edge []core.Descriptor
}

// Option configures the middleware wrapped around the router.
type Option func(*options)

type options struct {
	corsOrigins []string
	limiter     *middleware.RateLimiter
	tracing     bool
}

// WithCORS enables CORS for the given origins ("*" allows any).
func WithCORS(origins []string) Option {
	return func(o *options) { o.corsOrigins = origins }
}

// WithRateLimiter throttles callers through limiter.
func WithRateLimiter(limiter *middleware.RateLimiter) Option {
	return func(o *options) { o.limiter = limiter }
}

// WithTracing tags requests with a trace id and logs each one.
func WithTracing() Option {
	return func(o *options) { o.tracing = true }
}

// NewHandler returns the REST API for application.
func NewHandler(application *app.Application, log *logger.Logger, opts ...Option) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	h := &handler{app: application, log: log}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	router.Use(middleware.MetricsMiddleware())

	router.HandleFunc("/api/users", h.createUser).Methods(http.MethodPost)
	router.HandleFunc("/api/users", h.listUsers).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{id}", h.getUser).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{id}/exercises", h.addExercise).Methods(http.MethodPost)
	router.HandleFunc("/api/users/{id}/logs", h.exerciseLog).Methods(http.MethodGet)

	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/system/descriptors", h.descriptors).Methods(http.MethodGet)

	var wrapped http.Handler = router
	if o.limiter != nil {
		wrapped = o.limiter.Handler(wrapped)
		h.edge = append(h.edge, core.Descriptor{Name: "ratelimit", Domain: "http", Layer: core.LayerEdge}.WithCapabilities("per-client"))
	}
	if o.tracing {
		wrapped = middleware.NewTracingMiddleware(log.Named("http")).Handler(wrapped)
		h.edge = append(h.edge, core.Descriptor{Name: "tracing", Domain: "http", Layer: core.LayerEdge}.WithCapabilities("trace-id", "request-log"))
	}
	if len(o.corsOrigins) > 0 {
		wrapped = middleware.NewCORSMiddleware(o.corsOrigins).Handler(wrapped)
		h.edge = append(h.edge, core.Descriptor{Name: "cors", Domain: "http", Layer: core.LayerEdge})
	}
	return wrapped
}

type userResponse struct {
	Username string `json:"username"`
	ID       string `json:"_id"`
}

func toUserResponse(u user.User) userResponse {
	return userResponse{Username: u.Username, ID: u.ID}
}

type exerciseResponse struct {
	ID          string `json:"_id"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

type logResponse struct {
	ID       string              `json:"_id"`
	Username string              `json:"username"`
	From     string              `json:"from,omitempty"`
	To       string              `json:"to,omitempty"`
	Count    int                 `json:"count"`
	Log      []exercise.LogEntry `json:"log"`
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	body, err := readPayload(r)
	if err != nil {
		h.writeServiceError(w, r, svcerrors.Validation("Invalid request body"))
		return
	}

	u, err := h.app.Users.Register(r.Context(), body.field("username"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Users.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	resp := make([]userResponse, 0, len(list))
	for _, u := range list {
		resp = append(resp, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.app.Users.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *handler) addExercise(w http.ResponseWriter, r *http.Request) {
	body, err := readPayload(r)
	if err != nil {
		h.writeServiceError(w, r, svcerrors.Validation("Invalid request body"))
		return
	}

	entry, err := h.app.Exercises.Add(r.Context(), mux.Vars(r)["id"], exercises.Input{
		Description: body.field("description"),
		Duration:    body.field("duration"),
		Date:        body.field("date"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exerciseResponse{
		ID:          entry.User.ID,
		Username:    entry.User.Username,
		Description: entry.Record.Description,
		Duration:    entry.Record.Duration,
		Date:        exercises.FormatDate(entry.Record.Date),
	})
}

func (h *handler) exerciseLog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, err := h.app.Exercises.Log(r.Context(), mux.Vars(r)["id"], query.Get("from"), query.Get("to"), query.Get("limit"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := logResponse{
		ID:       result.UserID,
		Username: result.Username,
		Count:    result.Count,
		Log:      result.Entries,
	}
	if result.From != nil {
		resp.From = exercises.FormatDate(*result.From)
	}
	if result.To != nil {
		resp.To = exercises.FormatDate(*result.To)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) descriptors(w http.ResponseWriter, r *http.Request) {
	all := append(h.app.Descriptors(), h.edge...)
	writeJSON(w, http.StatusOK, all)
}

// writeServiceError maps err onto its HTTP status. Internal causes are
// logged and never returned to the client.
func (h *handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	svcErr := svcerrors.As(err)
	if svcErr.Code == svcerrors.CodeInternal {
		h.log.WithContext(r.Context()).WithError(svcErr.Err).WithField("path", r.URL.Path).Error("request failed")
	}
	writeError(w, svcErr.HTTPStatus, svcErr.PublicMessage())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
