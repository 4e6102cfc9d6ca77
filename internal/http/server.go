package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"safespend/internal/core"
	applog "safespend/internal/log"
	"safespend/internal/middleware/ratelimit"
	"safespend/internal/middleware/security"
	"safespend/internal/middleware/trace"
	appweb "safespend/web"
)

// Session is the application surface the handlers drive.
type Session interface {
	SaveSnapshot(ctx context.Context, month core.Month, amounts core.Amounts) (bool, error)
	SaveCurrentMonth(ctx context.Context, amounts core.Amounts) (core.Month, bool, error)
	RequestAdvice(ctx context.Context, req core.AdviceRequest) (string, error)
	ResetAll(ctx context.Context) error
	History() []core.Snapshot
	Now() time.Time
	LoadError() error
}

// Options configures a Server.
type Options struct {
	Addr    string
	Session Session
	Logger  *applog.Logger
	// AdviceRateLimit is the number of advice requests per client per minute.
	AdviceRateLimit int
	// DataDir is checked by the readiness probe.
	DataDir string
	// AdvisorEnabled hides the advice form when no advisor is wired.
	AdvisorEnabled bool
	Templates      fs.FS
}

type Server struct {
	http.Server
	templates *template.Template
	session   Session
	logger    *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	dataDir        string
	advisorEnabled bool
	started        time.Time
	shutdownOnce   sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}
	if opts.Templates == nil {
		opts.Templates = appweb.TemplatesFS
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	detector := security.NewDetector()
	s := &Server{
		session:        opts.Session,
		logger:         logger,
		limiter:        ratelimit.NewLimiter(ratelimit.Config{Requests: opts.AdviceRateLimit, Window: time.Minute}),
		detector:       detector,
		tracer:         trace.NewMiddleware(opts.Logger, detector.ExtractClientIP),
		dataDir:        opts.DataDir,
		advisorEnabled: opts.AdvisorEnabled,
		started:        time.Now(),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(opts.Templates, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeConfiguration)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	pages := http.NewServeMux()
	pages.HandleFunc("GET /{$}", s.handleIndex)
	pages.HandleFunc("GET /ui/history", s.handleHistory)
	pages.HandleFunc("POST /snapshots", s.handleSaveSnapshot)
	pages.HandleFunc("POST /reset", s.handleReset)
	pages.Handle("POST /advice", s.limiter.Middleware(detector.ExtractClientIP, s.handleAdviceLimited)(http.HandlerFunc(s.handleAdvice)))
	mux.Handle("/", security.NoStore(pages))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.tracer.Middleware(headers.Middleware(s.flagSuspicious(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// flagSuspicious logs probes and scanner traffic. Requests still go through.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
