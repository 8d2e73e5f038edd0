package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/energydash/energydash/pkg/dashboard"
	"github.com/energydash/energydash/pkg/log"
	"github.com/energydash/energydash/pkg/metrics"
	"github.com/energydash/energydash/pkg/present"
	"github.com/gorilla/handlers"
	"github.com/levenlabs/go-lflag"
)

// tokenVerifier is a function that validates a Google or Apple ID Token.
type tokenVerifier func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)

// Server exposes the dashboard state, the vendor telemetry proxies and the
// command endpoint over HTTP.
type Server struct {
	dash       *dashboard.Dashboard
	sink       *present.MemorySink
	dispatcher *present.Dispatcher
	metrics    *metrics.Metrics

	listenAddr string
	httpServer *http.Server

	corsOrigins   []string
	accessLog     bool
	oidcVerifiers map[string]tokenVerifier
	serverName    string
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(dash *dashboard.Dashboard, sink *present.MemorySink, dispatcher *present.Dispatcher, m *metrics.Metrics) *Server {
	srv := &Server{
		dash:       dash,
		sink:       sink,
		dispatcher: dispatcher,
		metrics:    m,
		serverName: "energydash",
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	corsOrigins := lflag.String("cors-origins", "", "comma-delimited list of origins allowed to call the API from a browser")
	accessLog := lflag.Bool("http-access-log", false, "write a combined access log line to stdout for every request")
	oidcAudience := lflag.String("oidc-audience", "", "Google client ID that command tokens must be issued for")
	oidcAudiences := map[string]string{}
	lflag.JSON(&oidcAudiences, "oidc-audiences", oidcAudiences, "JSON map of provider (google/apple) to audience/client ID")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		srv.accessLog = *accessLog
		if *corsOrigins != "" {
			for _, o := range strings.Split(*corsOrigins, ",") {
				if o = strings.TrimSpace(o); o != "" {
					srv.corsOrigins = append(srv.corsOrigins, o)
				}
			}
		}
		if *oidcAudience != "" {
			if _, ok := oidcAudiences["google"]; !ok {
				oidcAudiences["google"] = *oidcAudience
			}
		}
		if len(oidcAudiences) == 0 {
			return
		}
		srv.oidcVerifiers = make(map[string]tokenVerifier, len(oidcAudiences))
		for n, a := range oidcAudiences {
			var issuer string
			switch n {
			case "google":
				issuer = "https://accounts.google.com"
			case "apple":
				issuer = "https://appleid.apple.com"
			default:
				log.Ctx(context.Background()).Error("unsupported oidc audience client", slog.String("client", n))
				os.Exit(1)
			}
			provider, err := oidc.NewProvider(context.Background(), issuer)
			if err != nil {
				log.Ctx(context.Background()).Error("failed to initialize OIDC provider", slog.String("client", n), slog.Any("error", err))
				os.Exit(1)
			}
			srv.oidcVerifiers[n] = provider.Verifier(&oidc.Config{ClientID: a}).Verify
		}
	})

	return srv
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.metrics.WrapHandler(pattern, h))
}

func (s *Server) setupHandler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "GET /api/solax-proxy", s.handleSolaxProxy)
	s.handle(mux, "GET /api/solax/data", s.handleSolaxData)
	s.handle(mux, "GET /api/myenergi/data", s.handleMyEnergi)
	s.handle(mux, "GET /api/display", s.handleDisplay)
	s.handle(mux, "GET /api/charts", s.handleListCharts)
	s.handle(mux, "GET /api/charts/{canvas}", s.handleChartPNG)
	s.handle(mux, "GET /api/export.csv", s.handleExport)
	mux.Handle("POST /api/commands/{command}", s.metrics.WrapHandler("POST /api/commands/{command}", s.authMiddleware(http.HandlerFunc(s.handleCommand))))
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)

	var h http.Handler = s.securityHeadersMiddleware(mux)
	if len(s.corsOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.corsOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		)(h)
	}
	h = s.revisionMiddleware(gziphandler.GzipHandler(h))
	if s.accessLog {
		h = handlers.CombinedLoggingHandler(os.Stdout, h)
	}
	return h
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, struct {
		Error string `json:"error"`
	}{Error: msg}, code)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
