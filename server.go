package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"inspiria/background"
	"inspiria/export"
	"inspiria/filter"
	"inspiria/prefs"
	"inspiria/scene"
	"inspiria/source"
	"inspiria/style"
)

const (
	maxRequestBytes   = 2 * source.MaxUploadBytes
	maxBackgroundSide = 3840
)

type server struct {
	cfg        Config
	rasterizer *export.Rasterizer
	client     *http.Client
	store      *prefs.Store

	mu    sync.Mutex
	prefs prefs.Snapshot
}

func newServer(cfg Config, store *prefs.Store, snap prefs.Snapshot) *server {
	client := &http.Client{Timeout: cfg.fetchTimeout()}
	return &server{
		cfg:        cfg,
		rasterizer: export.New(&source.Loader{Client: client, Timeout: cfg.fetchTimeout()}, cfg.AppName),
		client:     client,
		store:      store,
		prefs:      snap,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/export", s.handleExport)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/download", s.handleDownload)
	mux.HandleFunc("GET /api/background.png", s.handleBackground)
	mux.HandleFunc("GET /api/prefs", s.handleGetPrefs)
	mux.HandleFunc("PUT /api/prefs", s.handlePutPrefs)
	mux.HandleFunc("GET /api/filters", s.handleFilters)
	mux.HandleFunc("GET /api/quote", s.handleQuote)
	return mux
}

func runServe(ctx context.Context, cfg Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := fs.String("listen", cfg.Listen, "address to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := openPrefs(cfg)
	if store != nil {
		defer store.Close()
	}
	srv := newServer(cfg, store, loadPrefs(ctx, store))

	listener, err := net.Listen("tcp", *listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", *listen, err)
	}
	defer listener.Close()

	httpServer := &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrors := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	log.Printf("info: listening on http://%s", listener.Addr())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("warning: shutdown: %v", err)
		}
		log.Printf("info: server stopped")
		return nil
	case err := <-serverErrors:
		_ = httpServer.Shutdown(context.Background())
		return fmt.Errorf("http server: %w", err)
	}
}

// exportRequest is a scene plus an optional data URL for uploaded pictures.
type exportRequest struct {
	scene.Scene
	DataURL string `json:"dataUrl,omitempty"`
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	req := exportRequest{Scene: scene.Default(source.Ref{}, scene.Size{})}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode scene: %w", err))
		return
	}
	if req.DataURL != "" {
		data, ct, err := source.ParseDataURL(req.DataURL)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		req.Source.Data, req.Source.ContentType = data, ct
	}
	// Inline bytes are checked like any upload.
	if len(req.Source.Data) > 0 {
		ref, err := source.FromUpload(req.Source.ID, req.Source.Data, req.Source.ContentType)
		if err != nil {
			writeError(w, uploadStatus(err), err)
			return
		}
		ref.URL = req.Source.URL
		req.Source = ref
	}

	res, err := s.rasterizer.Export(r.Context(), req.Scene)
	if err != nil {
		log.Printf("warning: export: %v", err)
		writeError(w, exportStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PNG)))
	_, _ = w.Write(res.PNG)
}

func exportStatus(err error) int {
	switch {
	case errors.Is(err, scene.ErrInvalidScene):
		return http.StatusUnprocessableEntity
	case errors.Is(err, source.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, source.ErrUnreadable):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func uploadStatus(err error) int {
	switch {
	case errors.Is(err, source.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, source.ErrNotImage):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadRequest
	}
}

// handleUpload validates a raw picture body and echoes the reference to use
// in a scene.
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, source.MaxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	ref, err := source.FromUpload(r.URL.Query().Get("id"), data, r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, uploadStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var photo source.Photo
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&photo); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode photo: %w", err))
		return
	}
	path, err := source.DownloadOriginal(r.Context(), s.client, photo, s.cfg.UnsplashAccessKey, s.cfg.AppName, s.cfg.OutputDir)
	if err != nil {
		log.Printf("warning: download: %v", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	log.Printf("info: saved %s", path)
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (s *server) handleBackground(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, err := intParam(q.Get("w"), 1280, 1, maxBackgroundSide)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("w: %w", err))
		return
	}
	height, err := intParam(q.Get("h"), 720, 1, maxBackgroundSide)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("h: %w", err))
		return
	}
	t := 0.0
	if v := q.Get("t"); v != "" {
		t, err = strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("t: %w", err))
			return
		}
	}

	theme := s.snapshot().Theme
	if v := prefs.Theme(q.Get("theme")); v.Valid() {
		theme = v
	}

	frame := background.Render(s.cfg.backgroundOptions(theme.Dark()), width, height, t)
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func intParam(raw string, def, lo, hi int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("must be between %d and %d, got %d", lo, hi, v)
	}
	return v, nil
}

func (s *server) snapshot() prefs.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

func (s *server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

type prefsUpdate struct {
	Theme     *prefs.Theme `json:"theme,omitempty"`
	Onboarded *bool        `json:"onboarded,omitempty"`
}

func (s *server) handlePutPrefs(w http.ResponseWriter, r *http.Request) {
	var upd prefsUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode prefs: %w", err))
		return
	}
	if upd.Theme != nil && !upd.Theme.Valid() {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: %q", prefs.ErrInvalidTheme, *upd.Theme))
		return
	}

	if s.store != nil {
		if upd.Theme != nil {
			if err := s.store.SetTheme(r.Context(), *upd.Theme); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
		}
		if upd.Onboarded != nil {
			if err := s.store.SetOnboarded(r.Context(), *upd.Onboarded); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
		}
	}

	s.mu.Lock()
	if upd.Theme != nil {
		s.prefs.Theme = *upd.Theme
	}
	if upd.Onboarded != nil {
		s.prefs.Onboarded = *upd.Onboarded
	}
	snap := s.prefs
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

// handleFilters returns the CSS filter descriptor for the values in the
// query. Missing values take their defaults.
func (s *server) handleFilters(w http.ResponseWriter, r *http.Request) {
	state := style.DefaultFilters()
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"grayscale", &state.Grayscale},
		{"sepia", &state.Sepia},
		{"brightness", &state.Brightness},
		{"contrast", &state.Contrast},
		{"blur", &state.BlurPx},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%s: %w", p.name, err))
			return
		}
		*p.dst = v
	}
	state = state.Clamp()
	writeJSON(w, http.StatusOK, map[string]any{
		"filters": state,
		"css":     filter.Descriptor(state),
	})
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := source.RandomQuote()
	writeJSON(w, http.StatusOK, map[string]string{
		"text":    q.Text,
		"author":  q.Author,
		"overlay": source.FormatQuote(q),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("warning: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
