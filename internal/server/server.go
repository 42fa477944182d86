// Package server exposes interactive detection over WebSocket: a client
// tunes parameters, every change reruns the pass, and the annotated frame
// and magnifier view are served as PNG.
package server

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ivlev/clonedetect/internal/analyzer"
	"github.com/ivlev/clonedetect/internal/config"
	"github.com/ivlev/clonedetect/internal/engine"
	"github.com/ivlev/clonedetect/internal/magnifier"
	"github.com/ivlev/clonedetect/internal/report"
)

const (
	readLimit       = 4096
	defaultPongWait = 60 * time.Second
	writeWait       = 10 * time.Second
	typeResult      = "result"
	typeError       = "error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Request changes the session state. Fields left out keep their value.
type Request struct {
	Params        analyzer.Params `json:"params"`
	ShowQuantized bool            `json:"show_quantized"`
}

// Response is sent after every recomputation.
type Response struct {
	Type          string           `json:"type"`
	Session       string           `json:"session"`
	Params        analyzer.Params  `json:"params"`
	ShowQuantized bool             `json:"show_quantized"`
	Stats         analyzer.Stats   `json:"stats"`
	Clusters      []report.Cluster `json:"clusters"`
	Error         string           `json:"error,omitempty"`
}

// session is the state of one connected client. Recomputations of a
// session run one at a time.
type session struct {
	id            string
	mu            sync.Mutex
	params        analyzer.Params
	showQuantized bool
	res           *analyzer.Result
	frame         *image.RGBA
}

// Server holds one decoded image and the sessions inspecting it.
type Server struct {
	cfg  *config.Config
	name string
	buf  *analyzer.PixelBuffer
	det  *analyzer.Detector

	// pongWait is how long a connection may stay silent. Pings go out
	// every 9/10 of it, so an idle but healthy client stays connected.
	pongWait time.Duration

	mu       sync.RWMutex
	sessions map[string]*session
}

// client serializes writes to one websocket connection: replies and
// keep-alive pings come from different goroutines.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// New creates a server for buf. Every pass renders the quantized preview so
// clients can switch views without recomputing.
func New(cfg *config.Config, name string, buf *analyzer.PixelBuffer) (*Server, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: no image", analyzer.ErrInput)
	}
	scorer, err := analyzer.NewDetailScorer(cfg.DetailBackend)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		name:     name,
		buf:      buf,
		det:      &analyzer.Detector{Scorer: scorer, Workers: cfg.Workers, Preview: true},
		pongWait: defaultPongWait,
		sessions: make(map[string]*session),
	}, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("GET /frame", s.handleFrame)
	mux.HandleFunc("GET /zoom", s.handleZoom)
	return mux
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr, "image", s.name)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(s.pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.pongWait))
		return nil
	})
	cl := &client{conn: conn}
	done := make(chan struct{})
	defer close(done)
	go s.keepAlive(cl, done)

	sess := &session{
		id:            uuid.NewString(),
		params:        s.cfg.Params,
		showQuantized: s.cfg.ShowQuantized,
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
	}()

	log := slog.With("session", sess.id)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	if err := s.reply(cl, sess, s.recompute(sess)); err != nil {
		log.Debug("websocket write error", "error", err)
		return
	}

	for {
		sess.mu.Lock()
		req := Request{Params: sess.params, ShowQuantized: sess.showQuantized}
		sess.mu.Unlock()

		if err := conn.ReadJSON(&req); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				log.Info("websocket closed", "code", closeErr.Code)
			} else {
				log.Debug("websocket read error", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.pongWait))

		sess.mu.Lock()
		prev := sess.params
		changed := req.Params != prev
		sess.params = req.Params
		sess.showQuantized = req.ShowQuantized
		sess.mu.Unlock()

		var perr error
		if changed {
			if perr = s.recompute(sess); perr != nil {
				log.Warn("recompute failed", "error", perr)
				sess.mu.Lock()
				sess.params = prev
				sess.mu.Unlock()
			}
		}
		if err := s.reply(cl, sess, perr); err != nil {
			log.Debug("websocket write error", "error", err)
			return
		}
	}
}

// recompute runs a pass with the session parameters. On failure the
// previous result and frame stay on display.
func (s *Server) recompute(sess *session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	start := time.Now()
	res, err := s.det.Detect(s.buf, sess.params)
	if err != nil {
		return err
	}
	frame := image.NewRGBA(s.buf.Bounds())
	page := report.NewPage(0, s.name, s.buf.Bounds(), res)
	if err := engine.Frame(frame, s.buf.Image(), res, s.cfg, page.Summary()); err != nil {
		return err
	}
	sess.res, sess.frame = res, frame

	slog.Debug("recomputed", "session", sess.id, "clusters", len(res.Clusters),
		"pairs", len(res.Pairs), "elapsed", time.Since(start))
	return nil
}

func (s *Server) reply(cl *client, sess *session, perr error) error {
	sess.mu.Lock()
	resp := Response{
		Type:          typeResult,
		Session:       sess.id,
		Params:        sess.params,
		ShowQuantized: sess.showQuantized,
	}
	if sess.res != nil {
		resp.Stats = sess.res.Stats
		resp.Clusters = report.Clusters(sess.res.Clusters)
	}
	sess.mu.Unlock()

	if perr != nil {
		resp.Type = typeError
		resp.Error = perr.Error()
	}
	return cl.writeJSON(resp)
}

// keepAlive pings the client until done is closed or a ping fails.
func (s *Server) keepAlive(cl *client, done <-chan struct{}) {
	ticker := time.NewTicker(s.pongWait * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := cl.ping(); err != nil {
				slog.Debug("websocket ping error", "error", err)
				return
			}
		}
	}
}

// view returns the buffer the session currently displays.
func (s *Server) view(r *http.Request) (*image.RGBA, int, error) {
	id := r.URL.Query().Get("session")
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, http.StatusNotFound, fmt.Errorf("unknown session %q", id)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.frame == nil {
		return nil, http.StatusConflict, errors.New("no frame computed yet")
	}
	return engine.Displayed(sess.frame, sess.res, sess.showQuantized), http.StatusOK, nil
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	img, code, err := s.view(r)
	if err != nil {
		http.Error(w, err.Error(), code)
		return
	}
	writePNG(w, img)
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	img, code, err := s.view(r)
	if err != nil {
		http.Error(w, err.Error(), code)
		return
	}

	q := r.URL.Query()
	x, errX := strconv.Atoi(q.Get("x"))
	y, errY := strconv.Atoi(q.Get("y"))
	if errX != nil || errY != nil {
		http.Error(w, "x and y are required integers", http.StatusBadRequest)
		return
	}
	factor, err := intParam(q.Get("factor"), magnifier.DefaultFactor)
	if err != nil || factor < 1 || factor > magnifier.MaxFactor {
		http.Error(w, fmt.Sprintf("factor must be in [1, %d]", magnifier.MaxFactor), http.StatusBadRequest)
		return
	}
	size, err := intParam(q.Get("size"), magnifier.DefaultSize)
	if err != nil || size < 1 || size > 2048 {
		http.Error(w, "size must be in [1, 2048]", http.StatusBadRequest)
		return
	}

	writePNG(w, magnifier.Zoom(img, image.Pt(x, y), factor, size))
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func writePNG(w http.ResponseWriter, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	if err := engine.EncodePNG(w, img); err != nil {
		slog.Error("png encode error", "error", err)
	}
}
