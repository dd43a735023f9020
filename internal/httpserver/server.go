// internal/httpserver/server.go
//
// HTTP server wiring for the memory game backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, logging).
//   - Public endpoints: "/", "/health", "/catalog".
//   - Game endpoints (optional auth): GET /game/state, POST /game/new, POST /game/click.
//   - Results view (optional auth): GET /results.
//   - Auth endpoints: /auth/* (see auth_routes.go).
//   - Dev-only demo data: POST /debug/results/sample.
//
// Notes:
//   - Every browser gets a client cookie; the game session is keyed by it.
//   - Optional auth decorates requests with the signed-in user when a valid
//     token is present; guests play the same endpoints with local storage.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/internal/auth"
	"github.com/robalobadob/memory/internal/catalog"
	"github.com/robalobadob/memory/internal/config"
	"github.com/robalobadob/memory/internal/deck"
	"github.com/robalobadob/memory/internal/game"
	"github.com/robalobadob/memory/internal/session"
	"github.com/robalobadob/memory/internal/stats"
)

const completedMessage = "Congratulations! You found all the cards."

// Server bundles the router and its dependencies.
type Server struct {
	r        *chi.Mux
	cfg      config.Config
	auth     *auth.Service
	sessions *session.Manager
	catalog  catalog.Source
	now      func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, au *auth.Service, sessions *session.Manager, src catalog.Source) *Server {
	s := &Server{r: chi.NewRouter(), cfg: cfg, auth: au, sessions: sessions, catalog: src, now: time.Now}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                   // zerolog access log
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(cfg.ClientOrigin))          // credentials-friendly CORS
	s.r.Use(s.withClientID)                  // per-browser session key

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"memory-go","endpoints":["/health","/catalog","/game/*","/results","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/catalog", s.handleCatalog)

	// Game + results: OPTIONAL AUTH (guests can play)
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		r.Get("/game/state", s.handleState)
		r.Post("/game/new", s.handleNewGame)
		r.Post("/game/click", s.handleClick)
		r.Get("/results", s.handleResults)
	})

	s.mountAuthRoutes()

	if cfg.DevRoutes {
		s.r.With(s.requireAuth()).Post("/debug/results/sample", s.handleSampleResults)
	}

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// session returns the game session for this browser and identity.
func (s *Server) session(r *http.Request) *game.Session {
	userID := ""
	if me := currentUser(r); me != nil {
		userID = me.ID
	}
	return s.sessions.Get(r.Context(), clientID(r), userID)
}

// ------------------------------ CATALOG ------------------------------------

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	sets, err := s.catalog.Sets(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "catalog_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

// ------------------------------- GAME --------------------------------------

// stateRes is the board as the client renders it.
type stateRes struct {
	State *game.State `json:"state"`
	Email string      `json:"email,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	res := stateRes{State: s.session(r).Snapshot()}
	if me := currentUser(r); me != nil {
		res.Email = me.Email
	}
	writeJSON(w, http.StatusOK, res)
}

type newGameReq struct {
	GridSize int `json:"gridSize"`
}

// handleNewGame deals a new round. If the deck cannot be built the previous
// board is left untouched.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if !game.ValidGridSize(req.GridSize) {
		writeError(w, http.StatusBadRequest, "invalid_grid_size")
		return
	}
	sess := s.session(r)

	cards, err := deck.Build(r.Context(), s.catalog, req.GridSize, nil)
	if err != nil {
		log.Error().Err(err).Int("gridSize", req.GridSize).Msg("build deck")
		writeError(w, http.StatusBadGateway, "catalog_unavailable")
		return
	}
	if err := sess.Start(r.Context(), req.GridSize, cards); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stateRes{State: sess.Snapshot()})
}

type clickReq struct {
	Index *int `json:"index"`
}

type clickRes struct {
	State     *game.State  `json:"state"`
	Rejected  bool         `json:"rejected"`
	Matched   bool         `json:"matched"`
	Pending   bool         `json:"pending"` // unmatched pair, flips back shortly
	Completed bool         `json:"completed"`
	Result    *game.Result `json:"result,omitempty"`
	Message   string       `json:"message,omitempty"`
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	out, snap, err := s.session(r).Click(r.Context(), *req.Index)
	if errors.Is(err, game.ErrInvalidIndex) {
		writeError(w, http.StatusBadRequest, "invalid_index")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "click_failed")
		return
	}
	res := clickRes{
		State:     snap,
		Rejected:  out.Rejected,
		Matched:   out.Matched,
		Pending:   out.Pending != nil,
		Completed: out.Completed,
		Result:    out.Result,
	}
	if out.Completed {
		res.Message = completedMessage
	}
	writeJSON(w, http.StatusOK, res)
}

// ------------------------------ RESULTS ------------------------------------

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	snap := s.session(r).Snapshot()
	chart, err := stats.Build(snap.Results, stats.Window(q.Get("window")), stats.Mode(q.Get("mode")), s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

// handleSampleResults fills the signed-in user's history with six months of
// synthetic results.
func (s *Server) handleSampleResults(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	sample := stats.Sample(now.AddDate(0, -6, 0), now, nil)
	s.session(r).SetResults(r.Context(), sample)
	writeJSON(w, http.StatusOK, map[string]int{"results": len(sample)})
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
