package board

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"dispensecore/engine"
)

const sessionName = "dispenseboard"

type LogFunc func(format string, args ...any)

// Server is the dashboard's web layer. Each browser gets its own
// staging session keyed by a cookie, so two nurses never share a cart.
type Server struct {
	eng     *engine.Engine
	cookies *sessions.CookieStore
	logFn   LogFunc

	mu    sync.Mutex
	carts map[string]*engine.Session
}

func NewServer(eng *engine.Engine, sessionKey string, logFn LogFunc) *Server {
	if logFn == nil {
		logFn = log.Printf
	}
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}
	return &Server{
		eng:     eng,
		cookies: sessions.NewCookieStore([]byte(sessionKey)),
		logFn:   logFn,
		carts:   make(map[string]*engine.Session),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/view", s.apiView)
	r.Get("/api/lookup", s.apiLookup)

	r.Get("/api/cart", s.apiCart)
	r.Post("/api/cart/patient", s.apiCartPatient)
	r.Post("/api/cart/items", s.apiCartAdd)
	r.Delete("/api/cart/items/{index}", s.apiCartRemove)
	r.Post("/api/cart/clear", s.apiCartClear)
	r.Post("/api/cart/submit", s.apiCartSubmit)

	return r
}

// session finds or creates the caller's staging session from the cookie.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *engine.Session {
	ck, _ := s.cookies.Get(r, sessionName)
	sid, ok := ck.Values["sid"].(string)
	if !ok || sid == "" {
		sid = uuid.NewString()
		ck.Values["sid"] = sid
		if err := ck.Save(r, w); err != nil {
			s.logFn("board: save session cookie: %v", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.carts[sid]
	if !ok {
		sess = s.eng.NewSession()
		s.carts[sid] = sess
	}
	return sess
}

func (s *Server) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
