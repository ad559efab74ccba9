// Package registrytest provides an in-memory bot-master backend for tests.
package registrytest

import (
	"botmaster-console/models"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// Server fakes the bot-master REST API. FailCreate decides per bot name
// whether a create call fails, and how.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	bots      map[string]*models.Bot
	order     []string
	providers []models.Provider
	servers   []models.GameServer
	nextID    int

	// FailCreate returns 0 to accept, an HTTP status to fail at the
	// transport level, or -1 to answer success=false.
	FailCreate func(name string) int

	// CreateDelay holds every create call before it is answered.
	CreateDelay time.Duration

	// FailList, when it returns true, makes the bot listing answer 500.
	FailList func() bool

	Calls map[string]int
}

func NewServer() *Server {
	s := &Server{
		bots:  make(map[string]*models.Bot),
		Calls: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/bot/list", s.listBots)
	mux.HandleFunc("POST /api/bot/create", s.createBot)
	mux.HandleFunc("POST /api/bot/delete", s.deleteBot)
	mux.HandleFunc("POST /api/bot/set_password", s.simple("set_password"))
	mux.HandleFunc("POST /api/bot/reconnect", s.simple("reconnect"))
	mux.HandleFunc("POST /api/bot/enable_llm", s.enableLLM)
	mux.HandleFunc("POST /api/bot/disable_llm", s.disableLLM)
	mux.HandleFunc("POST /api/bot/update_prompt", s.updatePrompt)
	mux.HandleFunc("GET /api/server/list", s.listServers)
	mux.HandleFunc("POST /api/server/add", s.simple("server_add"))
	mux.HandleFunc("POST /api/server/delete", s.simple("server_delete"))
	mux.HandleFunc("POST /api/server/query", s.simple("server_query"))
	mux.HandleFunc("GET /llm/list", s.listProviders)
	mux.HandleFunc("GET /llm/get", s.getProvider)
	mux.HandleFunc("POST /llm/create", s.simple("llm_create"))
	mux.HandleFunc("POST /llm/update", s.simple("llm_update"))
	mux.HandleFunc("POST /llm/delete", s.simple("llm_delete"))
	mux.HandleFunc("GET /api/dashboard/runtime", s.tile("runtime", `{"uptime_string":"1h"}`))
	mux.HandleFunc("GET /api/dashboard/bot_stats", s.tile("bot_stats", `{"total":2,"connected":1,"disconnected":1}`))
	mux.HandleFunc("GET /api/dashboard/server_stats", s.tile("server_stats", `{"total":1,"online":1,"offline":0}`))

	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) AddProvider(p models.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers = append(s.providers, p)
}

func (s *Server) AddGameServer(gs models.GameServer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servers = append(s.servers, gs)
}

// AddBot seeds a bot and returns its uuid.
func (s *Server) AddBot(b models.Bot) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.UUID == "" {
		s.nextID++
		b.UUID = fmt.Sprintf("bot-%04d", s.nextID)
	}
	s.bots[b.UUID] = &b
	s.order = append(s.order, b.UUID)
	return b.UUID
}

func (s *Server) Bot(uuid string) (models.Bot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bots[uuid]
	if !ok {
		return models.Bot{}, false
	}
	return *b, true
}

func (s *Server) BotNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if b, ok := s.bots[id]; ok {
			names = append(names, b.Name)
		}
	}
	return names
}

func (s *Server) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[op]
}

func (s *Server) count(op string) {
	s.mu.Lock()
	s.Calls[op]++
	s.mu.Unlock()
}

func writeOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeFail(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

func (s *Server) simple(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.count(op)
		writeOK(w, nil)
	}
}

func (s *Server) tile(op, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.count(op)
		writeOK(w, json.RawMessage(body))
	}
}

func (s *Server) listBots(w http.ResponseWriter, r *http.Request) {
	s.count("bot_list")
	if s.FailList != nil && s.FailList() {
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	bots := make([]models.Bot, 0, len(s.order))
	for _, id := range s.order {
		if b, ok := s.bots[id]; ok {
			bots = append(bots, *b)
		}
	}
	s.mu.Unlock()
	writeOK(w, bots)
}

func (s *Server) createBot(w http.ResponseWriter, r *http.Request) {
	s.count("bot_create")
	var req models.CreateBotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if s.CreateDelay > 0 {
		time.Sleep(s.CreateDelay)
	}
	if s.FailCreate != nil {
		switch code := s.FailCreate(req.Name); {
		case code > 0:
			http.Error(w, "create failed", code)
			return
		case code < 0:
			writeFail(w, "Bot name already exists")
			return
		}
	}
	uuid := s.AddBot(models.Bot{
		Name:         req.Name,
		ServerID:     req.ServerID,
		Invulnerable: req.Invulnerable,
		SystemPrompt: req.SystemPrompt,
	})
	b, _ := s.Bot(uuid)
	writeOK(w, b)
}

func (s *Server) deleteBot(w http.ResponseWriter, r *http.Request) {
	s.count("bot_delete")
	var req struct {
		UUID string `json:"uuid"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	_, ok := s.bots[req.UUID]
	delete(s.bots, req.UUID)
	s.mu.Unlock()
	if !ok {
		writeFail(w, "Bot not found")
		return
	}
	writeOK(w, nil)
}

func (s *Server) enableLLM(w http.ResponseWriter, r *http.Request) {
	s.count("enable_llm")
	var req struct {
		UUID       string `json:"uuid"`
		ProviderID int64  `json:"provider_id"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bots[req.UUID]
	if !ok {
		writeFail(w, "Bot not found")
		return
	}
	id := req.ProviderID
	b.HasLLMSession = true
	b.LLMProviderID = &id
	writeOK(w, nil)
}

func (s *Server) disableLLM(w http.ResponseWriter, r *http.Request) {
	s.count("disable_llm")
	var req struct {
		UUID string `json:"uuid"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bots[req.UUID]
	if !ok {
		writeFail(w, "Bot not found")
		return
	}
	b.HasLLMSession = false
	b.LLMProviderID = nil
	writeOK(w, nil)
}

func (s *Server) updatePrompt(w http.ResponseWriter, r *http.Request) {
	s.count("update_prompt")
	var req struct {
		UUID         string `json:"uuid"`
		SystemPrompt string `json:"system_prompt"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bots[req.UUID]
	if !ok {
		writeFail(w, "Bot not found")
		return
	}
	b.SystemPrompt = req.SystemPrompt
	writeOK(w, nil)
}

func (s *Server) listServers(w http.ResponseWriter, r *http.Request) {
	s.count("server_list")
	s.mu.Lock()
	servers := append([]models.GameServer{}, s.servers...)
	s.mu.Unlock()
	writeOK(w, map[string]any{"servers": servers})
}

func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	s.count("llm_list")
	s.mu.Lock()
	providers := append([]models.Provider{}, s.providers...)
	s.mu.Unlock()
	writeOK(w, providers)
}

func (s *Server) getProvider(w http.ResponseWriter, r *http.Request) {
	s.count("llm_get")
	id, _ := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.providers {
		if p.ID == id {
			writeOK(w, p)
			return
		}
	}
	writeFail(w, "Provider not found")
}
