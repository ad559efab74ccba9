package main

import (
	"botmaster-console/ai"
	"botmaster-console/config"
	"botmaster-console/fleet"
	"botmaster-console/handlers"
	"botmaster-console/journal"
	"botmaster-console/middleware"
	"botmaster-console/naming"
	"botmaster-console/registry"
	"botmaster-console/store"
	"log"
	"net/http"

	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file")
	port := pflag.String("port", "", "listen port (overrides config)")
	dbPath := pflag.String("db", "", "SQLite database path (overrides config)")
	botmasterURL := pflag.String("botmaster-url", "", "bot-master base URL (overrides config)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *botmasterURL != "" {
		cfg.BotmasterURL = *botmasterURL
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer s.Close()

	var batchJournal handlers.BatchJournal
	if cfg.Journal.Dir != "" {
		j, err := journal.Open(cfg.Journal.Dir, cfg.Journal.Author)
		if err != nil {
			log.Fatal("Failed to open batch journal:", err)
		}
		batchJournal = j
	} else {
		log.Println("[MAIN] Batch journal disabled (journal.dir not set)")
	}

	auth := middleware.NewAuthenticator(cfg.JWTSecret)

	hub := handlers.NewHub(auth)
	go hub.Run()

	handler := newRouter(cfg, s, auth, hub, batchJournal)

	log.Printf("[MAIN] Botmaster console starting on :%s (registry %s)", cfg.Port, cfg.BotmasterURL)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}

func newRouter(cfg *config.Config, s *store.Store, auth *middleware.Authenticator, hub *handlers.Hub, batchJournal handlers.BatchJournal) http.Handler {
	// Registry clients
	client := registry.NewClient(cfg.BotmasterURL, cfg.Registry.Timeout)
	bots := registry.NewBots(client)
	servers := registry.NewServers(client)
	providers := registry.NewProviders(client)
	dashboard := registry.NewDashboard(client)

	// Fleet operations
	names := naming.NewRandommer(cfg.Names.URL, cfg.Names.APIKey, cfg.Names.Timeout)
	provisioner := fleet.NewProvisioner(bots, names, cfg.Fleet.MemberTimeout)
	sessions := fleet.NewSessionController(bots, providers)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(s, auth)
	botHandler := handlers.NewBotHandler(s, hub, bots, provisioner, sessions, batchJournal)
	batchHandler := handlers.NewBatchHandler(s)
	serverHandler := handlers.NewServerHandler(servers)
	providerHandler := handlers.NewProviderHandler(providers, ai.NewProber(cfg.Registry.Timeout))
	dashboardHandler := handlers.NewDashboardHandler(dashboard)
	settingsHandler := handlers.NewSettingsHandler(s)

	withAuth := auth.Wrap

	mux := http.NewServeMux()

	// Public routes (no auth required)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/ws", hub.HandleWebSocket)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Protected routes (auth required)
	mux.HandleFunc("GET /api/auth/me", withAuth(authHandler.Me))

	// Bots
	mux.HandleFunc("GET /api/bots", withAuth(botHandler.List))
	mux.HandleFunc("POST /api/bots", withAuth(botHandler.Create))
	mux.HandleFunc("POST /api/bots/batch", withAuth(botHandler.Batch))
	mux.HandleFunc("DELETE /api/bots/{uuid}", withAuth(botHandler.Delete))
	mux.HandleFunc("POST /api/bots/{uuid}/reconnect", withAuth(botHandler.Reconnect))
	mux.HandleFunc("PUT /api/bots/{uuid}/password", withAuth(botHandler.SetPassword))
	mux.HandleFunc("PUT /api/bots/{uuid}/prompt", withAuth(botHandler.UpdatePrompt))

	// LLM sessions
	mux.HandleFunc("POST /api/bots/{uuid}/llm/enable", withAuth(botHandler.EnableLLM))
	mux.HandleFunc("POST /api/bots/{uuid}/llm/disable", withAuth(botHandler.DisableLLM))
	mux.HandleFunc("POST /api/bots/{uuid}/llm/toggle", withAuth(botHandler.ToggleLLM))
	mux.HandleFunc("GET /api/bots/{uuid}/llm/events", withAuth(botHandler.SessionEvents))

	// Batch history
	mux.HandleFunc("GET /api/batches", withAuth(batchHandler.List))
	mux.HandleFunc("GET /api/batches/{id}", withAuth(batchHandler.Get))

	// Game servers
	mux.HandleFunc("GET /api/servers", withAuth(serverHandler.List))
	mux.HandleFunc("POST /api/servers", withAuth(serverHandler.Add))
	mux.HandleFunc("DELETE /api/servers/{id}", withAuth(serverHandler.Delete))
	mux.HandleFunc("POST /api/servers/{id}/query", withAuth(serverHandler.Query))

	// LLM providers
	mux.HandleFunc("GET /api/llm", withAuth(providerHandler.List))
	mux.HandleFunc("POST /api/llm", withAuth(providerHandler.Create))
	mux.HandleFunc("GET /api/llm/{id}", withAuth(providerHandler.Get))
	mux.HandleFunc("PUT /api/llm/{id}", withAuth(providerHandler.Update))
	mux.HandleFunc("DELETE /api/llm/{id}", withAuth(providerHandler.Delete))
	mux.HandleFunc("POST /api/llm/{id}/probe", withAuth(providerHandler.Probe))

	// Dashboard
	mux.HandleFunc("GET /api/dashboard", withAuth(dashboardHandler.Summary))

	// Settings
	mux.HandleFunc("GET /api/settings", withAuth(settingsHandler.List))
	mux.HandleFunc("PUT /api/settings", withAuth(settingsHandler.Update))

	return middleware.CORS(mux)
}
