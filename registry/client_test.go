package registry_test

import (
	"botmaster-console/models"
	"botmaster-console/registry"
	"botmaster-console/registry/registrytest"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBotsCreateAndList(t *testing.T) {
	fake := registrytest.NewServer()
	defer fake.Close()

	bots := registry.NewBots(registry.NewClient(fake.URL, time.Second))
	ctx := context.Background()

	bot, err := bots.Create(ctx, models.CreateBotRequest{Name: "alpha", ServerID: 3, SystemPrompt: "hi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if bot.UUID == "" || bot.Name != "alpha" || bot.ServerID != 3 {
		t.Fatalf("unexpected bot %+v", bot)
	}

	list, err := bots.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].UUID != bot.UUID {
		t.Fatalf("unexpected list %+v", list)
	}

	got, err := bots.Get(ctx, bot.UUID)
	if err != nil || got.Name != "alpha" {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if _, err := bots.Get(ctx, "missing"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransportAndApplicationErrorsAreDistinct(t *testing.T) {
	fake := registrytest.NewServer()
	defer fake.Close()
	fake.FailCreate = func(name string) int {
		switch name {
		case "down":
			return http.StatusServiceUnavailable
		case "dup":
			return -1
		}
		return 0
	}

	bots := registry.NewBots(registry.NewClient(fake.URL, time.Second))
	ctx := context.Background()

	_, err := bots.Create(ctx, models.CreateBotRequest{Name: "down"})
	var te *registry.TransportError
	if !errors.As(err, &te) || te.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected transport error with 503, got %v", err)
	}

	_, err = bots.Create(ctx, models.CreateBotRequest{Name: "dup"})
	var ae *registry.ApplicationError
	if !errors.As(err, &ae) || ae.Message != "Bot name already exists" {
		t.Fatalf("expected application error, got %v", err)
	}
	if errors.As(err, &te) {
		t.Fatalf("application error must not look like a transport error")
	}
}

func TestCallerDeadlineOverridesClientTimeout(t *testing.T) {
	fake := registrytest.NewServer()
	defer fake.Close()
	fake.CreateDelay = 150 * time.Millisecond

	bots := registry.NewBots(registry.NewClient(fake.URL, 50*time.Millisecond))

	_, err := bots.Create(context.Background(), models.CreateBotRequest{Name: "slow"})
	var te *registry.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected the client timeout to apply, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	bot, err := bots.Create(ctx, models.CreateBotRequest{Name: "patient"})
	if err != nil {
		t.Fatalf("create with a longer caller deadline: %v", err)
	}
	if bot.Name != "patient" {
		t.Fatalf("unexpected bot %+v", bot)
	}
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := registry.NewBots(registry.NewClient(url, time.Second)).List(context.Background())
	var te *registry.TransportError
	if !errors.As(err, &te) || te.StatusCode != 0 {
		t.Fatalf("expected network transport error, got %v", err)
	}
}

func TestMalformedEnvelopeIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>proxy error</html>"))
	}))
	defer srv.Close()

	_, err := registry.NewProviders(registry.NewClient(srv.URL, time.Second)).List(context.Background())
	var te *registry.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestSessionCalls(t *testing.T) {
	fake := registrytest.NewServer()
	defer fake.Close()
	uuid := fake.AddBot(models.Bot{Name: "b"})

	bots := registry.NewBots(registry.NewClient(fake.URL, time.Second))
	ctx := context.Background()

	if _, err := bots.EnableLLMSession(ctx, uuid, 4); err != nil {
		t.Fatalf("enable: %v", err)
	}
	b, _ := fake.Bot(uuid)
	if !b.HasLLMSession || b.LLMProviderID == nil || *b.LLMProviderID != 4 {
		t.Fatalf("expected session bound to provider 4, got %+v", b)
	}

	if _, err := bots.DisableLLMSession(ctx, uuid); err != nil {
		t.Fatalf("disable: %v", err)
	}
	b, _ = fake.Bot(uuid)
	if b.HasLLMSession || b.LLMProviderID != nil {
		t.Fatalf("expected detached bot, got %+v", b)
	}
}

func TestServersAndProviders(t *testing.T) {
	fake := registrytest.NewServer()
	defer fake.Close()
	fake.AddGameServer(models.GameServer{ID: 1, Host: "127.0.0.1", Port: 7777})
	fake.AddProvider(models.Provider{ID: 2, Name: "local", BaseURL: "http://llm", Model: "m"})

	c := registry.NewClient(fake.URL+"/", time.Second)
	ctx := context.Background()

	servers, err := registry.NewServers(c).List(ctx)
	if err != nil || len(servers) != 1 || servers[0].Port != 7777 {
		t.Fatalf("servers: %+v, %v", servers, err)
	}

	providers := registry.NewProviders(c)
	ok, err := providers.Exists(ctx, 2)
	if err != nil || !ok {
		t.Fatalf("expected provider 2 to exist: %v", err)
	}
	ok, err = providers.Exists(ctx, 9)
	if err != nil || ok {
		t.Fatalf("expected provider 9 to be missing: %v", err)
	}

	p, err := providers.Get(ctx, 2)
	if err != nil || p.Model != "m" {
		t.Fatalf("get provider: %+v, %v", p, err)
	}
	var ae *registry.ApplicationError
	if _, err := providers.Get(ctx, 9); !errors.As(err, &ae) {
		t.Fatalf("expected application error for missing provider, got %v", err)
	}
}

func TestDashboardSummary(t *testing.T) {
	fake := registrytest.NewServer()
	defer fake.Close()

	s, err := registry.NewDashboard(registry.NewClient(fake.URL, time.Second)).Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if string(s.Runtime) != `{"uptime_string":"1h"}` {
		t.Fatalf("unexpected runtime tile %s", s.Runtime)
	}
	if len(s.BotStats) == 0 || len(s.ServerStats) == 0 {
		t.Fatalf("missing tiles: %+v", s)
	}
}

func TestDashboardSummaryFailsAsAWhole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/dashboard/bot_stats" {
			http.Error(w, "nope", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer srv.Close()

	if _, err := registry.NewDashboard(registry.NewClient(srv.URL, time.Second)).Summary(context.Background()); err == nil {
		t.Fatal("expected summary to fail when one tile fails")
	}
}
