package fleet

import (
	"botmaster-console/models"
	"botmaster-console/naming"
	"botmaster-console/registry"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeCreator struct {
	mu       sync.Mutex
	requests []models.CreateBotRequest
	create   func(ctx context.Context, req models.CreateBotRequest) (*models.Bot, error)
}

func (f *fakeCreator) Create(ctx context.Context, req models.CreateBotRequest) (*models.Bot, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	f.mu.Unlock()
	if f.create != nil {
		return f.create(ctx, req)
	}
	return &models.Bot{UUID: fmt.Sprintf("uuid-%d", n), Name: req.Name}, nil
}

func (f *fakeCreator) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.requests))
	for i, r := range f.requests {
		names[i] = r.Name
	}
	sort.Strings(names)
	return names
}

type fakeNames struct {
	calls atomic.Int32
	pool  []string
}

func (f *fakeNames) FetchNames(ctx context.Context, count int) []string {
	f.calls.Add(1)
	return f.pool
}

func TestProvisionPartialFailure(t *testing.T) {
	failing := map[string]error{
		"bot_2": &registry.TransportError{Op: "create bot", StatusCode: 500},
		"bot_5": &registry.ApplicationError{Op: "create bot", Message: "duplicate name"},
		"bot_9": errors.New("connection reset"),
	}
	creator := &fakeCreator{create: func(ctx context.Context, req models.CreateBotRequest) (*models.Bot, error) {
		if err, ok := failing[req.Name]; ok {
			return nil, err
		}
		return &models.Bot{UUID: "u-" + req.Name, Name: req.Name}, nil
	}}

	p := NewProvisioner(creator, nil, 0)
	result, err := p.Provision(context.Background(), models.BatchSpec{Count: 10, NamePolicy: naming.AppendedID, BaseName: "bot"}, nil)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	if result.SuccessCount != 7 || result.FailureCount != 3 {
		t.Fatalf("expected 7/3, got %d/%d", result.SuccessCount, result.FailureCount)
	}
	if got := len(creator.names()); got != 10 {
		t.Fatalf("expected all 10 members attempted, got %d", got)
	}
	for _, m := range result.Members {
		_, shouldFail := failing[m.Name]
		if m.OK() == shouldFail {
			t.Errorf("member %s: ok=%v, expected failure=%v (%s)", m.Name, m.OK(), shouldFail, m.Error)
		}
		if m.OK() && m.UUID != "u-"+m.Name {
			t.Errorf("member %s: unexpected uuid %q", m.Name, m.UUID)
		}
	}
	for i, m := range result.Members {
		if m.Index != i+1 {
			t.Fatalf("members out of index order: %+v", result.Members)
		}
	}
}

func TestProvisionLaunchesAllBeforeWaiting(t *testing.T) {
	const count = 25
	var arrived atomic.Int32
	all := make(chan struct{})

	creator := &fakeCreator{create: func(ctx context.Context, req models.CreateBotRequest) (*models.Bot, error) {
		if arrived.Add(1) == count {
			close(all)
		}
		select {
		case <-all:
			return &models.Bot{UUID: req.Name}, nil
		case <-time.After(2 * time.Second):
			return nil, errors.New("siblings were not in flight")
		}
	}}

	result, err := NewProvisioner(creator, nil, 0).Provision(context.Background(),
		models.BatchSpec{Count: count, NamePolicy: naming.Binary, BaseName: "b"}, nil)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if result.SuccessCount != count {
		t.Fatalf("expected every member in flight at once, got %d/%d", result.SuccessCount, count)
	}
}

func TestProvisionValidation(t *testing.T) {
	tests := []struct {
		name  string
		spec  models.BatchSpec
		field string
	}{
		{"zero count", models.BatchSpec{Count: 0, BaseName: "b"}, "count"},
		{"negative count", models.BatchSpec{Count: -3, BaseName: "b"}, "count"},
		{"too many", models.BatchSpec{Count: 101, BaseName: "b"}, "count"},
		{"missing base name", models.BatchSpec{Count: 3, BaseName: "  "}, "name"},
		{"negative server", models.BatchSpec{Count: 3, BaseName: "b", ServerID: -1}, "server_id"},
		{"realistic still validated", models.BatchSpec{Count: 0, BaseName: "b", NamePolicy: naming.Realistic}, "count"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			creator := &fakeCreator{}
			names := &fakeNames{}
			_, err := NewProvisioner(creator, names, 0).Provision(context.Background(), tc.spec, nil)

			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected validation error on %s, got %v", tc.field, err)
			}
			if len(creator.names()) != 0 || names.calls.Load() != 0 {
				t.Fatalf("no network call may be made on validation failure")
			}
		})
	}
}

func TestProvisionBoundaryCounts(t *testing.T) {
	for _, count := range []int{1, models.MaxBatchSize} {
		creator := &fakeCreator{}
		result, err := NewProvisioner(creator, nil, 0).Provision(context.Background(),
			models.BatchSpec{Count: count, BaseName: "edge"}, nil)
		if err != nil {
			t.Fatalf("count %d: %v", count, err)
		}
		if result.SuccessCount != count || result.FailureCount != 0 {
			t.Fatalf("count %d: unexpected result %d/%d", count, result.SuccessCount, result.FailureCount)
		}
	}
}

func TestProvisionFetchesNamesOnlyForRealistic(t *testing.T) {
	for _, policy := range []naming.Policy{naming.AppendedID, naming.RandomHex, naming.Binary} {
		names := &fakeNames{}
		if _, err := NewProvisioner(&fakeCreator{}, names, 0).Provision(context.Background(),
			models.BatchSpec{Count: 3, NamePolicy: policy, BaseName: "b"}, nil); err != nil {
			t.Fatalf("%s: %v", policy, err)
		}
		if names.calls.Load() != 0 {
			t.Fatalf("%s: external names must not be fetched", policy)
		}
	}
}

func TestProvisionRealisticUsesSharedPool(t *testing.T) {
	names := &fakeNames{pool: []string{"Ada Lovelace", "Alan Turing"}}
	creator := &fakeCreator{}

	result, err := NewProvisioner(creator, names, 0).Provision(context.Background(),
		models.BatchSpec{Count: 3, NamePolicy: naming.Realistic, BaseName: "npc"}, nil)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if names.calls.Load() != 1 {
		t.Fatalf("expected exactly one fetch, got %d", names.calls.Load())
	}
	want := []string{"Ada Lovelace", "Alan Turing", "npc_3"}
	for i, m := range result.Members {
		if m.Name != want[i] {
			t.Errorf("member %d: expected %q, got %q", i+1, want[i], m.Name)
		}
	}
}

func TestProvisionRealisticWithoutSource(t *testing.T) {
	result, err := NewProvisioner(&fakeCreator{}, nil, 0).Provision(context.Background(),
		models.BatchSpec{Count: 2, NamePolicy: naming.Realistic, BaseName: "npc"}, nil)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if result.Members[0].Name != "User1" || result.Members[1].Name != "User2" {
		t.Fatalf("unexpected names %+v", result.Members)
	}
}

func TestProvisionMemberTimeout(t *testing.T) {
	creator := &fakeCreator{create: func(ctx context.Context, req models.CreateBotRequest) (*models.Bot, error) {
		if req.Name == "slow_2" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &models.Bot{UUID: req.Name}, nil
	}}

	result, err := NewProvisioner(creator, nil, 50*time.Millisecond).Provision(context.Background(),
		models.BatchSpec{Count: 4, BaseName: "slow"}, nil)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if result.SuccessCount != 3 || result.FailureCount != 1 {
		t.Fatalf("expected 3/1, got %d/%d", result.SuccessCount, result.FailureCount)
	}
	if result.Members[1].OK() {
		t.Fatalf("expected the slow member to fail")
	}
}

func TestProvisionRecoversMemberPanic(t *testing.T) {
	creator := &fakeCreator{create: func(ctx context.Context, req models.CreateBotRequest) (*models.Bot, error) {
		if req.Name == "p_1" {
			panic("boom")
		}
		return &models.Bot{UUID: req.Name}, nil
	}}
	result, err := NewProvisioner(creator, nil, 0).Provision(context.Background(), models.BatchSpec{Count: 2, BaseName: "p"}, nil)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if result.SuccessCount != 1 || result.FailureCount != 1 {
		t.Fatalf("expected 1/1, got %d/%d", result.SuccessCount, result.FailureCount)
	}
}

func TestProvisionObserverAndRequestFields(t *testing.T) {
	creator := &fakeCreator{}
	var mu sync.Mutex
	seen := map[int]bool{}

	spec := models.BatchSpec{
		Count:             4,
		NamePolicy:        naming.AppendedID,
		BaseName:          "guard",
		ServerID:          12,
		Invulnerable:      true,
		SystemPrompt:      "You are {{bot.name}} ({{bot.index}}/{{batch.size}}).",
		InterpolatePrompt: true,
	}
	_, err := NewProvisioner(creator, nil, 0).Provision(context.Background(), spec, func(m models.MemberOutcome) {
		mu.Lock()
		seen[m.Index] = true
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if len(seen) != 4 {
		t.Fatalf("expected observer for every member, got %v", seen)
	}

	creator.mu.Lock()
	defer creator.mu.Unlock()
	for _, req := range creator.requests {
		if req.ServerID != 12 || !req.Invulnerable {
			t.Errorf("request lost batch fields: %+v", req)
		}
		var idx int
		fmt.Sscanf(req.Name, "guard_%d", &idx)
		want := fmt.Sprintf("You are %s (%d/4).", req.Name, idx)
		if req.SystemPrompt != want {
			t.Errorf("expected prompt %q, got %q", want, req.SystemPrompt)
		}
	}
}

func TestProvisionLeavesPlaceholdersAloneByDefault(t *testing.T) {
	creator := &fakeCreator{}
	const raw = "Greet players on {{date}} as {{bot.name}}."
	_, err := NewProvisioner(creator, nil, 0).Provision(context.Background(),
		models.BatchSpec{Count: 2, BaseName: "b", SystemPrompt: raw}, nil)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	creator.mu.Lock()
	defer creator.mu.Unlock()
	if len(creator.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(creator.requests))
	}
	for _, req := range creator.requests {
		if req.SystemPrompt != raw {
			t.Fatalf("prompt rewritten without opting in: %q", req.SystemPrompt)
		}
	}
}

func TestProvisionPlainPromptIsCarriedVerbatim(t *testing.T) {
	creator := &fakeCreator{}
	_, err := NewProvisioner(creator, nil, 0).Provision(context.Background(),
		models.BatchSpec{Count: 3, BaseName: "b", SystemPrompt: "Be polite."}, nil)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	for _, req := range creator.requests {
		if req.SystemPrompt != "Be polite." {
			t.Fatalf("prompt changed: %q", req.SystemPrompt)
		}
	}
}
