package naming

import (
	"encoding/json"
	"regexp"
	"testing"
)

func TestSynthesizeAppendedID(t *testing.T) {
	for i := 1; i <= 3; i++ {
		got := Synthesize(AppendedID, "bot", i, 3, nil)
		want := "bot_" + string(rune('0'+i))
		if got != want {
			t.Errorf("index %d: expected %q, got %q", i, want, got)
		}
	}
}

func TestSynthesizeBinaryWidth(t *testing.T) {
	want := []string{"bot_001", "bot_010", "bot_011", "bot_100", "bot_101"}
	for i, w := range want {
		if got := Synthesize(Binary, "bot", i+1, 5, nil); got != w {
			t.Errorf("index %d: expected %q, got %q", i+1, w, got)
		}
	}
}

func TestBinaryLabel(t *testing.T) {
	tests := []struct {
		index, total int
		want         string
	}{
		{1, 1, "1"},
		{1, 2, "01"},
		{2, 3, "10"},
		{4, 4, "100"},
		{7, 7, "111"},
		{1, 8, "0001"},
		{100, 100, "1100100"},
	}
	for _, tc := range tests {
		if got := BinaryLabel(tc.index, tc.total); got != tc.want {
			t.Errorf("BinaryLabel(%d, %d): expected %q, got %q", tc.index, tc.total, tc.want, got)
		}
	}
}

func TestSynthesizeRandomHex(t *testing.T) {
	pattern := regexp.MustCompile(`^bot_[0-9A-F]{4}$`)
	for i := 1; i <= 50; i++ {
		got := Synthesize(RandomHex, "bot", i, 50, nil)
		if !pattern.MatchString(got) {
			t.Fatalf("unexpected random_hex name %q", got)
		}
	}
}

func TestSynthesizeRandomHexPadsSmallValues(t *testing.T) {
	orig := randomHex
	t.Cleanup(func() { randomHex = orig })

	pattern := regexp.MustCompile(`^[0-9A-F]{4}$`)
	for i := 0; i < 200; i++ {
		if got := orig(); !pattern.MatchString(got) {
			t.Fatalf("expected 4 uppercase hex digits, got %q", got)
		}
	}

	randomHex = func() string { return "00AF" }
	if got := Synthesize(RandomHex, "x", 1, 1, nil); got != "x_00AF" {
		t.Fatalf("expected x_00AF, got %q", got)
	}
}

func TestSynthesizeRealisticPartialPool(t *testing.T) {
	pool := []string{"Ada Lovelace", "Alan Turing"}
	want := []string{"Ada Lovelace", "Alan Turing", "bot_3"}
	for i, w := range want {
		if got := Synthesize(Realistic, "bot", i+1, 3, pool); got != w {
			t.Errorf("index %d: expected %q, got %q", i+1, w, got)
		}
	}
}

func TestSynthesizeUnknownPolicyFallsBack(t *testing.T) {
	if got := Synthesize(Policy(42), "bot", 7, 10, nil); got != "bot_7" {
		t.Fatalf("expected bot_7, got %q", got)
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	for _, p := range []Policy{AppendedID, Binary} {
		a := Synthesize(p, "fleet", 9, 12, nil)
		b := Synthesize(p, "fleet", 9, 12, nil)
		if a != b {
			t.Errorf("%s: %q != %q", p, a, b)
		}
	}
}

func TestSynthesizeUniqueForDeterministicPolicies(t *testing.T) {
	pool := FallbackNames(100)
	for _, p := range []Policy{AppendedID, Binary, Realistic} {
		for _, count := range []int{1, 2, 5, 16, 100} {
			seen := make(map[string]bool, count)
			for i := 1; i <= count; i++ {
				name := Synthesize(p, "bot", i, count, pool)
				if seen[name] {
					t.Fatalf("%s count=%d: duplicate name %q", p, count, name)
				}
				seen[name] = true
			}
		}
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want Policy
	}{
		{"appended_id", AppendedID},
		{"random_hex", RandomHex},
		{"binary", Binary},
		{"realistic", Realistic},
		{"", AppendedID},
		{"REALISTIC", AppendedID},
		{"sequential", AppendedID},
	}
	for _, tc := range tests {
		if got := ParsePolicy(tc.in); got != tc.want {
			t.Errorf("ParsePolicy(%q): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestPolicyJSON(t *testing.T) {
	var body struct {
		Policy Policy `json:"namePolicy"`
	}
	if err := json.Unmarshal([]byte(`{"namePolicy":"binary"}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Policy != Binary {
		t.Fatalf("expected binary, got %v", body.Policy)
	}
	if err := json.Unmarshal([]byte(`{"namePolicy":7}`), &body); err != nil {
		t.Fatalf("unmarshal non-string: %v", err)
	}
	if body.Policy != AppendedID {
		t.Fatalf("expected appended_id for non-string, got %v", body.Policy)
	}

	out, err := json.Marshal(struct {
		P Policy `json:"p"`
	}{Realistic})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"p":"realistic"}` {
		t.Fatalf("unexpected encoding %s", out)
	}
}
