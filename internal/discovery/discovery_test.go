package discovery

import "testing"

func TestParseTXT(t *testing.T) {
	got := parseTXT([]string{"mac=AA:BB:CC", "name=kitchen", "malformed"})
	if got["mac"] != "AA:BB:CC" || got["name"] != "kitchen" {
		t.Fatalf("parseTXT() = %+v", got)
	}
	if _, ok := got["malformed"]; ok {
		t.Fatal("expected a record with no '=' to be skipped")
	}
}

func strPtr(s string) *string { return &s }

func TestPickBest_PrefersMACMatch(t *testing.T) {
	candidates := []candidate{
		{server: Server{BaseURL: "http://a"}, mac: "11:11", name: "a"},
		{server: Server{BaseURL: "http://b"}, mac: "22:22", name: "b"},
	}

	got := pickBest(candidates, strPtr("22:22"), nil)
	if got.BaseURL != "http://b" {
		t.Fatalf("pickBest() = %+v, want server b", got)
	}
}

func TestPickBest_FallsBackToNameThenOrder(t *testing.T) {
	candidates := []candidate{
		{server: Server{BaseURL: "http://a"}, mac: "11:11", name: "a"},
		{server: Server{BaseURL: "http://b"}, mac: "22:22", name: "b"},
	}

	byName := pickBest(candidates, strPtr("no-such-mac"), strPtr("b"))
	if byName.BaseURL != "http://b" {
		t.Fatalf("pickBest() by name = %+v, want server b", byName)
	}

	byOrder := pickBest(candidates, nil, nil)
	if byOrder.BaseURL != "http://a" {
		t.Fatalf("pickBest() with no preference = %+v, want first-seen server a", byOrder)
	}
}
