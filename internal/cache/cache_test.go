package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := m.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("expected hit, got %q %v %v", got, ok, err)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("expected entry to expire")
	}
	if _, ok, _ := m.Get(ctx, "forever"); !ok {
		t.Fatal("entry without ttl should not expire")
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte("abc")
	_ = m.Set(ctx, "k", value, 0)
	value[0] = 'x'

	got, _, _ := m.Get(ctx, "k")
	got[1] = 'y'
	again, _, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value was mutated: %q", again)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	type payload struct {
		Name  string
		Items []string
	}
	in := payload{Name: "react", Items: []string{"a", "b"}}
	if err := SetJSON(ctx, m, "p", in, time.Hour); err != nil {
		t.Fatalf("set json: %v", err)
	}

	var out payload
	ok, err := GetJSON(ctx, m, "p", &out)
	if err != nil || !ok {
		t.Fatalf("get json: ok=%v err=%v", ok, err)
	}
	if out.Name != "react" || len(out.Items) != 2 {
		t.Fatalf("unexpected payload %+v", out)
	}

	_ = m.Delete(ctx, "p")
	if ok, _ := GetJSON(ctx, m, "p", &out); ok {
		t.Fatal("expected miss after delete")
	}

	_ = m.Set(ctx, "bad", []byte("{"), 0)
	if _, err := GetJSON(ctx, m, "bad", &out); err == nil {
		t.Fatal("expected decode error")
	}
}
