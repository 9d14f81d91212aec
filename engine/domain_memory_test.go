package engine

import (
	"testing"
	"time"
)

func TestDomainMemory_SetGet(t *testing.T) {
	dm := NewDomainMemory(time.Hour)
	dm.Set("www.facebook.com", "rod")

	if got := dm.Get("www.facebook.com"); got != "rod" {
		t.Errorf("Get = %q, want rod", got)
	}
	if got := dm.Get("m.facebook.com"); got != "" {
		t.Errorf("unknown host = %q, want empty", got)
	}
}

func TestDomainMemory_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dm := NewDomainMemory(time.Minute)
	dm.now = func() time.Time { return now }

	dm.Set("a.example", "http")
	now = now.Add(2 * time.Minute)

	if got := dm.Get("a.example"); got != "" {
		t.Errorf("expired entry returned %q", got)
	}
	if dm.Len() != 0 {
		t.Errorf("expired entry not dropped, Len = %d", dm.Len())
	}
}

func TestDomainMemory_SetSweepsExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dm := NewDomainMemory(time.Minute)
	dm.now = func() time.Time { return now }

	dm.Set("old.example", "http")
	now = now.Add(time.Hour)
	dm.Set("new.example", "rod")

	if dm.Len() != 1 {
		t.Errorf("Len = %d, want 1", dm.Len())
	}
}

func TestDomainMemory_Delete(t *testing.T) {
	dm := NewDomainMemory(time.Hour)
	dm.Set("www.facebook.com", "rod")
	dm.Delete("www.facebook.com")

	if got := dm.Get("www.facebook.com"); got != "" {
		t.Errorf("deleted entry returned %q", got)
	}
}

func TestDomainMemory_NilIsSafe(t *testing.T) {
	var dm *DomainMemory
	dm.Set("x", "rod")
	dm.Delete("x")
	if dm.Get("x") != "" || dm.Len() != 0 {
		t.Error("nil memory should remember nothing")
	}
}
