// internal/publish/cache_test.go
package publish

import (
	"testing"
)

// recorder counts deliveries per key.
type recorder struct {
	calls []string
}

func (r *recorder) PublishInt(name string, ch int, v int64) error {
	r.calls = append(r.calls, Key(name, ch))
	return nil
}

func (r *recorder) PublishFloat(name string, ch int, v float64) error {
	r.calls = append(r.calls, Key(name, ch))
	return nil
}

func (r *recorder) PublishString(name string, ch int, v string) error {
	r.calls = append(r.calls, Key(name, ch))
	return nil
}

func (r *recorder) PublishFloatArray(name string, ch int, values []float32, count int) error {
	r.calls = append(r.calls, Key(name, ch))
	return nil
}

func TestCache_SuppressesUnchangedScalars(t *testing.T) {
	rec := &recorder{}
	c := NewCache(rec)

	for i := 0; i < 3; i++ {
		if err := c.PublishFloat("totalPressure", 0, 3.2e-5); err != nil {
			t.Fatalf("publish err=%v", err)
		}
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(rec.calls))
	}

	if err := c.PublishFloat("totalPressure", 0, 4.0e-5); err != nil {
		t.Fatalf("publish err=%v", err)
	}
	if len(rec.calls) != 2 {
		t.Fatalf("expected 2 deliveries after change, got %d", len(rec.calls))
	}
}

func TestCache_ForceAllRepublishesOnce(t *testing.T) {
	rec := &recorder{}
	c := NewCache(rec)

	c.PublishInt("systemStatus", 0, 5)
	c.ForceAll()
	c.PublishInt("systemStatus", 0, 5)
	c.PublishInt("systemStatus", 0, 5)

	if len(rec.calls) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(rec.calls))
	}
}

func TestCache_ArraysAlwaysPass(t *testing.T) {
	rec := &recorder{}
	c := NewCache(rec)
	vals := []float32{1, 2, 3}

	c.PublishFloatArray("scanData", 1, vals, 3)
	c.PublishFloatArray("scanData", 1, vals, 3)

	if len(rec.calls) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(rec.calls))
	}
}

func TestCache_LastGood(t *testing.T) {
	rec := &recorder{}
	c := NewCache(rec)

	if _, _, ok := c.LastGood("ip", 0); ok {
		t.Fatal("expected no last-good before publish")
	}

	c.PublishString("ip", 0, "192.168.1.100")
	v, at, ok := c.LastGood("ip", 0)
	if !ok || v != "192.168.1.100" || at.IsZero() {
		t.Fatalf("last good = %v %v %v", v, at, ok)
	}

	if Key("startMass", 2) != "startMass/ch2" {
		t.Fatalf("key=%q", Key("startMass", 2))
	}
}
