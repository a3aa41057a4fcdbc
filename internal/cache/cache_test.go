package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c, err := New(1<<20, time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Set("posts/day-1.md:abc", []byte("payload"))
	c.Wait()

	got, ok := c.Get("posts/day-1.md:abc")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != "payload" {
		t.Errorf("value = %q", got)
	}
	if _, ok := c.Get("posts/day-1.md:other"); ok {
		t.Error("different checksum should miss")
	}
}
