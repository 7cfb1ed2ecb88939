package postgres

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestULIDGeneratorMonotonicWithinMillisecond(t *testing.T) {
	gen := NewULIDGenerator()
	fixed := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	gen.now = func() time.Time { return fixed }

	prev := gen.Generate()
	for i := 0; i < 100; i++ {
		next := gen.Generate()
		if next <= prev {
			t.Fatalf("expected %s to sort after %s", next, prev)
		}
		prev = next
	}
}

func TestULIDGeneratorProducesValidULIDs(t *testing.T) {
	gen := NewULIDGenerator()

	id := gen.Generate()
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		t.Fatalf("generated id %q is not a ULID: %v", id, err)
	}
	if time.Since(ulid.Time(parsed.Time())) > time.Minute {
		t.Fatalf("unexpected timestamp in %s", id)
	}
}
