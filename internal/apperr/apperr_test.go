package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := NotFound("room not found")
	kind, ok := KindOf(err)
	if !ok || kind != KindNotFound {
		t.Fatalf("expected not_found kind, got %v (ok=%v)", kind, ok)
	}

	if _, ok := KindOf(errors.New("disk on fire")); ok {
		t.Fatal("expected plain errors to have no kind")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := Forbidden("admins only")
	wrapped := fmt.Errorf("update room: %w", inner)

	if !Is(wrapped, KindForbidden) {
		t.Fatalf("expected forbidden kind through wrap, got %v", wrapped)
	}
	if Message(wrapped) != "admins only" {
		t.Fatalf("expected inner message, got %q", Message(wrapped))
	}
}

func TestMessageHidesInternals(t *testing.T) {
	if got := Message(errors.New("pq: connection refused")); got != "internal error" {
		t.Fatalf("expected generic message for internal error, got %q", got)
	}
}
