package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("DP_TEST_DURATION", "")
	if got := Duration("DP_TEST_DURATION", time.Second); got != time.Second {
		t.Fatalf("default: got=%v", got)
	}
	t.Setenv("DP_TEST_DURATION", "250")
	if got := Duration("DP_TEST_DURATION", time.Second); got != 250*time.Millisecond {
		t.Fatalf("ms: got=%v", got)
	}
	t.Setenv("DP_TEST_DURATION", "2s")
	if got := Duration("DP_TEST_DURATION", time.Second); got != 2*time.Second {
		t.Fatalf("parsed: got=%v", got)
	}
	t.Setenv("DP_TEST_DURATION", "soon")
	if got := Duration("DP_TEST_DURATION", time.Second); got != time.Second {
		t.Fatalf("invalid: got=%v", got)
	}
}

func TestBoolAndInt(t *testing.T) {
	t.Setenv("DP_TEST_BOOL", "on")
	if !Bool("DP_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	t.Setenv("DP_TEST_BOOL", "maybe")
	if Bool("DP_TEST_BOOL", false) {
		t.Fatal("expected default false")
	}
	t.Setenv("DP_TEST_INT", "x")
	if got := Int("DP_TEST_INT", 7); got != 7 {
		t.Fatalf("int default: got=%d", got)
	}
}
