package httpx

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type statusErr int

func (s statusErr) Error() string       { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"429", statusErr(429), true},
		{"503 wrapped", fmt.Errorf("call: %w", statusErr(503)), true},
		{"400", statusErr(400), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("%s: got=%v want=%v", tc.name, got, tc.want)
		}
	}
}

func TestBackoffIsCapped(t *testing.T) {
	d := Backoff(time.Second, 10, 4*time.Second)
	if d > 5*time.Second {
		t.Fatalf("backoff exceeded cap with jitter: %v", d)
	}
}
