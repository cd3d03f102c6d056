package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorCode(t *testing.T) {
	if got := ErrorCode(nil); got != "" {
		t.Errorf("ErrorCode(nil) = %q, want empty", got)
	}
	if got := ErrorCode(Errorf(ENOTFOUND, "gone")); got != ENOTFOUND {
		t.Errorf("ErrorCode = %q, want %q", got, ENOTFOUND)
	}
	if got := ErrorCode(errors.New("boom")); got != EINTERNAL {
		t.Errorf("ErrorCode of a plain error = %q, want %q", got, EINTERNAL)
	}
	wrapped := fmt.Errorf("saving: %w", Errorf(ECONFLICT, "taken"))
	if got := ErrorCode(wrapped); got != ECONFLICT {
		t.Errorf("ErrorCode of a wrapped error = %q, want %q", got, ECONFLICT)
	}
}

func TestErrorMessage(t *testing.T) {
	if got := ErrorMessage(Errorf(EINVALID, "A title is required.")); got != "A title is required." {
		t.Errorf("ErrorMessage = %q", got)
	}
	// Internals never reach the user.
	if got := ErrorMessage(errors.New("pq: connection refused")); got != "Something went wrong. Please try again." {
		t.Errorf("ErrorMessage of a plain error = %q", got)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Errorf(ECONFLICT, ""), http.StatusConflict},
		{Errorf(EINVALID, ""), http.StatusUnprocessableEntity},
		{Errorf(ENOTFOUND, ""), http.StatusNotFound},
		{Errorf(EUNAUTHORIZED, ""), http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := ErrorStatus(tt.err); got != tt.want {
			t.Errorf("ErrorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
