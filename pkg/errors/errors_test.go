package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestWithDetailDoesNotMutateReceiver(t *testing.T) {
	derived := ErrLedgerConsistency.WithDetail("account acc-1 drifted")

	if ErrLedgerConsistency.Detail != "" {
		t.Fatalf("shared error Detail = %q, want empty after WithDetail", ErrLedgerConsistency.Detail)
	}
	if derived == ErrLedgerConsistency {
		t.Fatal("WithDetail must return a copy, not the shared instance")
	}
	if derived.Detail != "account acc-1 drifted" {
		t.Errorf("derived Detail = %q", derived.Detail)
	}
	if derived.Code != CodeLedgerConsistency {
		t.Errorf("derived Code = %v, want %v", derived.Code, CodeLedgerConsistency)
	}
	if derived.HTTPStatus != ErrLedgerConsistency.HTTPStatus {
		t.Errorf("derived HTTPStatus = %d, want %d", derived.HTTPStatus, ErrLedgerConsistency.HTTPStatus)
	}
}

func TestWithDetailConcurrentRequestsKeepOwnDetail(t *testing.T) {
	a := ErrJobTimeout.WithDetail("job a")
	b := ErrJobTimeout.WithDetail("job b")

	if a.Detail != "job a" || b.Detail != "job b" {
		t.Errorf("details cross-contaminated: a=%q b=%q", a.Detail, b.Detail)
	}
	if ErrJobTimeout.Detail != "" {
		t.Errorf("shared ErrJobTimeout Detail = %q, want empty", ErrJobTimeout.Detail)
	}
}

func TestWithErrorDoesNotMutateReceiver(t *testing.T) {
	cause := errors.New("connection refused")
	derived := ErrProviderError.WithError(cause)

	if ErrProviderError.Err != nil {
		t.Fatalf("shared error Err = %v, want nil after WithError", ErrProviderError.Err)
	}
	if !errors.Is(derived, cause) {
		t.Error("derived error must unwrap to the cause")
	}
}

func TestNewMapsCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeInvalidParam, http.StatusBadRequest},
		{CodeJobNotFound, http.StatusNotFound},
		{CodeInsufficientCredits, http.StatusPaymentRequired},
		{CodeConflict, http.StatusConflict},
		{CodeDatabaseError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := New(tt.code, "x").HTTPStatus; got != tt.want {
			t.Errorf("New(%v).HTTPStatus = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestAsAppErrorWrapsForeignError(t *testing.T) {
	appErr := AsAppError(errors.New("plain"))
	if appErr.Code != CodeUnknown {
		t.Errorf("Code = %v, want %v", appErr.Code, CodeUnknown)
	}
}
