package services_test

import (
	"errors"
	"strings"
	"testing"

	"fabworks/internal/services"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := services.Wrap(services.ErrDataStore, "store", "update_step", "writing step 4", cause)

	if !errors.Is(err, services.ErrDataStore) {
		t.Fatal("marker lost")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause lost")
	}
	msg := err.Error()
	for _, want := range []string{"store", "update_step", "writing step 4", "disk full"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q: %q", want, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "stepstatus", "transition", "unknown target", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatal("marker lost")
	}
	if !strings.Contains(err.Error(), "unknown target") {
		t.Fatalf("message lost: %q", err.Error())
	}
}

func TestRetryable(t *testing.T) {
	conflict := services.Wrap(services.ErrConflict, "stepstatus", "transition", "", nil)
	if !services.Retryable(conflict) {
		t.Fatal("conflicts should be retryable")
	}
	validation := services.Wrap(services.ErrValidation, "stepstatus", "transition", "", nil)
	if services.Retryable(validation) {
		t.Fatal("validation errors are not retryable")
	}
	if services.Retryable(nil) {
		t.Fatal("nil is not retryable")
	}
}
