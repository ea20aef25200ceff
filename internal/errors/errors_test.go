package errors

import (
	"fmt"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAppErrorString(t *testing.T) {
	err := Wrap(fmt.Errorf("exit status 1"), CodeCaptureFailed, "all capture strategies failed").
		WithMetadata("attempts", "2")

	s := err.Error()
	for _, want := range []string{"[CAPTURE_FAILED]", "all capture strategies failed", "attempts:2", "caused by: exit status 1"} {
		if !strings.Contains(s, want) {
			t.Errorf("Error() = %q, missing %q", s, want)
		}
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := New(CodePersistenceFailed, "write failed")
	wrapped := fmt.Errorf("take screenshot: %w", inner)

	if !IsCode(wrapped, CodePersistenceFailed) {
		t.Error("IsCode should see through fmt wrapping")
	}
	if IsCode(wrapped, CodeCaptureFailed) {
		t.Error("IsCode matched the wrong code")
	}
	if IsCode(fmt.Errorf("plain"), CodeUnknown) {
		t.Error("plain errors carry no code")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{New(CodeUnavailable, "down"), true},
		{New(CodeProcessingFailed, "bad request"), false},
		{fmt.Errorf("plain"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestGRPCStatusRoundTrip(t *testing.T) {
	orig := New(CodeCaptureInFlight, "a screenshot is already being captured").WithMetadata("view", "queue")

	st := orig.GRPCStatus()
	if st.Code() != codes.Aborted {
		t.Errorf("status code = %v, want Aborted", st.Code())
	}

	back := FromGRPCError(st.Err())
	if back.Code != CodeCaptureInFlight {
		t.Errorf("Code = %v, want CAPTURE_IN_FLIGHT", back.Code)
	}
	if back.Message != orig.Message {
		t.Errorf("Message = %q, want %q", back.Message, orig.Message)
	}
	if back.Metadata["view"] != "queue" {
		t.Errorf("Metadata = %v, want view=queue", back.Metadata)
	}
}

func TestFromGRPCErrorWithoutDetails(t *testing.T) {
	err := status.Error(codes.NotFound, "missing")
	if got := FromGRPCError(err).Code; got != CodeNotFound {
		t.Errorf("Code = %v, want NOT_FOUND", got)
	}

	plain := FromGRPCError(fmt.Errorf("boom"))
	if plain.Code != CodeUnknown || plain.Message != "boom" {
		t.Errorf("unexpected conversion: %+v", plain)
	}
}

func TestResultOf(t *testing.T) {
	if r := ResultOf(nil); !r.Success || r.Error != "" {
		t.Errorf("ResultOf(nil) = %+v", r)
	}

	r := ResultOf(Wrap(fmt.Errorf("permission denied"), CodePersistenceFailed, "failed to delete screenshot"))
	if r.Success {
		t.Error("Success should be false")
	}
	if r.Error != "failed to delete screenshot: permission denied" {
		t.Errorf("Error = %q", r.Error)
	}
}

func TestParseCode(t *testing.T) {
	for c, name := range codeNames {
		if got := ParseCode(name); got != c {
			t.Errorf("ParseCode(%q) = %v, want %v", name, got, c)
		}
	}
	if ParseCode("NOPE") != CodeUnknown {
		t.Error("unknown names should map to CodeUnknown")
	}
}
