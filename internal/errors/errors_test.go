package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestFlowError_Error(t *testing.T) {
	err := &FlowError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "note not found",
	}

	expected := "NOT_FOUND: note not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("title is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "title is required" {
		t.Errorf("Message = %q, want %q", err.Message, "title is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("note", "01ABC")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["id"] != "01ABC" {
		t.Errorf("Details[id] = %v, want %q", err.Details["id"], "01ABC")
	}
	if err.Message != "note not found: 01ABC" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestFieldErrors(t *testing.T) {
	t.Run("empty yields nil", func(t *testing.T) {
		fields := FieldErrors{}
		if err := fields.Err("task"); err != nil {
			t.Errorf("Err() = %v, want nil", err)
		}
	})

	t.Run("lists every field sorted", func(t *testing.T) {
		fields := FieldErrors{}
		fields.Add("priority", "must be one of: low, medium, high")
		fields.Add("name", "is required")
		fields.Add("name", "ignored second reason")

		err := fields.Err("task")
		if !Is(err, ErrValidation) {
			t.Fatalf("expected VALIDATION_FAILED, got %v", err)
		}
		fErr := As(err)
		if fErr.Status != 422 {
			t.Errorf("Status = %d, want 422", fErr.Status)
		}
		want := "invalid task: name (is required), priority (must be one of: low, medium, high)"
		if fErr.Message != want {
			t.Errorf("Message = %q, want %q", fErr.Message, want)
		}
		got := fErr.Details["fields"].(map[string]string)
		if got["name"] != "is required" {
			t.Errorf("fields[name] = %q", got["name"])
		}
	})
}

func TestNewGeneration(t *testing.T) {
	err := NewGeneration("study plan", fmt.Errorf("boom"))
	if err.Code != ErrGeneration || err.Status != 502 {
		t.Errorf("got %s/%d", err.Code, err.Status)
	}
	if err.Message != "study plan generation failed: boom" {
		t.Errorf("Message = %q", err.Message)
	}
	if NewGeneration("summary", nil).Message != "summary generation failed" {
		t.Error("nil cause should produce bare message")
	}
}

func TestTranscriptErrors_AreDistinct(t *testing.T) {
	errs := []*FlowError{
		NewInvalidVideoURL("nope"),
		NewTranscriptDisabled("abc"),
		NewTranscriptUnavailable("abc"),
		NewTranscriptFailed("abc", nil),
	}
	seen := map[ErrorCode]bool{}
	for _, e := range errs {
		if seen[e.Code] {
			t.Errorf("duplicate code %s", e.Code)
		}
		seen[e.Code] = true
	}
}

func TestNewInternal(t *testing.T) {
	if NewInternal(nil).Message != "internal error" {
		t.Error("nil error should produce generic message")
	}
	if NewInternal(fmt.Errorf("disk full")).Message != "disk full" {
		t.Error("message should carry cause")
	}
}

func TestIs(t *testing.T) {
	err := NewNotFound("task", "x")
	if !Is(err, ErrNotFound) {
		t.Error("Is should match code")
	}
	if Is(err, ErrInternal) {
		t.Error("Is should not match other code")
	}
	if Is(stderrors.New("plain"), ErrNotFound) {
		t.Error("Is should not match plain errors")
	}
	wrapped := fmt.Errorf("context: %w", err)
	if !Is(wrapped, ErrNotFound) {
		t.Error("Is should see through wrapping")
	}
}

func TestAs(t *testing.T) {
	plain := stderrors.New("plain")
	if As(plain).Code != ErrInternal {
		t.Error("plain errors should map to INTERNAL")
	}
	orig := NewImportFormat("bad")
	if As(fmt.Errorf("x: %w", orig)) != orig {
		t.Error("As should unwrap FlowError")
	}
}
