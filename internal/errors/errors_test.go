package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestScanErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewOCRFailedError("sub-1", "cloud", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause through Unwrap")
	}

	var scanErr *ScanError
	if !stderrors.As(fmt.Errorf("wrapped: %w", err), &scanErr) {
		t.Fatal("expected errors.As to recover the ScanError")
	}
	if scanErr.Code != ErrorOCRFailed {
		t.Errorf("expected code %s, got %s", ErrorOCRFailed, scanErr.Code)
	}
	if scanErr.SubmissionID != "sub-1" {
		t.Errorf("expected submission ID sub-1, got %q", scanErr.SubmissionID)
	}
}

func TestScanErrorToMap(t *testing.T) {
	err := NewOCRFailedError("sub-2", "local", fmt.Errorf("tesseract crashed"))
	m := err.ToMap()

	if m["error_code"] != string(ErrorOCRFailed) {
		t.Errorf("expected error_code %s, got %v", ErrorOCRFailed, m["error_code"])
	}
	if m["engine"] != "local" {
		t.Errorf("expected engine detail, got %v", m["engine"])
	}
	if m["cause"] != "tesseract crashed" {
		t.Errorf("expected cause message, got %v", m["cause"])
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := NewConfigurationError("confidence_threshold", "must be within [0,1]")
	expected := "INVALID_CONFIGURATION: invalid confidence_threshold: must be within [0,1]"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}
