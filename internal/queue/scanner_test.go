/**
 * Scan Task Payload Tests
 *
 * Wire-format decoding of scan tasks: base64 image data and the optional
 * fields the enqueuing service may omit.
 */

package queue

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestScanTaskPayloadUnmarshal(t *testing.T) {
	raw := `{
		"submissionId": "6f1c9f0e-8a9b-4e3d-9c4f-2b7d8e1a5c30",
		"matchId": "match-42",
		"engine": "cloud",
		"imageData": "` + base64.StdEncoding.EncodeToString([]byte("fake-png-bytes")) + `"
	}`

	var payload ScanTaskPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if payload.SubmissionID != "6f1c9f0e-8a9b-4e3d-9c4f-2b7d8e1a5c30" {
		t.Errorf("unexpected submission ID %q", payload.SubmissionID)
	}
	if payload.MatchID != "match-42" || payload.Engine != "cloud" {
		t.Errorf("unexpected fields: %+v", payload)
	}

	image, err := decodeImageField(payload.ImageData)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if string(image) != "fake-png-bytes" {
		t.Errorf("expected decoded image bytes, got %q", image)
	}
}

func TestDecodeImageField(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr bool
		want    string
	}{
		{"empty field", "", false, ""},
		{"valid base64", base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'}), false, "\x89PNG"},
		{"invalid base64", "not-base64!!", true, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeImageField(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Error("expected decode error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
