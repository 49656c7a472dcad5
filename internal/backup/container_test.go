package backup

import (
	"errors"
	"fmt"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestContainerRoundTrip(t *testing.T) {
	c := NewContainer(ProducerInfo{AppVersion: "1.2.0", BuildNumber: "42", Platform: "server"}, false)
	c.Items = []ItemRecord{{
		ID:   strPtr("7c9e6679-7425-40de-944b-e07fc1f90ae7"),
		Name: strPtr("Gold Ring"),
		SKU:  strPtr("RING-0001"),
	}}
	c.Settings = map[string]string{"currency": "USD"}

	data, err := c.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Version != CurrentVersion {
		t.Errorf("version = %d, want %d", got.Version, CurrentVersion)
	}
	if got.Metadata.AppVersion != "1.2.0" || got.Metadata.Platform != "server" {
		t.Errorf("metadata not preserved: %+v", got.Metadata)
	}
	if len(got.Items) != 1 || *got.Items[0].SKU != "RING-0001" {
		t.Errorf("items not preserved: %+v", got.Items)
	}
	if got.Settings["currency"] != "USD" {
		t.Errorf("settings not preserved: %+v", got.Settings)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json at all")); !errors.Is(err, ErrCorruptedBackup) {
		t.Fatalf("got %v, want ErrCorruptedBackup", err)
	}
}

func TestParseRejectsNonContainerJSON(t *testing.T) {
	if _, err := Parse([]byte(`[1,2,3]`)); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("array: got %v, want ErrInvalidData", err)
	}
	if _, err := Parse([]byte(`{"items":[]}`)); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("missing version: got %v, want ErrInvalidData", err)
	}
}

func TestParseVersionGate(t *testing.T) {
	newer := fmt.Sprintf(`{"version":%d}`, CurrentVersion+1)
	if _, err := Parse([]byte(newer)); !errors.Is(err, ErrIncompatibleVersion) {
		t.Fatalf("got %v, want ErrIncompatibleVersion", err)
	}

	older := []byte(`{"version":1,"items":[]}`)
	if _, err := Parse(older); err != nil {
		t.Fatalf("version 1 should still parse: %v", err)
	}
}

func TestParseSynthesizesMissingMetadata(t *testing.T) {
	c, err := Parse([]byte(`{"version":1}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Metadata.AppVersion != "unknown" || c.Metadata.Platform != "unknown" {
		t.Errorf("metadata = %+v, want synthesized unknowns", c.Metadata)
	}
}

func TestLooksEncrypted(t *testing.T) {
	if LooksEncrypted([]byte(`{"version":2}`)) {
		t.Error("plain JSON flagged as encrypted")
	}

	blob, err := Encrypt([]byte(`{"version":2}`), "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !LooksEncrypted(blob) {
		t.Error("encrypted blob not flagged")
	}
}
