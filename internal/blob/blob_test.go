package blob

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/voyagehq/tripvault/pkg/types"
)

func TestPutReturnsStableRef(t *testing.T) {
	s := New(t.TempDir())

	payload := []byte("%PDF-1.4 fake receipt")
	ref, err := s.Put("receipt.pdf", "application/pdf", payload)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if ref.Name != "receipt.pdf" || ref.Type != "application/pdf" {
		t.Errorf("metadata not kept: %+v", ref)
	}
	if ref.Size != int64(len(payload)) {
		t.Errorf("Size = %d, want %d", ref.Size, len(payload))
	}

	parsed, err := uuid.Parse(ref.ID)
	if err != nil {
		t.Fatalf("ID is not a UUID: %v", err)
	}
	if parsed.Version() != 7 {
		t.Errorf("ID version = %d, want 7", parsed.Version())
	}

	got, err := s.Open(ref.ID)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("payload did not round-trip")
	}

	meta, err := s.Get(ref.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if meta != ref {
		t.Errorf("Get = %+v, want %+v", meta, ref)
	}
}

func TestPutDataURL(t *testing.T) {
	s := New(t.TempDir())

	payload := []byte("fake png bytes")
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	ref, err := s.PutDataURL("photo.png", dataURL)
	if err != nil {
		t.Fatalf("PutDataURL failed: %v", err)
	}
	if ref.Type != "image/png" {
		t.Errorf("Type = %q, want image/png", ref.Type)
	}
	if ref.Size != int64(len(payload)) {
		t.Errorf("Size = %d, want %d", ref.Size, len(payload))
	}

	got, err := s.Open(ref.ID)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("decoded payload did not round-trip")
	}
}

func TestPutDataURLMalformed(t *testing.T) {
	s := New(t.TempDir())

	for _, dataURL := range []string{
		"not a data url",
		"data:image/png",                  // no payload separator
		"data:image/png,rawpayload",       // not base64-tagged
		"data:image/png;base64,???broken", // invalid base64
	} {
		if _, err := s.PutDataURL("x", dataURL); !errors.Is(err, ErrInvalidDataURL) {
			t.Errorf("PutDataURL(%q) = %v, want ErrInvalidDataURL", dataURL, err)
		}
	}
}

func TestGetUnknownID(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Get("missing"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}
	if _, err := s.Open("missing"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Open = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := New(t.TempDir())
	ref, err := s.Put("x.bin", "application/octet-stream", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Delete(ref.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Open(ref.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Open after Delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ref.ID); err != nil {
		t.Errorf("double Delete errored: %v", err)
	}
}
