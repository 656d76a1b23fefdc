package threshold

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/kapu/channelwatch-go/internal/domain"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.json")
	store := NewFileStore(path)

	registry := NewRegistry(zap.NewNop())
	registry.Set(domain.EntityChannel, "subscribers", domain.ThresholdConfig{
		Warning:              pctLevel(5),
		Critical:             pctLevel(15),
		ComparisonWindowDays: 14,
		Direction:            domain.DirectionBoth,
	})

	if err := registry.SaveTo(store); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}

	loaded := NewRegistry(zap.NewNop())
	if err := loaded.LoadFrom(store); err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}

	cfg, ok := loaded.Get(domain.EntityChannel, "subscribers")
	if !ok {
		t.Fatalf("expected the saved config to round-trip")
	}
	if cfg.Warning.Value != 5 || cfg.Critical.Value != 15 || cfg.ComparisonWindowDays != 14 {
		t.Fatalf("unexpected round-tripped config %+v", cfg)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))

	if _, err := store.Load(); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestFileStoreRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if _, err := NewFileStore(path).Load(); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestFileStoreLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.json")
	store := NewFileStore(path)

	if err := store.Save(NewRegistry(zap.NewNop()).GetAll()); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected the temp file to be renamed away")
	}
}
