package app

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/harutofu/shiori/internal/trust"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		DBPath:            filepath.Join(t.TempDir(), "app.db"),
		GenerationBackend: "mock",
		GoogleAPIKey:      "k",
		GoogleCSEID:       "cx",
	}
}

func TestNew_TrustedDomainsOnByDefault(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	defer a.Close()
	if !reflect.DeepEqual(a.Router.BookDomains, trust.DefaultBookDomains) {
		t.Fatalf("book domains = %v, want built-in defaults", a.Router.BookDomains)
	}
}

func TestNew_TrustedDomainsCanBeDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.DisableTrustedDomains = true
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	defer a.Close()
	if a.Router.BookDomains != nil {
		t.Fatalf("disabled toggle must empty the domain list: %v", a.Router.BookDomains)
	}
}
