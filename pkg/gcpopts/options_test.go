package gcpopts

import (
	"testing"

	"github.com/plasa/shopper-settlement/pkg/config"
)

func TestFromConfigPrioritizesJSON(t *testing.T) {
	opts := FromConfig(config.GCPConfig{
		CredentialsJSON:        `{"dummy": "value"}`,
		ApplicationCredentials: "/tmp/creds",
	})
	if len(opts) != 1 {
		t.Fatalf("expected 1 option, got %d", len(opts))
	}
}

func TestFromConfigWithFile(t *testing.T) {
	if opts := FromConfig(config.GCPConfig{ApplicationCredentials: "/tmp/creds"}); len(opts) != 1 {
		t.Fatalf("expected 1 option when using credentials file, got %d", len(opts))
	}
}

func TestFromConfigEmpty(t *testing.T) {
	if opts := FromConfig(config.GCPConfig{CredentialsJSON: "  "}); len(opts) != 0 {
		t.Fatalf("expected 0 options when no credentials provided, got %d", len(opts))
	}
}
