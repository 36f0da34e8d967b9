package provider

import (
	"testing"

	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/domain/entity"
)

func TestRegistryResolve(t *testing.T) {
	cfg := config.ProviderConfig{BaseURL: "http://localhost", APIKey: "k"}
	registry := NewRegistry(
		NewDeepImageClient(cfg),
		NewClippingMagicClient(cfg),
		NewVectorizerClient(cfg),
		NewOpenAIClient(cfg),
	)

	tests := []struct {
		op   entity.OperationKind
		want entity.ProviderName
	}{
		{entity.OperationUpscale, entity.ProviderDeepImage},
		{entity.OperationBackgroundRemoval, entity.ProviderClippingMagic},
		{entity.OperationVectorization, entity.ProviderVectorizer},
		{entity.OperationGeneration, entity.ProviderOpenAI},
	}

	for _, tt := range tests {
		p, err := registry.Resolve(tt.op)
		if err != nil {
			t.Errorf("Resolve(%q) error = %v", tt.op, err)
			continue
		}
		if p.Name() != tt.want {
			t.Errorf("Resolve(%q).Name() = %q, want %q", tt.op, p.Name(), tt.want)
		}
	}

	if _, err := registry.Resolve("sharpen"); err == nil {
		t.Error("Resolve() expected error for unregistered operation")
	}
}
