package services_test

import (
	"context"
	"testing"

	"gavel/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithIdentifier(ctx, "HAPPR-011626.mp4")
	ctx = services.WithStage(ctx, "transcribing")
	ctx = services.WithSource(ctx, "house")
	ctx = services.WithRunID(ctx, "run-123")

	if id, ok := services.IdentifierFromContext(ctx); !ok || id != "HAPPR-011626.mp4" {
		t.Fatalf("unexpected identifier: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "transcribing" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if source, ok := services.SourceFromContext(ctx); !ok || source != "house" {
		t.Fatalf("unexpected source: %v %v", source, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := services.WithStage(context.Background(), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	ctx = services.WithIdentifier(context.Background(), "")
	if _, ok := services.IdentifierFromContext(ctx); ok {
		t.Fatal("expected no identifier value")
	}
}
