package telemetry_test

import (
	"context"
	"testing"

	"github.com/pokevault/auctioneer/internal/telemetry"
)

func TestNewNopProvider(t *testing.T) {
	p := telemetry.NewNopProvider()

	if p.TracerProvider == nil {
		t.Error("TracerProvider is nil")
	}
	if p.MeterProvider == nil {
		t.Error("MeterProvider is nil")
	}
	if p.LoggerProvider == nil {
		t.Error("LoggerProvider is nil")
	}
	if p.Logger == nil {
		t.Error("Logger is nil")
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error: %v", err)
	}
}

func TestNopProvider_TracerUsable(t *testing.T) {
	p := telemetry.NewNopProvider()
	tracer := p.TracerProvider.Tracer("test")

	_, span := tracer.Start(context.Background(), "op")
	span.End()
}
