package pdfrenderer

import "testing"

func TestNewRendererForDefaultsToFitz(t *testing.T) {
	r, err := NewRendererFor("")
	if err != nil {
		t.Fatalf("NewRendererFor: %v", err)
	}
	if _, ok := r.(*FitzRenderer); !ok {
		t.Fatalf("expected a *FitzRenderer for an empty backend, got %T", r)
	}
}

func TestNewRendererForUnknownBackendFallsBackToFitz(t *testing.T) {
	r, err := NewRendererFor(Backend("not-a-real-backend"))
	if err != nil {
		t.Fatalf("NewRendererFor: %v", err)
	}
	if _, ok := r.(*FitzRenderer); !ok {
		t.Fatalf("expected a *FitzRenderer fallback for an unknown backend, got %T", r)
	}
}

func TestNewRendererForExplicitFitz(t *testing.T) {
	r, err := NewRendererFor(BackendFitz)
	if err != nil {
		t.Fatalf("NewRendererFor: %v", err)
	}
	if _, ok := r.(*FitzRenderer); !ok {
		t.Fatalf("expected a *FitzRenderer, got %T", r)
	}
}
