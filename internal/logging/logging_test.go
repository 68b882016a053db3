package logging

import (
	"context"
	"testing"

	"github.com/flowforge/netflow-collector/internal/wire"
)

func TestInstall_CarriesLoggerThroughContext(t *testing.T) {
	l := New(true)
	ctx := Install(context.Background(), l)

	got := wire.FromContext(ctx)
	if got.GetSink() != l.GetSink() {
		t.Fatalf("expected wire.FromContext to return the installed logger's sink")
	}
}

func TestNew_DebugRaisesVerbosity(t *testing.T) {
	quiet := New(false)
	if quiet.V(1).Enabled() {
		t.Fatalf("expected V(1) logging to be disabled without debug")
	}
	verbose := New(true)
	if !verbose.V(2).Enabled() {
		t.Fatalf("expected V(2) logging to be enabled with debug")
	}
	if quiet.GetSink() == nil || verbose.GetSink() == nil {
		t.Fatalf("expected both loggers to have a non-nil sink")
	}
}
