/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging builds the collector's one logr.Logger and installs it
// as the package-wide fallback in every component that exposes a
// SetLogger, following internal/wire/logger.go's
// "package-wide fallback + context override" idiom uniformly across the
// module rather than just within internal/wire.
package logging

import (
	"context"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"github.com/flowforge/netflow-collector/internal/ingest"
	"github.com/flowforge/netflow-collector/internal/wire"
)

// New builds a logr.Logger backed by the standard library's log package,
// verbose enough to emit V(1)/V(2) debug logging when debug is true.
func New(debug bool) logr.Logger {
	stdr.SetVerbosity(0)
	if debug {
		stdr.SetVerbosity(2)
	}
	return stdr.New(log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds))
}

// Install sets l as the package-wide fallback logger everywhere a
// component looks one up via its own FromContext, and returns a context
// carrying l for callers that want every downstream call to use it
// explicitly rather than relying on the package-wide fallback.
func Install(ctx context.Context, l logr.Logger) context.Context {
	wire.SetLogger(l)
	ingest.SetLogger(l)
	return wire.IntoContext(ctx, l)
}
