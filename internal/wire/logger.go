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

package wire

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
)

// Log is the package-wide fallback logger used whenever a context carries no
// logr.Logger of its own. It defaults to a no-op sink so that tests and
// ad-hoc callers never crash for not wiring a logger explicitly; cmd/collector
// replaces it at startup with a real sink via SetLogger.
var (
	logMu sync.RWMutex
	log   = logr.Discard()
)

// SetLogger installs the package-wide fallback logger. It is meant to be
// called once, during process startup.
func SetLogger(l logr.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	log = l
}

// FromContext returns the logr.Logger carried by ctx, or the package-wide
// fallback logger if ctx carries none.
func FromContext(ctx context.Context, keysAndValues ...interface{}) logr.Logger {
	if ctx != nil {
		if logger, err := logr.FromContext(ctx); err == nil {
			if len(keysAndValues) == 0 {
				return logger
			}
			return logger.WithValues(keysAndValues...)
		}
	}
	logMu.RLock()
	defer logMu.RUnlock()
	return log.WithValues(keysAndValues...)
}

// IntoContext returns a copy of ctx carrying l, retrievable later with
// FromContext.
func IntoContext(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}
