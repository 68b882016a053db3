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

// Command collector is the NetFlow v1/v5/v9/IPFIX collector binary: it
// binds a UDP listener, decodes and reconciles every datagram it receives,
// and appends the result to a gzip NDJSON file, following
// original_source/netflow/collector.py's __main__ CLI but structured as a
// cobra command tree the way feiglein74-netflow-collector/cmd/collector
// lays its entrypoint out.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
