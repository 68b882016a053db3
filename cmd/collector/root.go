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

package main

import (
	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags; "dev" otherwise.
var Version = "dev"

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "collector",
		Short: "A NetFlow v1/v5/v9 and IPFIX collector",
		Long: "collector listens for NetFlow v1/v5/v9 and IPFIX export packets over UDP, " +
			"decodes and reconciles them against their templates, and persists the result " +
			"as gzip-compressed newline-delimited JSON.",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to an optional YAML config file")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
