// Copyright 2026 Gantry Tools.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gantry-tools/gantry/internal/schema"
)

func newSchemasCmd() *cobra.Command {
	c := &cobra.Command{
		Use:           "schemas",
		Short:         "Access the schemas that validate definitions",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	c.AddCommand(newSchemasListCmd(), newSchemasDumpCmd(), newSchemasExportCmd())
	return c
}

func newSchemasListCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List the schemas used by gantry",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range schema.Names() {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func newSchemasDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "dump NAME",
		Short:         "Print a schema as JSON to stdout",
		Long:          `Prints a schema in JSON format to stdout. The list of valid schema names can be found with "gantry schemas list".`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := schema.Source(schema.Name(args[0]))
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(src)
			return err
		},
	}
}

func newSchemasExportCmd() *cobra.Command {
	output := new(string)
	c := &cobra.Command{
		Use:           "export",
		Short:         "Export the JSON schema files used by gantry",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(*output, 0777); err != nil {
				return fmt.Errorf("export schemas: %w", err)
			}
			for _, name := range schema.Names() {
				src, err := schema.Source(name)
				if err != nil {
					return err
				}
				path := filepath.Join(*output, string(name)+".json")
				if err := os.WriteFile(path, src, 0666); err != nil {
					return fmt.Errorf("export schemas: %w", err)
				}
			}
			return nil
		},
	}
	output = c.Flags().StringP("output", "o", "./schemas", "output folder for the schema files")
	return c
}
