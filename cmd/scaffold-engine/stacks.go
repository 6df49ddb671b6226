// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scaffold-engine/internal/placeholder"
	"github.com/pdiddy/scaffold-engine/internal/templates"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

var stacksCmd = &cobra.Command{
	Use:   "stacks",
	Short: "List the supported backend and frontend stacks",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := openCatalog()
		if err != nil {
			return err
		}
		support := catalog.Stacks()

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(support)
		}

		fmt.Fprintln(out, "Backends:")
		for _, b := range support.Backends {
			fmt.Fprintf(out, "  %-8s %s\n", b, b.Label())
		}
		fmt.Fprintln(out, "Frontends:")
		for _, f := range support.Frontends {
			fmt.Fprintf(out, "  %-8s %s\n", f, f.Label())
		}
		fmt.Fprintln(out, "Databases:")
		for _, d := range types.Databases {
			fmt.Fprintf(out, "  %s\n", d)
		}
		fmt.Fprintf(out, "\n%d templates in catalog\n", support.Templates)
		return nil
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List catalog templates and the placeholders each one uses",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := openCatalog()
		if err != nil {
			return err
		}
		return listTemplates(cmd, catalog)
	},
}

func listTemplates(cmd *cobra.Command, catalog *templates.Catalog) error {
	out := cmd.OutOrStdout()
	if unused, _ := cmd.Flags().GetBool("unused"); unused {
		return listUnused(cmd, catalog)
	}
	for _, e := range catalog.Entries() {
		body, err := catalog.Read(e.Source)
		if err != nil {
			return err
		}
		keys := placeholder.Tokens(e.Target + "\n" + body)
		fmt.Fprintf(out, "%-50s <- %-40s %s\n", e.Target, e.Source, strings.Join(keys, " "))
	}
	return nil
}

// listUnused prints catalog files that no manifest entry renders.
func listUnused(cmd *cobra.Command, catalog *templates.Catalog) error {
	sources, err := catalog.Sources()
	if err != nil {
		return err
	}
	used := make(map[string]bool)
	for _, e := range catalog.Entries() {
		used[e.Source] = true
	}
	for _, s := range sources {
		if !used[s] {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
	}
	return nil
}

func init() {
	templatesCmd.Flags().Bool("unused", false, "list catalog files no manifest entry uses")
	stacksCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(stacksCmd)
	rootCmd.AddCommand(templatesCmd)
}
