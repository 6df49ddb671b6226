// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scaffold-engine/internal/placeholder"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

var varsCmd = &cobra.Command{
	Use:   "vars <name>",
	Short: "Print the placeholder values a project would be rendered with",
	Long: `Vars derives the placeholder map for a project name and stack, applies
--var and --vars-file overrides, and prints the result as YAML or JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runVars,
}

func runVars(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd, args)
	if err != nil {
		return err
	}
	gen, err := newGenerator()
	if err != nil {
		return err
	}
	vars, err := gen.Vars(req)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	return writeVars(cmd.OutOrStdout(), vars, format)
}

func writeVars(w io.Writer, vars placeholder.Vars, format string) error {
	switch format {
	case "", "yaml":
		// yaml.v3 sorts map keys.
		return encode(w, vars, "yaml")
	case "json":
		return encode(w, vars, "json")
	case "env":
		for _, k := range vars.Keys() {
			fmt.Fprintf(w, "%s=%s\n", k, vars[k])
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use yaml, json or env", format)
	}
}

// encode writes v as indented yaml or json.
func encode(w io.Writer, v any, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}

// overridesFromFlags merges --vars-file then --var, later values winning.
func overridesFromFlags(cmd *cobra.Command) (placeholder.Vars, error) {
	var out placeholder.Vars
	if path, _ := cmd.Flags().GetString("vars-file"); path != "" {
		fromFile, err := readVarsFile(path)
		if err != nil {
			return nil, err
		}
		out = fromFile
	}
	pairs, _ := cmd.Flags().GetStringArray("var")
	fromFlags, err := placeholder.ParseAssignments(pairs)
	if err != nil {
		return nil, err
	}
	return placeholder.Merge(out, fromFlags), nil
}

// readVarsFile reads a flat YAML mapping of placeholder names to values.
func readVarsFile(path string) (placeholder.Vars, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vars file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing vars file %s: %w", path, err)
	}

	vars := make(placeholder.Vars, len(raw))
	for k, v := range raw {
		if !placeholder.ValidName(k) {
			return nil, fmt.Errorf("vars file %s: invalid placeholder name %q", path, k)
		}
		switch val := v.(type) {
		case nil:
			vars[k] = ""
		case map[string]any, []any:
			return nil, fmt.Errorf("vars file %s: value of %s must be a scalar", path, k)
		default:
			vars[k] = fmt.Sprint(val)
		}
	}
	return vars, nil
}

// printFiles writes a path/size/checksum table.
func printFiles(w io.Writer, files []types.GeneratedFile) {
	fmt.Fprintf(w, "%-60s  %8s  %s\n", "Path", "Size", "Checksum")
	fmt.Fprintln(w, strings.Repeat("-", 84))
	for _, f := range files {
		fmt.Fprintf(w, "%-60s  %8d  %s\n", f.Path, f.Size, f.Checksum[:12])
	}
}

func init() {
	varsCmd.Flags().String("backend", "", "backend stack: java, csharp, python")
	varsCmd.Flags().String("frontend", "", "frontend stack: react, vue, angular")
	varsCmd.Flags().String("database", "", "database: postgres")
	varsCmd.Flags().Bool("docker", true, "include Docker files")
	varsCmd.Flags().String("description", "", "project description")
	varsCmd.Flags().StringArray("var", nil, "extra or overriding placeholder value KEY=VALUE (repeatable)")
	varsCmd.Flags().String("vars-file", "", "YAML file of placeholder values")
	varsCmd.Flags().String("format", "yaml", "output format: yaml, json or env")

	rootCmd.AddCommand(varsCmd)
}
