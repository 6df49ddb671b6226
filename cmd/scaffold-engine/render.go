// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scaffold-engine/internal/placeholder"
	"github.com/pdiddy/scaffold-engine/internal/scaffold"
	"github.com/pdiddy/scaffold-engine/internal/variables"
)

var renderCmd = &cobra.Command{
	Use:   "render <template-dir>",
	Short: "Render every file of a directory with a placeholder map",
	Long: `Render treats every file under <template-dir> as a template: file contents
and relative paths are rendered with the values from --var, --vars-file and,
when --name is given, the values derived from the project name and the
configured default stack.

All files are checked before anything is written. With --check, render only
reports the placeholders the directory uses and which of them lack a value.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	src := args[0]
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}
	fsys := os.DirFS(src)

	vars, err := renderVars(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if check, _ := cmd.Flags().GetBool("check"); check {
		tmpls, err := scaffold.Templates(fsys)
		if err != nil {
			return err
		}
		var used []string
		seen := map[string]bool{}
		for _, t := range tmpls {
			for _, k := range placeholder.Tokens(t.Content) {
				if !seen[k] {
					seen[k] = true
					used = append(used, k)
				}
			}
		}
		fmt.Fprintf(out, "%d templates, placeholders: %s\n", len(tmpls)/2, strings.Join(used, ", "))
		return placeholder.Check(tmpls, vars)
	}

	dest, _ := cmd.Flags().GetString("out")
	if dest == "" {
		return errors.New("--out is required")
	}
	files, err := scaffold.RenderTree(fsys, vars)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	if err := scaffold.Write(files, dest, scaffold.WriteOptions{Force: force}); err != nil {
		return err
	}
	fmt.Fprintf(out, "Rendered %d files into %s (digest %s)\n", len(files), dest, scaffold.Digest(files))
	return nil
}

func renderVars(cmd *cobra.Command) (placeholder.Vars, error) {
	overrides, err := overridesFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		return overrides, nil
	}
	base, err := variables.Derive(name, cfg.Generator.Defaults)
	if err != nil {
		return nil, err
	}
	return placeholder.Merge(base, overrides), nil
}

func init() {
	renderCmd.Flags().StringP("out", "o", "", "output directory")
	renderCmd.Flags().StringArray("var", nil, "placeholder value KEY=VALUE (repeatable)")
	renderCmd.Flags().String("vars-file", "", "YAML file of placeholder values")
	renderCmd.Flags().String("name", "", "derive project variables from this name")
	renderCmd.Flags().Bool("force", false, "replace a non-empty output directory")
	renderCmd.Flags().Bool("check", false, "report placeholders without rendering")

	rootCmd.AddCommand(renderCmd)
}
