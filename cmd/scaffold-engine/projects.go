// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scaffold-engine/internal/registry"
	"github.com/pdiddy/scaffold-engine/internal/scaffold"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage the registry of generated projects",
	Long: `Projects manages the local SQLite registry that records generated projects,
their files, and their GitLab and pipeline state. Projects are addressed by
id or by name.`,
}

// --- list subcommand ---

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	RunE:  runProjectsList,
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := listOptsFromFlags(cmd)
	if err != nil {
		return err
	}

	if format, _ := cmd.Flags().GetString("format"); format != "table" {
		return store.Export(context.Background(), cmd.OutOrStdout(), format, opts)
	}

	projects, err := store.List(context.Background(), opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects registered.")
		return nil
	}

	fmt.Fprintf(out, "%-36s  %-24s  %-28s  %-9s  %s\n", "ID", "Name", "Stack", "Status", "Created")
	fmt.Fprintln(out, strings.Repeat("-", 120))
	for _, p := range projects {
		name := p.Name
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		fmt.Fprintf(out, "%-36s  %-24s  %-28s  %-9s  %s\n",
			p.ID, name, p.Stack, p.Status, p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(out, "\n%d projects\n", len(projects))
	return nil
}

func listOptsFromFlags(cmd *cobra.Command) (registry.ListOptions, error) {
	status, _ := cmd.Flags().GetString("status")
	backend, _ := cmd.Flags().GetString("backend")
	opts := registry.ListOptions{
		Status:  types.ProjectStatus(strings.ToUpper(status)),
		Backend: types.BackendTech(strings.ToLower(backend)),
	}
	if opts.Status != "" && !opts.Status.Valid() {
		return opts, fmt.Errorf("unknown status %q", status)
	}
	return opts, nil
}

// --- show subcommand ---

var projectsShowCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show a project and its files as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openRegistry()
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := store.Resolve(context.Background(), args[0])
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	},
}

// --- delete subcommand ---

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <id|name>",
	Short: "Remove a project from the registry",
	Long: `Delete removes a project and its recorded files from the registry. With
--gitlab it also deletes the GitLab project created by publish. Files written
to disk are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectsDelete,
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := store.Resolve(ctx, args[0])
	if err != nil {
		return err
	}

	if withGitLab, _ := cmd.Flags().GetBool("gitlab"); withGitLab && p.GitLabProjectID != 0 {
		client, err := gitlabClient()
		if err != nil {
			return err
		}
		if err := client.DeleteProject(ctx, p.GitLabProjectID); err != nil {
			log.WithError(err).WithField("gitlab_id", p.GitLabProjectID).Warn("Could not delete GitLab project")
		}
	}

	if err := store.Delete(ctx, p.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", p.Name, p.ID)
	return nil
}

// --- status subcommand ---

var projectsStatusCmd = &cobra.Command{
	Use:   "status <id|name> <status>",
	Short: "Set a project's status",
	Long: fmt.Sprintf(`Status overrides the recorded status of a project. Valid values: %s.`,
		strings.Join([]string{
			string(types.StatusCreated), string(types.StatusActive), string(types.StatusBuilding),
			string(types.StatusDeploying), string(types.StatusDeployed), string(types.StatusFailed),
		}, ", ")),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := openRegistry()
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := store.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		status := types.ProjectStatus(strings.ToUpper(args[1]))
		if err := store.UpdateStatus(ctx, p.ID, status); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", p.Name, p.Status, status)
		return nil
	},
}

// --- files subcommand ---

var projectsFilesCmd = &cobra.Command{
	Use:   "files <id|name>",
	Short: "List or restore the files recorded for a project",
	Long: `Files lists the files recorded for a project. With --out it writes them
again, byte for byte, into a new directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := openRegistry()
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := store.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		files, err := store.Files(ctx, p.ID)
		if err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("out")
		if dir == "" {
			printFiles(cmd.OutOrStdout(), files)
			return nil
		}
		for _, f := range files {
			if scaffold.Checksum(f.Content) != f.Checksum {
				return fmt.Errorf("%s: stored content does not match its checksum", f.Path)
			}
		}
		force, _ := cmd.Flags().GetBool("force")
		if err := scaffold.Write(files, dir, scaffold.WriteOptions{Force: force}); err != nil {
			return err
		}
		if err := store.SetOutputDir(ctx, p.ID, dir); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d files of %s into %s\n", len(files), p.Name, dir)
		return nil
	},
}

// --- stats subcommand ---

var projectsStatsCmd = &cobra.Command{
	Use:   "stats [id|name]",
	Short: "Summarise the registry, or the pipelines of one project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := openRegistry()
		if err != nil {
			return err
		}
		defer store.Close()

		format, _ := cmd.Flags().GetString("format")
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			p, err := store.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			st, err := store.ProjectStats(ctx, p.ID)
			if err != nil {
				return err
			}
			if format != "table" {
				return encode(out, st, format)
			}
			fmt.Fprintf(out, "Project:        %s (%s)\n", p.Name, p.Status)
			fmt.Fprintf(out, "Pipelines:      %d\n", st.Pipelines)
			fmt.Fprintf(out, "Succeeded:      %d\n", st.Succeeded)
			fmt.Fprintf(out, "Failed:         %d\n", st.Failed)
			fmt.Fprintf(out, "Last activity:  %s\n", st.LastActivity.Local().Format("2006-01-02 15:04"))
			return nil
		}

		st, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		if format != "table" {
			return encode(out, st, format)
		}
		printStats(out, st)
		return nil
	},
}

func printStats(w io.Writer, st *registry.Stats) {
	fmt.Fprintf(w, "Projects:   %d\n", st.Total)
	fmt.Fprintf(w, "Deployed:   %d\n", st.Deployed())
	fmt.Fprintf(w, "Pipelines:  %d\n", st.Pipelines)

	fmt.Fprintln(w, "\nBy status:")
	statuses := make([]string, 0, len(st.ByStatus))
	for k := range st.ByStatus {
		statuses = append(statuses, string(k))
	}
	sort.Strings(statuses)
	for _, k := range statuses {
		fmt.Fprintf(w, "  %-10s %d\n", k, st.ByStatus[types.ProjectStatus(k)])
	}

	fmt.Fprintln(w, "\nBy backend:")
	backends := make([]string, 0, len(st.ByBackend))
	for k := range st.ByBackend {
		backends = append(backends, string(k))
	}
	sort.Strings(backends)
	for _, k := range backends {
		fmt.Fprintf(w, "  %-10s %d\n", k, st.ByBackend[types.BackendTech(k)])
	}
}

func init() {
	projectsListCmd.Flags().String("status", "", "filter by status")
	projectsListCmd.Flags().String("backend", "", "filter by backend")
	projectsListCmd.Flags().String("format", "table", "output format: table, yaml or json")

	projectsDeleteCmd.Flags().Bool("gitlab", false, "also delete the GitLab project")

	projectsFilesCmd.Flags().StringP("out", "o", "", "restore the files into this directory")
	projectsFilesCmd.Flags().Bool("force", false, "replace a non-empty output directory")

	projectsStatsCmd.Flags().String("format", "table", "output format: table, yaml or json")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsShowCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)
	projectsCmd.AddCommand(projectsStatusCmd)
	projectsCmd.AddCommand(projectsFilesCmd)
	projectsCmd.AddCommand(projectsStatsCmd)

	rootCmd.AddCommand(projectsCmd)
}
