// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scaffold-engine/internal/gitlab"
	"github.com/pdiddy/scaffold-engine/internal/registry"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run and track GitLab pipelines of published projects",
}

var pipelineTriggerCmd = &cobra.Command{
	Use:   "trigger <id|name>",
	Short: "Start a pipeline for a published project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		client, store, p, err := publishedProject(ctx, args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		ref, _ := cmd.Flags().GetString("ref")
		pl, err := triggerPipeline(ctx, client, store, p, ref)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pipeline %d %s: %s\n", pl.ID, pl.Status, pl.WebURL)
		return nil
	},
}

var pipelineStatusCmd = &cobra.Command{
	Use:   "status <id|name>",
	Short: "Fetch the latest pipeline status and update the registry",
	Long: `Status fetches the last pipeline started for a project and records the
project status it implies: BUILDING while it runs, DEPLOYED on success,
FAILED on failure or cancellation. With --watch it polls until the pipeline
finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runPipelineStatus,
}

func runPipelineStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, store, p, err := publishedProject(ctx, args[0])
	if err != nil {
		return err
	}
	defer store.Close()
	if p.LastPipelineID == 0 {
		return fmt.Errorf("%s has no pipeline yet; run 'pipeline trigger' first", p.Name)
	}

	watch, _ := cmd.Flags().GetBool("watch")
	interval, _ := cmd.Flags().GetDuration("interval")
	out := cmd.OutOrStdout()

	for {
		pl, err := client.Pipeline(ctx, p.GitLabProjectID, p.LastPipelineID)
		if err != nil {
			return err
		}
		status := gitlab.ProjectStatus(pl.Status)
		if err := store.SetPipeline(ctx, p.ID, pl.Run(), status); err != nil {
			return err
		}
		fmt.Fprintf(out, "Pipeline %d: %s (project %s)\n", pl.ID, pl.Status, status)

		if !watch || status != types.StatusBuilding {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

var pipelineHistoryCmd = &cobra.Command{
	Use:   "history <id|name>",
	Short: "List the recorded pipelines of a project, newest first",
	Args:  cobra.ExactArgs(1),
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
		runs, err := store.Pipelines(ctx, p.ID)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		return printPipelines(cmd.OutOrStdout(), runs, format)
	},
}

func printPipelines(w io.Writer, runs []types.PipelineRun, format string) error {
	switch format {
	case "json", "yaml":
		if runs == nil {
			runs = []types.PipelineRun{}
		}
		return encode(w, runs, format)
	case "table", "":
	default:
		return fmt.Errorf("unknown format %q (want table, yaml or json)", format)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No pipelines recorded.")
		return nil
	}
	fmt.Fprintf(w, "%-10s  %-16s  %-10s  %-16s  %s\n", "Pipeline", "Ref", "Status", "Started", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range runs {
		fmt.Fprintf(w, "%-10d  %-16s  %-10s  %-16s  %s\n",
			r.ID, r.Ref, r.Status, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.WebURL)
	}
	return nil
}

func publishedProject(ctx context.Context, ref string) (*gitlab.Client, *registry.Store, *types.Project, error) {
	client, err := gitlabClient()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := openRegistry()
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := store.Resolve(ctx, ref)
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	if p.GitLabProjectID == 0 {
		store.Close()
		return nil, nil, nil, fmt.Errorf("%s is not published; run 'publish %s' first", p.Name, p.Name)
	}
	return client, store, p, nil
}

// triggerPipeline starts a pipeline for p and records it.
func triggerPipeline(ctx context.Context, client *gitlab.Client, store *registry.Store, p *types.Project, ref string) (*gitlab.Pipeline, error) {
	pl, err := client.TriggerPipeline(ctx, p.GitLabProjectID, ref)
	if err != nil {
		return nil, fmt.Errorf("triggering pipeline: %w", err)
	}
	if err := store.SetPipeline(ctx, p.ID, pl.Run(), gitlab.ProjectStatus(pl.Status)); err != nil {
		return nil, err
	}
	return pl, nil
}

func init() {
	pipelineTriggerCmd.Flags().String("ref", "", "branch or tag (default: gitlab.default_branch)")
	pipelineStatusCmd.Flags().Bool("watch", false, "poll until the pipeline finishes")
	pipelineStatusCmd.Flags().Duration("interval", 10*time.Second, "poll interval with --watch")

	pipelineCmd.AddCommand(pipelineTriggerCmd)
	pipelineHistoryCmd.Flags().String("format", "table", "output format: table, yaml or json")

	pipelineCmd.AddCommand(pipelineStatusCmd)
	pipelineCmd.AddCommand(pipelineHistoryCmd)

	rootCmd.AddCommand(pipelineCmd)
}
