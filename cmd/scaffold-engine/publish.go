// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/scaffold-engine/internal/gitlab"
	"github.com/pdiddy/scaffold-engine/internal/registry"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

var publishCmd = &cobra.Command{
	Use:   "publish <id|name>",
	Short: "Create a GitLab project and commit the generated files",
	Long: `Publish creates a GitLab project for a registered project and pushes every
recorded file in a single commit on the default branch. The registry keeps
the GitLab id and URLs. With --pipeline it also starts a pipeline.

If the project was created on GitLab but the commit failed (status FAILED,
no pipeline yet), running publish again retries only the commit.

Configure gitlab.url and gitlab.token in scaffold-engine.yaml, the
SCAFFOLD_ENGINE_GITLAB_URL / SCAFFOLD_ENGINE_GITLAB_TOKEN environment
variables, or .secrets/gitlab-url and .secrets/gitlab-token.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := gitlabClient()
	if err != nil {
		return err
	}
	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := store.Resolve(ctx, args[0])
	if err != nil {
		return err
	}
	message, _ := cmd.Flags().GetString("message")
	if err := publish(ctx, client, store, p, message); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Published %s: %s\n", p.Name, p.GitLabURL)
	fmt.Fprintf(out, "Clone: %s\n", p.GitCloneURL)

	if run, _ := cmd.Flags().GetBool("pipeline"); run {
		pl, err := triggerPipeline(ctx, client, store, p, "")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Pipeline %d %s: %s\n", pl.ID, pl.Status, pl.WebURL)
	}
	return nil
}

// commitPending reports whether p has a GitLab project whose initial
// commit failed: publish marks p FAILED in that case, and a FAILED project
// with no pipeline cannot have failed in CI.
func commitPending(p *types.Project) bool {
	return p.GitLabProjectID != 0 && p.Status == types.StatusFailed && p.LastPipelineID == 0
}

// publish creates the GitLab project for p and commits its files. A failed
// commit marks p FAILED; the GitLab project stays and a later publish only
// retries the commit.
func publish(ctx context.Context, client *gitlab.Client, store *registry.Store, p *types.Project, message string) error {
	retry := commitPending(p)
	if p.GitLabProjectID != 0 && !retry {
		return fmt.Errorf("%s is already published at %s", p.Name, p.GitLabURL)
	}

	files, err := store.Files(ctx, p.ID)
	if err != nil {
		return err
	}

	if retry {
		log.WithFields(log.Fields{"project": p.Name, "gitlab_id": p.GitLabProjectID}).Info("Retrying commit to existing GitLab project")
	} else {
		gp, err := client.CreateProject(ctx, p.Name, p.Description)
		if err != nil {
			return fmt.Errorf("creating GitLab project: %w", err)
		}
		if err := store.SetGitLab(ctx, p.ID, gp.ID, gp.WebURL, gp.HTTPURLToRepo); err != nil {
			return err
		}
		p.GitLabProjectID, p.GitLabURL, p.GitCloneURL = gp.ID, gp.WebURL, gp.HTTPURLToRepo
		p.Status = types.StatusActive
	}

	if message == "" {
		message = fmt.Sprintf("Initial commit: %s scaffold", p.Stack)
	}
	commit, err := client.CommitFiles(ctx, p.GitLabProjectID, message, files)
	if err != nil {
		if serr := store.UpdateStatus(ctx, p.ID, types.StatusFailed); serr != nil {
			log.WithError(serr).Warn("Could not record failed publish")
		}
		p.Status = types.StatusFailed
		return fmt.Errorf("committing files: %w", err)
	}
	if retry {
		if err := store.UpdateStatus(ctx, p.ID, types.StatusActive); err != nil {
			return err
		}
		p.Status = types.StatusActive
	}
	log.WithFields(log.Fields{"project": p.Name, "commit": commit.ShortID}).Info("Published project")
	return nil
}

func init() {
	publishCmd.Flags().StringP("message", "m", "", "commit message")
	publishCmd.Flags().Bool("pipeline", false, "trigger a pipeline after the commit")

	rootCmd.AddCommand(publishCmd)
}
