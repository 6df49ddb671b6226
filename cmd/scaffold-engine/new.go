// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/scaffold-engine/internal/container"
	"github.com/pdiddy/scaffold-engine/internal/scaffold"
	"github.com/pdiddy/scaffold-engine/internal/validate"
	"github.com/pdiddy/scaffold-engine/internal/variables"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Generate a project from the template catalog",
	Long: `New derives the placeholder values for a project from its name and stack,
renders every catalog template that applies to the stack, and writes the
result to --out (default: <generator.output_dir>/<name>).

Rendering is all or nothing: if any template references a placeholder with
no value, nothing is written and the missing names are reported together
with the templates that need them. Use --var KEY=VALUE or --vars-file to
supply extra values or override derived ones.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNew,
}

func runNew(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := requestFromFlags(cmd, args)
	if err != nil {
		return err
	}
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		if err := promptRequest(cmd, &req); err != nil {
			return err
		}
	}
	if req.Name == "" {
		return fmt.Errorf("project name is required (pass it as an argument or use --interactive)")
	}

	gen, err := newGenerator()
	if err != nil {
		return err
	}
	res, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}

	if check, _ := cmd.Flags().GetBool("validate"); check {
		if err := validateResult(ctx, cmd, res); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		printFiles(out, res.Files)
		fmt.Fprintf(out, "\n%d files, digest %s (dry run, nothing written)\n", len(res.Files), res.Digest)
		return nil
	}

	dir, _ := cmd.Flags().GetString("out")
	if dir == "" {
		dir = filepath.Join(cfg.Generator.OutputDir, req.Name)
	}
	force, _ := cmd.Flags().GetBool("force")
	opts := scaffold.WriteOptions{Force: force}

	if register, _ := cmd.Flags().GetBool("register"); !register {
		if err := scaffold.Write(res.Files, dir, opts); err != nil {
			return err
		}
		fmt.Fprintf(out, "Generated %s (%s): %d files in %s\n", req.Name, res.Stack, len(res.Files), dir)
		return nil
	}

	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := writeRegistered(ctx, store, req, res, dir, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Generated %s (%s): %d files in %s\n", req.Name, res.Stack, len(res.Files), dir)
	fmt.Fprintf(out, "Registered as %s\n", p.ID)
	return nil
}

// projectRecorder is the part of the registry that new --register uses.
type projectRecorder interface {
	Create(ctx context.Context, p *types.Project) error
	Delete(ctx context.Context, id string) error
}

// writeRegistered records the project before writing its files so that a
// name already in the registry leaves nothing on disk. If the write fails,
// the record is removed again.
func writeRegistered(ctx context.Context, store projectRecorder, req scaffold.Request, res *scaffold.Result, dir string, opts scaffold.WriteOptions) (*types.Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	p := &types.Project{
		Name:        req.Name,
		Description: req.Description,
		Stack:       res.Stack,
		Digest:      res.Digest,
		OutputDir:   abs,
		Files:       res.Files,
	}
	if err := store.Create(ctx, p); err != nil {
		return nil, err
	}

	if err := scaffold.Write(res.Files, dir, opts); err != nil {
		if derr := store.Delete(ctx, p.ID); derr != nil {
			log.WithError(derr).WithField("project", p.ID).Warn("Could not remove registry record after failed write")
		}
		return nil, err
	}
	return p, nil
}

// requestFromFlags builds a request from arguments, flags and the
// configured stack defaults.
func requestFromFlags(cmd *cobra.Command, args []string) (scaffold.Request, error) {
	var req scaffold.Request
	if len(args) > 0 {
		req.Name = args[0]
	}
	req.Description, _ = cmd.Flags().GetString("description")

	d := cfg.Generator.Defaults
	backend := flagOr(cmd, "backend", string(d.Backend))
	frontend := flagOr(cmd, "frontend", string(d.Frontend))
	database := flagOr(cmd, "database", string(d.Database))
	docker := d.UseDocker
	if cmd.Flags().Changed("docker") {
		docker, _ = cmd.Flags().GetBool("docker")
	}

	stack, err := variables.ParseStack(backend, frontend, database, docker)
	if err != nil {
		return req, err
	}
	req.Stack = stack

	req.Overrides, err = overridesFromFlags(cmd)
	return req, err
}

func flagOr(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

// promptRequest asks for the name and for every stack choice not given as
// a flag.
func promptRequest(cmd *cobra.Command, req *scaffold.Request) error {
	if req.Name == "" {
		err := survey.AskOne(&survey.Input{
			Message: "Project name:",
			Help:    "2 to 100 letters, digits, hyphens or underscores",
		}, &req.Name, survey.WithValidator(func(ans any) error {
			s, _ := ans.(string)
			return variables.ValidateName(s)
		}))
		if err != nil {
			return err
		}
	}
	if req.Description == "" {
		if err := survey.AskOne(&survey.Input{Message: "Description (optional):"}, &req.Description); err != nil {
			return err
		}
	}

	if !cmd.Flags().Changed("backend") {
		choice, err := selectOne("Backend:", backendLabels(), req.Stack.Backend.Label())
		if err != nil {
			return err
		}
		req.Stack.Backend = types.Backends[choice]
	}
	if !cmd.Flags().Changed("frontend") {
		choice, err := selectOne("Frontend:", frontendLabels(), req.Stack.Frontend.Label())
		if err != nil {
			return err
		}
		req.Stack.Frontend = types.Frontends[choice]
	}
	if !cmd.Flags().Changed("docker") {
		if err := survey.AskOne(&survey.Confirm{
			Message: "Include Docker files?",
			Default: req.Stack.UseDocker,
		}, &req.Stack.UseDocker); err != nil {
			return err
		}
	}
	return nil
}

func selectOne(message string, options []string, def string) (int, error) {
	var idx int
	prompt := &survey.Select{Message: message, Options: options}
	for _, o := range options {
		if o == def {
			prompt.Default = def
		}
	}
	if err := survey.AskOne(prompt, &idx); err != nil {
		return 0, err
	}
	return idx, nil
}

func backendLabels() []string {
	out := make([]string, len(types.Backends))
	for i, b := range types.Backends {
		out[i] = b.Label()
	}
	return out
}

func frontendLabels() []string {
	out := make([]string, len(types.Frontends))
	for i, f := range types.Frontends {
		out[i] = f.Label()
	}
	return out
}

// validateResult runs the in-process checks and, with --validate-python,
// the containerised Python syntax check.
func validateResult(ctx context.Context, cmd *cobra.Command, res *scaffold.Result) error {
	issues := validate.Files(res.Files)

	if py, _ := cmd.Flags().GetBool("validate-python"); py && res.Stack.Backend == types.BackendPython {
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return err
		}
		pyIssues, err := validate.Python(ctx, rt, res.Files)
		if err != nil {
			return err
		}
		issues = append(issues, pyIssues...)
	}

	if len(issues) == 0 {
		log.WithField("files", len(res.Files)).Info("Validation passed")
		return nil
	}
	lines := make([]string, len(issues))
	for i, is := range issues {
		lines[i] = "  " + is.String()
	}
	return fmt.Errorf("validation found %d issue(s):\n%s", len(issues), strings.Join(lines, "\n"))
}

func init() {
	newCmd.Flags().String("backend", "", "backend stack: java, csharp, python")
	newCmd.Flags().String("frontend", "", "frontend stack: react, vue, angular")
	newCmd.Flags().String("database", "", "database: postgres")
	newCmd.Flags().Bool("docker", true, "include Dockerfiles and compose services")
	newCmd.Flags().String("description", "", "project description")
	newCmd.Flags().StringP("out", "o", "", "output directory (default: <generator.output_dir>/<name>)")
	newCmd.Flags().StringArray("var", nil, "extra or overriding placeholder value KEY=VALUE (repeatable)")
	newCmd.Flags().String("vars-file", "", "YAML file of placeholder values")
	newCmd.Flags().Bool("force", false, "replace a non-empty output directory")
	newCmd.Flags().BoolP("interactive", "i", false, "prompt for the name and stack")
	newCmd.Flags().Bool("validate", false, "check rendered files before writing")
	newCmd.Flags().Bool("validate-python", false, "with --validate, also parse Python files in a container")
	newCmd.Flags().Bool("register", false, "record the project in the registry")
	newCmd.Flags().Bool("dry-run", false, "list the files without writing them")

	rootCmd.AddCommand(newCmd)
}
