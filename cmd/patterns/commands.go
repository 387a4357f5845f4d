package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/canvas-infra/patterns/internal/library"
	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/registry"
	"github.com/canvas-infra/patterns/internal/workspace"
)

var (
	errInvalidPattern = errors.New("pattern is invalid")
	errGenerate       = errors.New("template generation failed")
	errDeploy         = errors.New("deployment failed")
)

func (a *app) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pattern-file>",
		Short: "Validate a pattern file against the component catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := library.DecodePattern(args[0])
			if err != nil {
				return err
			}
			res := a.pipeline.ValidatePattern(p)
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Valid {
				return errInvalidPattern
			}
			return nil
		},
	}
}

// contextFlags are the template expansion inputs shared by generate and deploy.
type contextFlags struct {
	params      []string
	provider    string
	region      string
	environment string
	project     string
}

func (f *contextFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.params, "param", nil, "Template parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "Target cloud provider")
	cmd.Flags().StringVar(&f.region, "region", "", "Target region")
	cmd.Flags().StringVar(&f.environment, "environment", "", "Target environment")
	cmd.Flags().StringVar(&f.project, "project", "", "Project name")
}

func (f *contextFlags) context() (*pattern.Context, error) {
	params, err := parseParams(f.params)
	if err != nil {
		return nil, err
	}
	return &pattern.Context{
		Parameters:  params,
		Provider:    f.provider,
		Region:      f.region,
		Environment: f.environment,
		ProjectName: f.project,
	}, nil
}

func (a *app) generateCommand() *cobra.Command {
	var (
		flags  contextFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "generate <template-id>",
		Short: "Expand a template into a concrete pattern",
		Example: `  patterns generate web-application --param project_name=shop --param enable_monitoring=true --provider aws
  patterns generate data-pipeline --param project_name=etl -o etl.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := flags.context()
			if err != nil {
				return err
			}
			res := a.pipeline.GeneratePattern(args[0], ctx)
			if !res.Success {
				_ = writeJSON(cmd.OutOrStdout(), res)
				return errGenerate
			}
			for _, w := range res.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			return writeDocument(cmd.OutOrStdout(), output, res.Pattern)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the pattern to a .json or .yaml file instead of stdout")
	return cmd
}

func (a *app) searchCommand() *cobra.Command {
	var (
		f          registry.Filters
		categories []string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search registered patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, c := range categories {
				f.Categories = append(f.Categories, pattern.Category(c))
			}
			return writeJSON(cmd.OutOrStdout(), a.pipeline.SearchPatterns(f))
		},
	}
	cmd.Flags().StringVar(&f.Text, "text", "", "Free text matched against name, description and tags")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Pattern category (repeatable)")
	cmd.Flags().StringSliceVar(&f.Providers, "provider", nil, "Cloud provider (repeatable)")
	cmd.Flags().StringSliceVar(&f.Tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&f.Author, "author", "", "Author substring")
	cmd.Flags().Float64Var(&f.MinRating, "min-rating", 0, "Minimum rating")
	return cmd
}

func (a *app) deployCommand() *cobra.Command {
	var (
		flags                              contextFlags
		placement                          placementFlags
		patternFile, patternID, templateID string
		workspaceFile, output              string
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a pattern into a workspace",
		Example: `  patterns deploy --pattern-id three-tier-web-app --workspace canvas.json
  patterns deploy --template web-application --param project_name=shop --workspace canvas.json --naming increment`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := loadWorkspace(workspaceFile)
			if err != nil {
				return err
			}
			opts := a.cfg.DeployOptions()
			placement.apply(cmd, &opts)

			var (
				report  any
				success bool
			)
			switch {
			case templateID != "":
				ctx, err := flags.context()
				if err != nil {
					return err
				}
				res := a.pipeline.GenerateAndDeploy(templateID, ctx, state, opts)
				report, success = res, res.Success
			case patternID != "":
				res, err := a.pipeline.DeployRegistered(patternID, state, opts)
				if err != nil {
					return err
				}
				report, success = res, res.Success
			default:
				p, err := library.DecodePattern(patternFile)
				if err != nil {
					return err
				}
				res := a.pipeline.DeployPattern(p, state, opts)
				report, success = res, res.Success
			}

			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !success {
				return errDeploy
			}
			return saveWorkspace(output, workspaceFile, state)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&patternFile, "pattern", "", "Pattern file to deploy")
	cmd.Flags().StringVar(&patternID, "pattern-id", "", "Registered pattern to deploy")
	cmd.Flags().StringVar(&templateID, "template", "", "Template to generate and deploy")
	cmd.MarkFlagsMutuallyExclusive("pattern", "pattern-id", "template")
	cmd.MarkFlagsOneRequired("pattern", "pattern-id", "template")
	cmd.Flags().StringVar(&workspaceFile, "workspace", "", "Workspace state file; created when missing")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Where to write the updated workspace (default: --workspace)")
	placement.bind(cmd)
	return cmd
}

func (a *app) batchCommand() *cobra.Command {
	var (
		placement                placementFlags
		patternFiles, patternIDs []string
		workspaceFile, output    string
		mode                     string
		maxParallel              int
		snapshot                 bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Deploy several patterns into a workspace in one batch",
		Example: `  patterns batch --pattern-id static-website --pattern-id serverless-api --workspace canvas.json
  patterns batch --pattern a.json --pattern b.yaml --mode parallel --max-parallel 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			patterns := make([]*pattern.Pattern, 0, len(patternIDs)+len(patternFiles))
			for _, id := range patternIDs {
				p, err := a.pipeline.Patterns().Get(id)
				if err != nil {
					return err
				}
				patterns = append(patterns, p)
			}
			for _, path := range patternFiles {
				p, err := library.DecodePattern(path)
				if err != nil {
					return err
				}
				patterns = append(patterns, p)
			}
			state, err := loadWorkspace(workspaceFile)
			if err != nil {
				return err
			}

			opts := a.cfg.BatchOptions()
			placement.apply(cmd, &opts.Deploy)
			if cmd.Flags().Changed("mode") {
				opts.Mode = workspace.BatchMode(mode)
			}
			if cmd.Flags().Changed("max-parallel") {
				opts.MaxParallel = maxParallel
			}
			if cmd.Flags().Changed("snapshot") {
				opts.Snapshot = snapshot
			}

			res := a.pipeline.DeployBatch(cmd.Context(), patterns, state, opts)
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			// A rolled back or partially failed batch still leaves a
			// consistent workspace behind.
			if err := saveWorkspace(output, workspaceFile, state); err != nil {
				return err
			}
			if !res.Success {
				return errDeploy
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&patternFiles, "pattern", nil, "Pattern file to deploy (repeatable)")
	cmd.Flags().StringArrayVar(&patternIDs, "pattern-id", nil, "Registered pattern to deploy (repeatable)")
	cmd.MarkFlagsOneRequired("pattern", "pattern-id")
	cmd.Flags().StringVar(&workspaceFile, "workspace", "", "Workspace state file; created when missing")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Where to write the updated workspace (default: --workspace)")
	cmd.Flags().StringVar(&mode, "mode", "", "Batch mode: sequential or parallel")
	cmd.Flags().IntVar(&maxParallel, "max-parallel", 0, "Concurrent deployments in parallel mode (0 = NumCPU)")
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "Roll the workspace back on the first failure (sequential mode)")
	placement.bind(cmd)
	return cmd
}

// placementFlags override the configured layout and naming options.
type placementFlags struct {
	layout, naming, prefix string
	autoLayout             bool
}

func (f *placementFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.layout, "layout", "", "Layout strategy: grid, hierarchical or circular")
	cmd.Flags().StringVar(&f.naming, "naming", "", "Naming strategy: preserve, prefix or increment")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "Prefix for the prefix naming strategy")
	cmd.Flags().BoolVar(&f.autoLayout, "auto-layout", false, "Use the hierarchical layout")
}

// apply copies flags the user set onto opts.
func (f *placementFlags) apply(cmd *cobra.Command, opts *workspace.DeployOptions) {
	if cmd.Flags().Changed("layout") {
		opts.Layout = f.layout
	}
	if cmd.Flags().Changed("naming") {
		opts.Naming = workspace.NamingStrategy(f.naming)
	}
	if cmd.Flags().Changed("prefix") {
		opts.Prefix = f.prefix
	}
	if cmd.Flags().Changed("auto-layout") {
		opts.AutoLayout = f.autoLayout
	}
}

func (a *app) exportCommand() *cobra.Command {
	var provider, outDir string
	cmd := &cobra.Command{
		Use:   "export <pattern-file>",
		Short: "Render a pattern as skeleton Terraform files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := library.DecodePattern(args[0])
			if err != nil {
				return err
			}
			files, err := a.pipeline.Export(p, provider)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("mkdir: %w", err)
			}
			names := make([]string, 0, len(files))
			for name := range files {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				path := filepath.Join(outDir, name)
				if err := os.WriteFile(path, files[name], 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Terraform provider (default: the pattern's first provider)")
	cmd.Flags().StringVarP(&outDir, "output", "o", "terraform", "Output directory for Terraform files")
	return cmd
}

func (a *app) templatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List registered templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), a.pipeline.Templates().ListTemplates())
		},
	}
}

// saveWorkspace writes state to output, falling back to the workspace file.
// Nothing is written when neither is set.
func saveWorkspace(output, workspaceFile string, state *workspace.State) error {
	if output == "" {
		output = workspaceFile
	}
	if output == "" {
		return nil
	}
	return writeDocument(io.Discard, output, state)
}

func loadWorkspace(path string) (*workspace.State, error) {
	if path == "" {
		return &workspace.State{}, nil
	}
	state, err := library.DecodeWorkspace(path)
	if errors.Is(err, os.ErrNotExist) {
		return &workspace.State{}, nil
	}
	return state, err
}

// parseParams turns key=value pairs into template parameters.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", pair)
		}
		params[key] = parseValue(value)
	}
	return params, nil
}

// parseValue reads numbers, booleans and JSON lists or objects; anything
// else stays a string.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if t := strings.TrimSpace(s); strings.HasPrefix(t, "[") || strings.HasPrefix(t, "{") {
		var v any
		if err := json.Unmarshal([]byte(t), &v); err == nil {
			return v
		}
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeDocument writes v to path as JSON or YAML by extension, or as JSON to
// w when path is empty.
func writeDocument(w io.Writer, path string, v any) error {
	if path == "" {
		return writeJSON(w, v)
	}
	format, err := library.FormatOf(path)
	if err != nil {
		return err
	}
	var data []byte
	if format == library.YAML {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
