package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dukerupert/chorechart/internal/chore"
)

func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <tasks.yaml>",
		Short: "Import task definitions from a YAML file",
		Long: `Import task definitions from a YAML file holding either a list of
tasks or a mapping with a "tasks" list. Every task is validated first;
one invalid task rejects the whole file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

func runImport(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	defs, err := loadTaskFile(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx, rootOpts, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	engine := chore.NewEngine(a.db, a.cfg.Location(), nil, a.logger)
	created, err := engine.ImportTasks(ctx, defs)
	if err != nil {
		return err
	}
	for _, t := range created {
		fmt.Fprintf(cmd.OutOrStdout(), "  %d  %-30s %s\n", t.ID, t.Name, t.ScheduleType)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks\n", len(created))
	return nil
}

func loadTaskFile(path string) ([]chore.TaskDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}

	var doc struct {
		Tasks []chore.TaskDefinition `yaml:"tasks"`
	}
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Tasks) > 0 {
		return doc.Tasks, nil
	}

	var list []chore.TaskDefinition
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse task file %s: %w", path, err)
	}
	return list, nil
}
