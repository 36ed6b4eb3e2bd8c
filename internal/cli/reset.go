package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/scheduler"
	"github.com/dukerupert/chorechart/internal/store"
)

type ResetOptions struct {
	*RootOptions
	Force bool
}

func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Generate today's task instances",
		Long: `Run the daily reset once. Without --force nothing happens if
today's reset has already been recorded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(opts, cmd)
		},
	}
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "generate even if today's reset already ran")
	return cmd
}

func runReset(opts *ResetOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	engine := chore.NewEngine(a.db, a.cfg.Location(), nil, a.logger)
	orch, err := scheduler.New(engine, store.NewSettingsStore(a.db), scheduler.Config{
		Location: a.cfg.Location(),
		ResetAt:  a.cfg.Scheduler.ResetAt,
	}, a.logger)
	if err != nil {
		return err
	}

	var created int
	if opts.Force {
		created, err = orch.RunNow(ctx)
	} else {
		created, err = orch.RunIfNeeded(ctx)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %d task instances\n", created)
	return nil
}
