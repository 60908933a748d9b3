// Package cli implements the ledgerctl operator commands.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/freelanceflow/freelanceflow/internal/app"
)

// Env supplies the commands with their collaborators. Runtime and Jobs are
// called lazily so that commands open only what they use.
type Env struct {
	Runtime func(ctx context.Context) (*app.Runtime, error)
	Jobs    func() *JobsCLI
	Out     io.Writer
}

// NewRootCommand builds the ledgerctl command tree.
func NewRootCommand(env Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the FreelanceFlow ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(env.Out)
	root.AddCommand(
		newMigrateCommand(env),
		newSeedCommand(env),
		newReconcileCommand(env),
		newDashboardCommand(env),
		newJobsCommand(env),
	)
	return root
}

func withRuntime(env Env, cmd *cobra.Command, fn func(*app.Runtime) error) error {
	rt, err := env.Runtime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}
