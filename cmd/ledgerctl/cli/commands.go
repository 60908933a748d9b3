package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/freelanceflow/freelanceflow/internal/app"
	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/money"
	"github.com/freelanceflow/freelanceflow/jobs"
)

func newMigrateCommand(env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the ledger tables when missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(env, cmd, func(rt *app.Runtime) error {
				if err := rt.Store.Migrate(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", rt.Config.StoreDriver)
				return nil
			})
		},
	}
}

func newReconcileCommand(env Env) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Re-derive the status of every invoice with payments",
		Example: `  # Report drift without writing
  ledgerctl reconcile --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(env, cmd, func(rt *app.Runtime) error {
				job := jobs.NewReconcileSweepJob(rt.Ledger, rt.Logger, nil)
				result, err := job.Run(cmd.Context(), dryRun)
				out := cmd.OutOrStdout()
				for _, d := range result.Drifts {
					fmt.Fprintf(out, "%s  tenant=%s  stored=%q  derived=%q  paid=%s/%s\n",
						d.InvoiceID, d.TenantID, d.Stored, d.Derived,
						d.Paid.StringFixed(money.Places), d.Total.StringFixed(money.Places))
				}
				verb := "repaired"
				if dryRun {
					verb = "would repair"
				}
				fmt.Fprintf(out, "checked %d invoices, %s %d, %d failed\n", result.Checked, verb, len(result.Drifts), result.Failed)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report drift without writing")
	return cmd
}

func newDashboardCommand(env Env) *cobra.Command {
	var (
		tenant string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print a tenant's dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := uuid.Parse(tenant)
			if err != nil {
				return fmt.Errorf("invalid --tenant: %w", err)
			}
			return withRuntime(env, cmd, func(rt *app.Runtime) error {
				view, err := rt.Facade.Dashboard(cmd.Context(), tenantID)
				if err != nil {
					return fmt.Errorf("%s: %w", rt.Facade.UserMessage(err), err)
				}
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(view)
				}
				fmt.Fprintf(out, "clients   %d\nprojects  %d\ninvoices  %d\n", view.TotalClients, view.TotalProjects, view.TotalInvoices)
				fmt.Fprintf(out, "revenue   %s\npending   %s (%d invoices)\n", view.TotalRevenue.Display, view.PendingAmount.Display, view.PendingInvoices)
				statuses := make([]string, 0, len(view.ProjectsByStatus))
				for status := range view.ProjectsByStatus {
					statuses = append(statuses, status)
				}
				sort.Strings(statuses)
				for _, status := range statuses {
					fmt.Fprintf(out, "  %-12s %d\n", status, view.ProjectsByStatus[status])
				}
				for _, m := range view.MonthlyRevenue {
					fmt.Fprintf(out, "%s  %s\n", m.Month, m.Amount.Display)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newJobsCommand(env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}

	var dryRun bool
	trigger := &cobra.Command{
		Use:   "trigger <job>",
		Short: "Enqueue a job (reconcile_sweep)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := env.Jobs()
			defer c.Close()
			info, err := c.Trigger(cmd.Context(), args[0], dryRun)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	trigger.Flags().BoolVar(&dryRun, "dry-run", false, "Report drift without writing")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show the default queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := env.Jobs()
			defer c.Close()
			s, err := c.InspectQueue()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
			return nil
		},
	}

	cmd.AddCommand(trigger, stats)
	return cmd
}

// seedDay anchors the demo data so repeated seeds produce the same months.
var seedDay = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func newSeedCommand(env Env) *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo clients, projects, invoices and payments for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID := uuid.New()
			if tenant != "" {
				parsed, err := uuid.Parse(tenant)
				if err != nil {
					return fmt.Errorf("invalid --tenant: %w", err)
				}
				tenantID = parsed
			}
			return withRuntime(env, cmd, func(rt *app.Runtime) error {
				if err := seed(cmd, rt, tenantID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded tenant %s\n", tenantID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant ID (random when empty)")
	return cmd
}

type seedInvoice struct {
	total    string
	payments []string
}

type seedProject struct {
	client   string
	name     string
	status   ledger.ProjectStatus
	budget   string
	invoices []seedInvoice
}

var demoProjects = []seedProject{
	{client: "Acme Corp", name: "Website Redesign", status: ledger.ProjectInProgress, budget: "8000", invoices: []seedInvoice{
		{total: "2500", payments: []string{"2500"}},
		{total: "3000", payments: []string{"1000"}},
	}},
	{client: "Globex", name: "Mobile App", status: ledger.ProjectCompleted, budget: "12000", invoices: []seedInvoice{
		{total: "6000", payments: []string{"3000", "3000"}},
		{total: "6000", payments: []string{"6000"}},
	}},
	{client: "Initech", name: "Brand Audit", status: ledger.ProjectNotStarted, budget: "1500", invoices: []seedInvoice{
		{total: "750"},
	}},
}

func seed(cmd *cobra.Command, rt *app.Runtime, tenantID uuid.UUID) error {
	ctx := cmd.Context()
	for i, sp := range demoProjects {
		created := seedDay.AddDate(0, i, 0)
		client := ledger.Client{ID: uuid.New(), TenantID: tenantID, Name: sp.client, CreatedAt: created}
		if err := rt.Store.CreateClient(ctx, client); err != nil {
			return fmt.Errorf("seed client %s: %w", sp.client, err)
		}
		project := ledger.Project{
			ID:         uuid.New(),
			TenantID:   tenantID,
			ClientID:   client.ID,
			ClientName: client.Name,
			Name:       sp.name,
			Status:     sp.status,
			Budget:     money.MustParse(sp.budget),
			CreatedAt:  created,
		}
		if err := rt.Store.CreateProject(ctx, project); err != nil {
			return fmt.Errorf("seed project %s: %w", sp.name, err)
		}
		for j, si := range sp.invoices {
			issued := created.AddDate(0, j, 0)
			inv, err := rt.Ledger.CreateInvoice(ctx, ledger.CreateInvoiceInput{
				ProjectID: project.ID,
				Total:     money.MustParse(si.total),
				IssueDate: issued,
				DueDate:   issued.AddDate(0, 0, 30),
			})
			if err != nil {
				return fmt.Errorf("seed invoice: %w", err)
			}
			for k, amount := range si.payments {
				_, err := rt.Ledger.CreatePayment(ctx, inv.ID, ledger.PaymentInput{
					Amount:      money.MustParse(amount),
					PaymentDate: issued.AddDate(0, 0, 10*(k+1)),
					Method:      ledger.PaymentMethods[(j+k)%len(ledger.PaymentMethods)],
				})
				if err != nil {
					return fmt.Errorf("seed payment: %w", err)
				}
			}
		}
	}
	return nil
}
