package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/featuremodel"
	"github.com/matzehuels/reana/pkg/store"
)

// runsCommand creates the runs command for inspecting stored analysis runs.
func (c *CLI) runsCommand() *cobra.Command {
	var uri string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect analysis runs stored with analyze --persist",
	}
	cmd.PersistentFlags().StringVar(&uri, "store", os.Getenv("REANA_STORE"), "run store: directory or mongodb:// URI (default: ~/.local/share/reana/runs)")

	cmd.AddCommand(c.runsListCommand(&uri))
	cmd.AddCommand(c.runsShowCommand(&uri))
	cmd.AddCommand(c.runsDeleteCommand(&uri))

	return cmd
}

func (c *CLI) runsListCommand(uri *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStore(cmd.Context(), *uri)
			if err != nil {
				return err
			}
			defer s.Close()

			reports, err := s.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				printInfo("No stored runs")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), runsTable(reports))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs (0 for all)")
	return cmd
}

func runsTable(reports []*store.Report) string {
	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = []string{
			r.ID,
			r.CreatedAt.Local().Format(time.DateTime),
			r.Strategy,
			strconv.Itoa(r.Stats.Configurations),
			strconv.Itoa(r.Stats.Failures),
			r.Duration.Round(time.Millisecond).String(),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Created", "Strategy", "Configs", "Failures", "Duration").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func (c *CLI) runsShowCommand(uri *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the results of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStore(cmd.Context(), *uri)
			if err != nil {
				return err
			}
			defer s.Close()

			r, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printKeyValue(w, "Run", r.ID)
			printKeyValue(w, "Created", r.CreatedAt.Local().Format(time.DateTime))
			printKeyValue(w, "Strategy", r.Strategy)
			if r.Mode != "" {
				printKeyValue(w, "Mode", r.Mode)
			}
			if r.FeatureModel != "" {
				printKeyValue(w, "Feature model", r.FeatureModel)
			}
			if r.Formula != "" {
				printKeyValue(w, "Formula", r.Formula)
			}
			fmt.Fprintln(w)
			for _, e := range r.Entries {
				cfg := featuremodel.NewConfiguration(e.Configuration...).String()
				switch {
				case e.Reliability != nil:
					fmt.Fprintln(w, cfg+" --> "+StyleNumber.Render(formatReliability(*e.Reliability)))
				case e.Code == string(errors.ErrCodeInvalidConfiguration):
					fmt.Fprintln(w, cfg+" --> "+StyleWarning.Render(e.Code))
				default:
					fmt.Fprintln(w, cfg+" --> "+StyleError.Render(e.Code))
				}
			}
			return nil
		},
	}
}

func (c *CLI) runsDeleteCommand(uri *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete stored runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStore(cmd.Context(), *uri)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, id := range args {
				if err := s.Delete(cmd.Context(), id); err != nil {
					return err
				}
			}
			printSuccess("Deleted %d runs", len(args))
			return nil
		},
	}
}
