package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bensuskins/planner/internal/recurrence"
)

// ValidFormats are the output formats of expand.
var ValidFormats = []string{"text", "json"}

// Definition is the YAML form of a single item, as accepted by expand.
type Definition struct {
	Title      string             `yaml:"title"`
	Date       recurrence.Date    `yaml:"date"`
	Recurrence *recurrence.Config `yaml:"recurrence"`
}

type ExpandOptions struct {
	File   string
	From   string
	To     string
	Format string
}

type expandResult struct {
	Title     string            `json:"title"`
	Dates     []recurrence.Date `json:"dates"`
	Truncated bool              `json:"truncated"`
}

func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{}

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Expand an item definition over a date range without a database",
		Long: `Expand reads a YAML item definition and prints every date it occurs on
between --from and --to inclusive. --from defaults to the item's date and
--to to 30 days after --from.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(rootOpts, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML item definition")
	cmd.Flags().StringVar(&opts.From, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.To, "to", "", "last date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runExpand(rootOpts *RootOptions, opts *ExpandOptions, out io.Writer) error {
	if !isValidFormat(opts.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
	}

	definition, err := loadDefinition(opts.File)
	if err != nil {
		return err
	}

	schedule := recurrence.Schedule{Anchor: definition.Date}
	if definition.Recurrence != nil {
		rule, err := definition.Recurrence.Build(definition.Date)
		if err != nil {
			return err
		}
		schedule.Rule = rule
	}
	if err := schedule.Validate(); err != nil {
		return err
	}

	window, err := expandWindow(opts, definition.Date)
	if err != nil {
		return err
	}

	expander := recurrence.Expander{MaxIterations: rootOpts.Config.MaxExpansionIterations}
	expansion := expander.Expand(schedule, window)

	if opts.Format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(expandResult{
			Title:     definition.Title,
			Dates:     append([]recurrence.Date{}, expansion.Dates...),
			Truncated: expansion.Truncated,
		})
	}

	for _, date := range expansion.Dates {
		fmt.Fprintf(out, "%s %s %s\n", date, date.Weekday().String()[:3], definition.Title)
	}
	if expansion.Truncated {
		fmt.Fprintf(out, "truncated after %d dates: iteration limit reached\n", len(expansion.Dates))
	}
	return nil
}

func loadDefinition(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("reading definition: %w", err)
	}

	var definition Definition
	if err := yaml.Unmarshal(data, &definition); err != nil {
		return Definition{}, fmt.Errorf("parsing definition %s: %w", path, err)
	}
	if definition.Date.IsZero() {
		return Definition{}, fmt.Errorf("definition %s has no date", path)
	}
	return definition, nil
}

func expandWindow(opts *ExpandOptions, anchor recurrence.Date) (recurrence.Window, error) {
	from := anchor
	if opts.From != "" {
		parsed, err := recurrence.ParseDate(opts.From)
		if err != nil {
			return recurrence.Window{}, fmt.Errorf("parsing --from: %w", err)
		}
		from = parsed
	}

	to := from.AddDays(30)
	if opts.To != "" {
		parsed, err := recurrence.ParseDate(opts.To)
		if err != nil {
			return recurrence.Window{}, fmt.Errorf("parsing --to: %w", err)
		}
		to = parsed
	}
	return recurrence.NewWindow(from, to)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
