// Command cordis builds CORDIS reports from the command line without the
// database or the HTTP server.
//
// Usage:
//
//	cordis report  -name total -filters preset.yaml
//	cordis export  -name total -filters preset.yaml -output out
//	cordis options -name organismes
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"cordis-pipeline/internal/config"
	"cordis-pipeline/internal/model"
	"cordis-pipeline/internal/pipeline"
	"cordis-pipeline/pkg/utils"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const usage = `usage: cordis <report|export|options> [flags]

  report   print KPIs and summaries of a filtered dataset
  export   write the filtered rows and report tables to the output directory
  options  print the filter values available in a dataset
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

type cliFlags struct {
	name       string
	source     string
	filters    string
	asJSON     bool
	growthFrom int
	growthTo   int
}

func run(cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "report", "export", "options":
	case "-h", "--help", "help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	var f cliFlags
	fs.StringVar(&f.name, "name", "total", "Configured dataset name")
	fs.StringVar(&f.source, "source", "", "Sheet path or URL, overrides -name")
	fs.StringVar(&f.filters, "filters", "", "YAML filter preset mapping dimensions to accepted values")
	fs.BoolVar(&f.asJSON, "json", false, "Print the report as JSON")
	fs.IntVar(&f.growthFrom, "growth-from", 0, "First year of category growth, 0 for the first funded year")
	fs.IntVar(&f.growthTo, "growth-to", 0, "Last year of category growth, 0 for the last funded year")

	cfg, err := config.ParseConfig(fs, args)
	if err != nil {
		return err
	}

	source := f.source
	if source == "" {
		var ok bool
		if source, ok = cfg.Datasets[f.name]; !ok {
			return fmt.Errorf("%w: %s (configured: %v)", model.ErrUnknownDataset, f.name, cfg.DatasetNames())
		}
	}

	filters, err := loadPreset(f.filters)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LoadTimeout)
	defer cancel()

	reportID := uuid.New().String()
	tr := pipeline.NewTracker(reportID)
	ds, err := pipeline.Load(ctx, source, tr)
	if err != nil {
		return err
	}

	if cmd == "options" {
		return printOptions(out, pipeline.FilterOptions(ds), f.asJSON)
	}

	opts := pipeline.ReportOptions{TopN: cfg.TopN}
	if f.growthFrom > 0 {
		opts.GrowthFrom = model.Year{Value: f.growthFrom, Valid: true}
	}
	if f.growthTo > 0 {
		opts.GrowthTo = model.Year{Value: f.growthTo, Valid: true}
	}
	report := pipeline.BuildReport(ds, filters, opts, tr)
	report.ID = reportID

	if cmd == "export" {
		output := utils.NewOutputManager(cfg.OutputDir)
		em := pipeline.NewExportManager(reportID, output)
		var failed []error
		for _, res := range em.ExportAll(report, ds.Headers) {
			if !res.Success {
				failed = append(failed, fmt.Errorf("%s: %s", res.Path, res.Error))
			}
		}
		return errors.Join(failed...)
	}

	if f.asJSON {
		return pipeline.WriteReportJSON(out, report)
	}
	return printReport(out, report)
}

// loadPreset decodes a filter preset. An empty path means no filters.
func loadPreset(path string) (model.FilterSet, error) {
	if path == "" {
		return model.NewFilterSet(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FilterSet{}, fmt.Errorf("read filter preset: %w", err)
	}
	var fs model.FilterSet
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return model.FilterSet{}, fmt.Errorf("parse filter preset %s: %w", path, err)
	}
	return fs, nil
}

func printOptions(out io.Writer, options []model.FilterOption, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(options)
	}
	for _, o := range options {
		fmt.Fprintf(out, "%s (%s): %d values\n", o.Label, o.Dimension, len(o.Values))
		for _, v := range o.Values {
			fmt.Fprintf(out, "  %s\n", v)
		}
	}
	return nil
}

func printReport(out io.Writer, report *model.Report) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	k := report.KPIs

	fmt.Fprintf(tw, "Dataset\t%s\n", report.Dataset)
	if f := report.Filters.String(); f != "" {
		fmt.Fprintf(tw, "Filters\t%s\n", f)
	}
	fmt.Fprintf(tw, "Rows\t%d of %d\n", report.MatchedRows, report.TotalRows)
	fmt.Fprintf(tw, "Projects\t%d\n", k.Projects)
	fmt.Fprintf(tw, "Distinct titles\t%d\n", k.DistinctTitles)
	fmt.Fprintf(tw, "Participations\t%d\n", k.Participations)
	fmt.Fprintf(tw, "EC max contribution\t%.2f\n", k.TotalECMax)
	fmt.Fprintf(tw, "Total cost\t%.2f\n", k.TotalCost)
	if k.KeywordlessShare.Valid {
		fmt.Fprintf(tw, "Without keywords\t%.1f%%\n", k.KeywordlessShare.Value)
	}
	if report.Views.FundingCAGR.Valid {
		fmt.Fprintf(tw, "Funding CAGR %s-%s\t%.2f%%\n",
			report.Views.GrowthFrom, report.Views.GrowthTo, report.Views.FundingCAGR.Value)
	}

	section(tw, "Status", report.Summaries.Status)
	section(tw, "Roles", report.Summaries.Roles)
	section(tw, "Top keywords", report.Views.TopKeywords)

	if len(report.Views.TopOrganizations) > 0 {
		fmt.Fprintln(tw, "\nTop organizations")
		for _, o := range report.Views.TopOrganizations {
			fmt.Fprintf(tw, "  %s\t%s\t%.2f\n", o.Name, o.City, o.Total)
		}
	}
	if len(report.Unavailable) > 0 {
		fmt.Fprintf(tw, "\nUnavailable views\t%v\n", report.Unavailable)
	}
	return tw.Flush()
}

func section(tw *tabwriter.Writer, title string, counts []model.ValueCount) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(tw, "\n%s\n", title)
	for _, c := range counts {
		fmt.Fprintf(tw, "  %s\t%d\n", c.Value, c.Count)
	}
}
