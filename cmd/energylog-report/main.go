// Command energylog-report computes statistics from an export file without a
// running server.
//
//	energylog-report -in records.json -mode timeline -type charging
//	energylog-report -in records.json -mode report -year 2024 -format pdf -out 2024.pdf
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"energylog/internal/core"
	"energylog/internal/export"
	"energylog/internal/records"
	"energylog/internal/share"
	"energylog/internal/stats"
)

const (
	modeTimeline = "timeline"
	modeRollups  = "rollups"
	modeYears    = "years"
	modeReport   = "report"
	modeStats    = "stats"
	modeShare    = "share"
)

var errUsage = errors.New("usage")

type options struct {
	in           string
	out          string
	mode         string
	format       string
	year         int
	timezone     string
	startMileage string
	optimizeCost bool
	shareBaseURL string
	filter       stats.Filter
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "energylog-report:", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("energylog-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.in, "in", "-", "export file to read, - for stdin")
	fs.StringVar(&o.out, "out", "-", "output file, - for stdout")
	fs.StringVar(&o.mode, "mode", modeTimeline, "timeline|rollups|years|report|stats|share")
	fs.StringVar(&o.format, "format", "json", "report output: json|xlsx|pdf")
	fs.IntVar(&o.year, "year", 0, "report year, defaults to the latest year with data")
	fs.StringVar(&o.timezone, "tz", "UTC", "time zone for zone-less dates")
	fs.StringVar(&o.startMileage, "start-mileage", "", "odometer reading before the first record")
	fs.BoolVar(&o.optimizeCost, "optimize-cost", false, "drop a trailing refueling from cost statistics")
	fs.StringVar(&o.shareBaseURL, "share-url", "", "base URL for share links")
	fs.StringVar(&o.filter.EnergyType, "type", "", "timeline filter: all|refueling|charging")
	fs.StringVar(&o.filter.Month, "month", "", "timeline filter: YYYY-MM")
	fs.BoolVar(&o.filter.OnlySummary, "only-summary", false, "timeline: markers only")
	if err := fs.Parse(args); err != nil {
		return o, errUsage
	}
	return o, nil
}

func (o options) statsOptions() (stats.Options, error) {
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return stats.Options{}, fmt.Errorf("invalid time zone %q: %w", o.timezone, err)
	}
	opts := stats.Options{Location: loc, OptimizeCost: o.optimizeCost}
	if o.startMileage != "" {
		v, err := strconv.ParseFloat(o.startMileage, 64)
		if err != nil || v < 0 {
			return stats.Options{}, fmt.Errorf("invalid start mileage %q", o.startMileage)
		}
		opts.StartMileage = &v
	}
	return opts, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	opts, err := o.statsOptions()
	if err != nil {
		return err
	}
	list, err := readRecords(o.in, stdin)
	if err != nil {
		return err
	}

	result, err := compute(o, list, opts)
	if err != nil {
		return err
	}

	w := stdout
	if o.out != "-" && o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if b, ok := result.([]byte); ok {
		_, err = w.Write(b)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readRecords(path string, stdin io.Reader) ([]core.EnergyRecord, error) {
	if path == "-" || path == "" {
		return records.ParseImport(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return records.ParseImport(f)
}

// compute returns either a JSON-encodable value or raw document bytes.
func compute(o options, list []core.EnergyRecord, opts stats.Options) (any, error) {
	switch o.mode {
	case modeTimeline:
		if err := o.filter.Validate(); err != nil {
			return nil, err
		}
		return stats.BuildTimeline(list, o.filter, opts), nil
	case modeRollups:
		if err := o.filter.Validate(); err != nil {
			return nil, err
		}
		return stats.BuildMonthlyRollups(list, o.filter, opts), nil
	case modeYears:
		return stats.YearsWithData(list, opts), nil
	case modeStats:
		return stats.ComputeCostStatistics(list, opts).Rounded(), nil
	case modeReport, modeShare:
	default:
		return nil, fmt.Errorf("unknown mode %q", o.mode)
	}

	year := o.year
	if year == 0 {
		years := stats.YearsWithData(list, opts)
		if len(years) == 0 {
			return nil, errors.New("no dated records")
		}
		year = years[0]
	}
	report := stats.ComputeYearlyReport(list, year, opts)
	if report == nil {
		return nil, fmt.Errorf("no records for year %d", year)
	}
	rounded := report.Rounded()

	if o.mode == modeShare {
		payload, err := share.NewCodec(opts.Location).Encode(rounded)
		if err != nil {
			return nil, err
		}
		res := map[string]string{"payload": payload}
		if o.shareBaseURL != "" {
			res["url"] = share.Link(o.shareBaseURL, payload)
		}
		return res, nil
	}

	switch o.format {
	case "json", "":
		return rounded, nil
	case "xlsx":
		return export.BuildYearlyXLSX(rounded, opts.Location)
	case "pdf":
		return export.BuildYearlyPDF(rounded, opts.Location)
	default:
		return nil, fmt.Errorf("unknown format %q", o.format)
	}
}
