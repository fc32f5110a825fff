package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jpalmerr/feedprobe"
)

// printRates writes the per-field rate table.
func printRates(w io.Writer, rates feedprobe.RateInfo) {
	fmt.Fprintln(w, "per second:")

	fields := make([]string, 0, len(rates))
	for field := range rates {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		r := rates[field]
		status := "(ok)"
		if r.Inexact {
			status = "(inexact!)"
		}
		fmt.Fprintf(w, "\t%s\t\t%.2f\t%s\n", field, r.Rate, status)
	}
}

// stepPrinter renders sync steps in the console format of the sync command.
type stepPrinter struct {
	w io.Writer
}

func (p stepPrinter) print(step feedprobe.SyncStep) {
	if step.Iteration > 0 {
		fmt.Fprintln(p.w, "have", step.PreviousSize)
		fmt.Fprintln(p.w, "requesting at timestamp", step.Cursor)
	}
	printRates(p.w, step.Rates)
	if step.Iteration > 0 {
		fmt.Fprintln(p.w, "got", step.Size, "delta posts, sleeping...")
	}
}

// printRound writes one stress round summary line.
func printRound(w io.Writer, report feedprobe.RoundReport) {
	end := report.StartedAt.Add(report.Duration)
	tick := float64(end.UnixNano()) / float64(time.Second)
	fmt.Fprintf(w, "tick %.6f ok=%d failed=%d\n", tick, report.Succeeded, report.Failed)
	for _, msg := range report.Errors {
		fmt.Fprintf(w, "Error in round %d: %s\n", report.Round, msg)
	}
}
