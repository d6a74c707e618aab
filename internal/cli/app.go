package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"quintry/internal/history"
)

const defaultStatsLimit = 10

var ErrUnknownCommand = errors.New("unknown command")

// Run dispatches one history command. in is only read by save.
func Run(ctx context.Context, service *history.Service, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: expected one of save, list, clear, stats", ErrUnknownCommand)
	}

	command, rest := args[0], args[1:]
	switch command {
	case "save":
		return runSave(ctx, service, rest, in, out)
	case "list":
		return runList(ctx, service, out)
	case "clear":
		return runClear(ctx, service, out)
	case "stats":
		return runStats(ctx, service, rest, out)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

func runSave(ctx context.Context, service *history.Service, args []string, in io.Reader, out io.Writer) error {
	flags := flag.NewFlagSet("save", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	id := flags.String("id", "", "quiz id (generated when empty)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	var record history.QuizSummary
	if err := json.NewDecoder(in).Decode(&record); err != nil {
		return fmt.Errorf("invalid quiz history JSON: %w", err)
	}

	if *id != "" {
		record.ID = *id
	}
	if strings.TrimSpace(record.ID) == "" {
		record.ID = history.NewRecordID()
	}
	if record.Date == 0 {
		record.Date = time.Now().UnixMilli()
	}

	if err := service.SaveQuizHistory(ctx, record); err != nil {
		return err
	}

	fmt.Fprintln(out, record.ID)
	return nil
}

func runList(ctx context.Context, service *history.Service, out io.Writer) error {
	records, err := service.GetQuizHistory(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

func runClear(ctx context.Context, service *history.Service, out io.Writer) error {
	if err := service.ClearQuizHistory(ctx); err != nil {
		return err
	}

	fmt.Fprintln(out, "Quiz history cleared.")
	return nil
}

func runStats(ctx context.Context, service *history.Service, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("stats", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	limit := flags.Int("limit", defaultStatsLimit, "ports listed per section")
	if err := flags.Parse(args); err != nil {
		return err
	}

	summary, err := service.Stats(ctx, *limit)
	if err != nil {
		return err
	}

	printStats(out, summary)
	return nil
}

func printStats(out io.Writer, summary history.Summary) {
	fmt.Fprintf(out, "Average accuracy: %.1f%%\n\n", summary.AverageAccuracy*100)

	difficulties := make([]string, 0, len(summary.ByDifficulty))
	for difficulty := range summary.ByDifficulty {
		difficulties = append(difficulties, difficulty)
	}
	sort.Strings(difficulties)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIFFICULTY\tQUIZZES\tAVG ACCURACY")
	for _, difficulty := range difficulties {
		row := summary.ByDifficulty[difficulty]
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", difficulty, row.Count, row.AvgAccuracy*100)
	}
	_ = tw.Flush()

	printPorts(out, "Weakest ports", summary.Weakest)
	printPorts(out, "Strongest ports", summary.Strongest)
}

func printPorts(out io.Writer, title string, ports []history.PortStats) {
	fmt.Fprintf(out, "\n%s:\n", title)
	if len(ports) == 0 {
		fmt.Fprintln(out, "  (none yet)")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  PORT\tCORRECT\tATTEMPTS\tACCURACY")
	for _, port := range ports {
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%.1f%%\n", port.Port, port.Correct, port.Attempts, port.Accuracy)
	}
	_ = tw.Flush()
}
