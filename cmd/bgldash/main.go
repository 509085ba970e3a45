// Package main is the entry point for the bgldash command line client.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jwulff/bgldash/internal/activitylog"
	"github.com/jwulff/bgldash/internal/app"
	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/config"
	"github.com/jwulff/bgldash/internal/dashboard"
	"github.com/jwulff/bgldash/internal/histogram"
	"github.com/jwulff/bgldash/internal/logging"
	"github.com/jwulff/bgldash/internal/preferences"
	"github.com/jwulff/bgldash/internal/refresh"
	"github.com/jwulff/bgldash/internal/render"
)

const requestTimeout = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		showUsage()
		return
	}

	switch os.Args[1] {
	case "status":
		withApp(showStatus)
	case "watch":
		withApp(watchMode)
	case "chart":
		withApp(showChart)
	case "preview":
		if len(os.Args) < 3 {
			fmt.Println("Error: output file required")
			fmt.Println("Usage: bgldash preview <file.png>")
			os.Exit(1)
		}
		withApp(func(a *app.App) error { return savePreview(a, os.Args[2]) })
	case "log":
		withApp(func(a *app.App) error { return activityCommand(a, os.Args[2:]) })
	case "profiles":
		showProfiles()
	default:
		showUsage()
	}
}

func showUsage() {
	fmt.Println("Usage:")
	fmt.Println("  bgldash status                       - Show the latest glucose reading")
	fmt.Println("  bgldash watch                        - Continuous mode (auto refresh)")
	fmt.Println("  bgldash chart                        - Print the dashboard chart as JSON")
	fmt.Println("  bgldash preview <file.png>           - Render the dashboard to a PNG")
	fmt.Println("  bgldash log search [term]            - Search the activity log")
	fmt.Println("  bgldash log add <category> <value> [notes]")
	fmt.Println("                                       - Add an activity log entry")
	fmt.Println("  bgldash log delete <id>              - Delete an activity log entry")
	fmt.Println("  bgldash log categories               - List activity log categories")
	fmt.Println("  bgldash profiles                     - List chart profiles")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  BGLDASH_API_URL             - Backend base URL")
	fmt.Println("  BGLDASH_API_TOKEN           - Bearer token")
	fmt.Println("  BGLDASH_REFRESH_INTERVAL    - Auto refresh interval (default 5m)")
	fmt.Println("  BGLDASH_CACHE_PATH          - SQLite cache file (empty disables)")
	fmt.Println("  BGLDASH_NOTIFY              - Desktop notifications (true/false)")
	fmt.Println("  OTEL_EXPORTER_OTLP_ENDPOINT - Trace collector (optional)")
}

// withApp opens the application, restores the cache, loads the user and
// runs fn. Failing to load the user is reported but not fatal.
func withApp(fn func(a *app.App) error) {
	cfg := config.Load()
	logger, err := logging.New(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := a.Restore(ctx); err != nil {
		logger.Warn("cache restore failed", zap.Error(err))
	}

	runErr := fn(a)

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.Close(closeCtx); err != nil {
		logger.Warn("shutdown failed", zap.Error(err))
	}

	if runErr != nil {
		fmt.Printf("Error: %v\n", runErr)
		os.Exit(1)
	}
}

func loadUser(a *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if _, err := a.LoadUser(ctx); err != nil {
		fmt.Printf("  Warning: Could not load user, using cached preferences: %v\n", err)
	}
}

func showStatus(a *app.App) error {
	loadUser(a)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	s := a.RefreshStatus(ctx)
	eff := preferences.ResolveEffective(a.Preferences())
	fmt.Println(formatStatus(s, eff, time.Now()))
	return nil
}

// formatStatus renders a status line such as "↗ 7.2 mmol/L +0.3 (5 minutes ago)".
func formatStatus(s bloodsugar.Status, eff preferences.Effective, now time.Time) string {
	if s.IsEmpty() || s.Bgl == nil {
		return "No recent reading"
	}

	value, err := bloodsugar.ScaleFromCanonical(*s.Bgl, eff.BglUnit)
	if err != nil {
		return err.Error()
	}

	var sb strings.Builder
	if s.Trend != "" {
		sb.WriteString(s.Trend.Arrow() + " ")
	}
	sb.WriteString(bloodsugar.FormatBgl(value, eff.BglUnit) + " " + eff.BglUnit.Label())

	if s.Delta != nil {
		delta, _ := bloodsugar.ScaleFromCanonical(*s.Delta, eff.BglUnit)
		sb.WriteString(" " + bloodsugar.FormatDelta(delta))
	}
	sb.WriteString(" (" + s.RelativeTime(now) + ")")

	if s.IsStale(now) {
		sb.WriteString(" [stale]")
	}
	return sb.String()
}

func watchMode(a *app.App) error {
	fmt.Println("Starting watch mode")
	fmt.Println("Press Ctrl+C to stop, p + Enter to pause or resume auto refresh")
	fmt.Println()

	// Handle Ctrl+C gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	statuses, cancelStatuses := a.Tracker.Subscribe()
	defer cancelStatuses()
	charts, cancelCharts := a.Dashboard.Subscribe()
	defer cancelCharts()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	fmt.Printf("Running. Updates every %s.\n", a.Config.RefreshInterval)

	commands := readCommands(os.Stdin)

	for {
		select {
		case cmd := <-commands:
			if cmd != "p" {
				continue
			}
			if toggleAutoRefresh(a.Coordinator) {
				fmt.Println("Auto refresh resumed")
			} else {
				fmt.Println("Auto refresh paused")
			}
		case s := <-statuses:
			eff := preferences.ResolveEffective(a.Preferences())
			fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), formatStatus(s, eff, time.Now()))
		case c := <-charts:
			glucose := 0
			if s := c.SeriesByKind(dashboard.SeriesGlucose); s != nil {
				glucose = len(s.Points)
			}
			fmt.Printf("[%s] Chart updated: %s, %d points\n", time.Now().Format("15:04:05"), c.Title, glucose)
		case err := <-done:
			cancel()
			return err
		case <-sigChan:
			fmt.Println("\nStopping...")
			cancel()
			return <-done
		}
	}
}

// readCommands delivers trimmed input lines until r is exhausted.
func readCommands(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()
	return lines
}

// toggleAutoRefresh flips auto refresh and returns the new state.
func toggleAutoRefresh(c *refresh.Coordinator) bool {
	enabled := !c.Enabled()
	c.SetEnabled(enabled)
	return enabled
}

func buildChart(a *app.App) (*dashboard.Chart, error) {
	loadUser(a)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	chart, err := a.RefreshChart(ctx)
	if err != nil {
		if cached := a.Dashboard.Current(); cached != nil {
			fmt.Printf("  Warning: %v; showing chart from %s\n", err, cached.GeneratedAt.Local().Format("Jan 2 15:04"))
			return cached, nil
		}
		return nil, err
	}
	return chart, nil
}

func showChart(a *app.App) error {
	chart, err := buildChart(a)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(chart, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func savePreview(a *app.App, path string) error {
	chart, err := buildChart(a)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	s := a.RefreshStatus(ctx)

	frame := render.Frame{Time: time.Now(), Status: s, Chart: chart}
	if err := render.SavePNG(path, frame, render.Options{}); err != nil {
		return err
	}
	fmt.Printf("Preview written to %s\n", path)
	return nil
}

func showProfiles() {
	fmt.Println("Chart profiles:")
	fmt.Println()
	for _, p := range histogram.Profiles() {
		marker := " "
		if p.Type == histogram.DefaultProfileType {
			marker = "*"
		}
		fmt.Printf(" %s %-8s %-9s query %-6s buckets of %s\n",
			marker, p.Type, p.Label, formatPeriod(p.QueryPeriod), formatPeriod(p.BucketWidth()))
	}
	fmt.Println()
	fmt.Println("* default")
}

// formatPeriod renders whole days as "7d" and shorter periods as hours or
// minutes.
func formatPeriod(d time.Duration) string {
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return strconv.Itoa(int(d/(24*time.Hour))) + "d"
	case d >= time.Hour && d%time.Hour == 0:
		return strconv.Itoa(int(d/time.Hour)) + "h"
	default:
		return strconv.Itoa(int(d/time.Minute)) + "m"
	}
}

func activityCommand(a *app.App, args []string) error {
	if len(args) == 0 {
		showUsage()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch args[0] {
	case "search":
		return searchLog(ctx, a, strings.Join(args[1:], " "))
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: bgldash log add <category> <value> [notes]")
		}
		loadUser(a)
		return addLog(ctx, a, args[1:])
	case "categories":
		for _, line := range categoryLines() {
			fmt.Println(line)
		}
		return nil
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: bgldash log delete <id>")
		}
		if err := a.Activity.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[1])
		return nil
	default:
		showUsage()
		return nil
	}
}

func categoryLines() []string {
	var lines []string
	for _, info := range activitylog.Categories() {
		lines = append(lines, fmt.Sprintf("  %-16s %s", info.Category, info.Name))
	}
	return lines
}

func searchLog(ctx context.Context, a *app.App, term string) error {
	params := activitylog.SearchParams{}
	if term != "" {
		params.SearchTerm = &term
	}
	result, err := a.Activity.Search(ctx, params)
	if err != nil {
		return err
	}

	eff := preferences.ResolveEffective(a.Preferences())
	layout := "Jan 2 15:04"
	if eff.TimeFormat == preferences.TimeFormat12 {
		layout = "Jan 2 3:04 PM"
	}

	fmt.Printf("%d entries\n", result.Total)
	for _, e := range result.Entries() {
		info := activitylog.Info(e.Category())
		text := ""
		if e.Details != nil {
			text = e.Details.DisplayText()
		}
		line := fmt.Sprintf("  %s  %-12s %-14s %s", e.Created.Local().Format(layout), info.Name, text, e.ID)
		if e.Notes != nil {
			line += "  " + *e.Notes
		}
		fmt.Println(line)
	}
	return nil
}

func addLog(ctx context.Context, a *app.App, args []string) error {
	category := activitylog.Category(args[0])
	value := ""
	if len(args) > 1 {
		value = args[1]
	}

	eff := preferences.ResolveEffective(a.Preferences())
	details, err := parseDetails(category, value, eff.BglUnit)
	if err != nil {
		return err
	}

	entry := activitylog.Entry{Created: time.Now(), Details: details}
	if len(args) > 2 {
		notes := strings.Join(args[2:], " ")
		entry.Notes = &notes
	}

	created, err := a.Activity.Create(ctx, entry)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s %s (%s)\n", activitylog.Info(category).Name, details.DisplayText(), created.ID)
	return nil
}

// parseDetails builds category details from a single numeric argument.
// Manual readings are taken in the user's display unit.
func parseDetails(category activitylog.Category, value string, unit bloodsugar.Unit) (activitylog.Details, error) {
	if category == activitylog.Other {
		return activitylog.OtherDetails{}, nil
	}

	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q for %s: %w", value, category, err)
	}

	switch category {
	case activitylog.Insulin:
		return activitylog.InsulinDetails{Units: n}, nil
	case activitylog.BasalRateChange:
		return activitylog.BasalRateChangeDetails{Percent: n}, nil
	case activitylog.Food:
		return activitylog.FoodDetails{Carbs: n}, nil
	case activitylog.BglReading:
		return activitylog.BglReadingDetails{Bgl: n, Unit: unit}, nil
	case activitylog.Exercise:
		return activitylog.ExerciseDetails{DurationMins: int(n)}, nil
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
}
