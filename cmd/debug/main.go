package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jwulff/bgldash/internal/api"
	"github.com/jwulff/bgldash/internal/config"
	"github.com/jwulff/bgldash/internal/dashboard"
	"github.com/jwulff/bgldash/internal/histogram"
	"github.com/jwulff/bgldash/internal/preferences"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: debug <profile> [send]")
		os.Exit(1)
	}
	profile := histogram.ProfileType(os.Args[1])
	if !histogram.Known(profile) {
		fmt.Printf("Unknown profile %q, using %s\n", profile, histogram.DefaultProfileType)
	}

	eff := preferences.ResolveEffective(preferences.Preferences{
		Dashboard: &preferences.Dashboard{
			BglStatsHistogram: &preferences.HistogramOptions{ProfileType: &profile},
		},
	})
	req := dashboard.NewBuilder(nil, nil, nil).StatsRequest(eff)

	data, _ := json.MarshalIndent(req, "", "  ")
	fmt.Println("Request structure:")
	fmt.Printf("  QueryFrom: %s\n", req.QueryFrom.Format(time.RFC3339))
	fmt.Printf("  QueryTo: %s\n", req.QueryTo.Format(time.RFC3339))
	fmt.Printf("  Bucket: %d %s\n", req.BucketTimeFactor, req.BucketTimeUnit)
	fmt.Printf("  MovingAverage: %s window=%d period=%d minimize=%t\n",
		req.MovingAverage.ModelType, req.MovingAverage.Window, req.MovingAverage.Period, req.MovingAverage.Minimize)
	fmt.Printf("  Full JSON size: %d bytes\n", len(data))
	fmt.Println()
	fmt.Println(string(data))

	if len(os.Args) < 3 || os.Args[2] != "send" {
		return
	}

	cfg := config.Load()
	client := api.NewClient(cfg.APIURL, api.StaticToken(cfg.APIToken))
	fmt.Printf("\nSending to %s/bgl/accountStatsHistogram...\n", cfg.APIURL)

	ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
	defer cancel()

	buckets, err := client.AccountStatsHistogram(ctx, req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	withValue := 0
	for _, b := range buckets {
		if b.Average != nil {
			withValue++
		}
	}
	fmt.Printf("Buckets: %d (%d with a value)\n", len(buckets), withValue)
}
