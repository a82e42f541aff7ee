package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voicepost/voicepost/config"
	"github.com/voicepost/voicepost/internal/api"
	"github.com/voicepost/voicepost/internal/cache"
	"github.com/voicepost/voicepost/internal/models"
	"github.com/voicepost/voicepost/internal/store"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Configuration error: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	kv, err := cache.NewFileStore(cfg.StateFile)
	if err != nil {
		logrus.Fatalf("Failed to open local state: %v", err)
	}
	state := cache.NewStateStore(kv)

	client := api.NewClient(cfg.APIBaseURL, state, cfg.CRUDTimeout, cfg.AITimeout)
	drafts := store.New(client.Drafts(), client.Pipeline(), client.Publish(), state)

	ctx := context.Background()
	if err := run(ctx, drafts, state, flag.Args()); err != nil {
		logrus.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: voicepost <command> [args]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  login <token>             store the API bearer token")
	fmt.Fprintln(os.Stderr, "  list [all|draft|scheduled|published]")
	fmt.Fprintln(os.Stderr, "  stats                     show per-user counters")
	fmt.Fprintln(os.Stderr, "  tone <id> <tone>          regenerate a draft in a new tone")
	fmt.Fprintln(os.Stderr, "  schedule <id> <RFC3339>   schedule a draft")
	fmt.Fprintln(os.Stderr, "  unschedule <id>")
	fmt.Fprintln(os.Stderr, "  publish <id>              publish immediately")
	fmt.Fprintln(os.Stderr, "  delete <id>")
}

func run(ctx context.Context, drafts *store.Store, state *cache.StateStore, args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("no command given")
	}

	switch args[0] {
	case "login":
		if len(args) < 2 {
			return fmt.Errorf("usage: login <token>")
		}
		if err := state.SetAuthToken(args[1]); err != nil {
			return err
		}
		fmt.Println("Signed in.")
		return nil

	case "list":
		filter := models.FilterAll
		if len(args) > 1 {
			filter = models.DraftFilter(args[1])
		}
		err := drafts.FetchDrafts(ctx, &filter)
		listed := drafts.FilteredDrafts()
		if err != nil && len(listed) == 0 {
			return err
		}
		if err != nil {
			fmt.Printf("(offline, showing cached drafts: %s)\n", drafts.Err())
		}
		for _, d := range listed {
			fmt.Printf("%-36s  %-10s  %-14s  %s\n", d.ID, d.Status, d.Tone, d.Title)
		}
		return nil

	case "stats":
		if err := drafts.RefreshStats(ctx); err != nil {
			return err
		}
		stats := drafts.Stats()
		fmt.Printf("Drafts: %d  Scheduled: %d  Published: %d\n",
			stats.TotalDrafts, stats.ScheduledPosts, stats.PublishedPosts)
		return nil

	case "tone":
		if len(args) < 3 {
			return fmt.Errorf("usage: tone <id> <tone>")
		}
		if err := drafts.FetchDrafts(ctx, nil); err != nil {
			return err
		}
		updated, err := drafts.UpdateDraftTone(ctx, args[1], models.Tone(args[2]))
		if err != nil {
			return err
		}
		fmt.Println(updated.DisplayText())
		return nil

	case "schedule":
		if len(args) < 3 {
			return fmt.Errorf("usage: schedule <id> <RFC3339 time>")
		}
		at, err := time.Parse(time.RFC3339, args[2])
		if err != nil {
			return fmt.Errorf("invalid time: %w", err)
		}
		if err := drafts.FetchDrafts(ctx, nil); err != nil {
			return err
		}
		if _, err := drafts.ScheduleDraft(ctx, args[1], at); err != nil {
			return err
		}
		fmt.Printf("Scheduled for %s.\n", at.Format(time.RFC1123))
		return nil

	case "unschedule":
		if len(args) < 2 {
			return fmt.Errorf("usage: unschedule <id>")
		}
		if err := drafts.FetchDrafts(ctx, nil); err != nil {
			return err
		}
		if _, err := drafts.UnscheduleDraft(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("Unscheduled.")
		return nil

	case "publish":
		if len(args) < 2 {
			return fmt.Errorf("usage: publish <id>")
		}
		if err := drafts.FetchDrafts(ctx, nil); err != nil {
			return err
		}
		published, err := drafts.PublishDraft(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Published at %s.\n", published.PublishedAt.Format(time.RFC1123))
		return nil

	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: delete <id>")
		}
		if err := drafts.DeleteDraft(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}
