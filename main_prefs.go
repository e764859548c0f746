package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"inspiria/prefs"
)

func runPrefs(ctx context.Context, cfg Config, args []string) error {
	fs := flag.NewFlagSet("prefs", flag.ContinueOnError)
	theme := fs.String("theme", "", "set the theme: dark or light")
	onboarded := fs.String("onboarded", "", "set the onboarding flag: true or false")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if *theme != "" {
		if err := store.SetTheme(ctx, prefs.Theme(*theme)); err != nil {
			return err
		}
	}
	if *onboarded != "" {
		done, err := strconv.ParseBool(*onboarded)
		if err != nil {
			return fmt.Errorf("-onboarded: %w", err)
		}
		if err := store.SetOnboarded(ctx, done); err != nil {
			return err
		}
	}

	snap, err := store.Load(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
