package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/whatson-app/whatson-cli/internal/api"
	"github.com/whatson-app/whatson-cli/internal/cache"
	"github.com/whatson-app/whatson-cli/internal/config"
	"github.com/whatson-app/whatson-cli/internal/helpers"
	"github.com/whatson-app/whatson-cli/internal/list"
	"github.com/whatson-app/whatson-cli/internal/model"
	"github.com/whatson-app/whatson-cli/internal/query"
	"github.com/whatson-app/whatson-cli/internal/town"
	"github.com/whatson-app/whatson-cli/internal/ui"
)

func init() {
	model.ArgsDescriptionFunc = argsDescription
}

func argsDescription() string {
	return fmt.Sprintf(`%swhatson%s — find local events from your terminal.

  whatson kids this weekend          search the resolved town
  whatson -t soho live music tonight search an explicit town
  whatson towns [>N]                 list the active town directory
  whatson home [slug]                show or set your home town
  whatson watch                      interactive follow mode
`, ui.ColorBold, ui.ColorReset)
}

func main() {
	cfg, args, err := config.ParseCfg()
	if err != nil {
		helpers.HandleErr("Failed to load config", err, true)
	}

	if logPath, err := cache.APILogPath(); err == nil {
		// A broken log file only disables logging, never the CLI.
		_ = api.InitAPILogger(logPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *model.Config, args *model.Args) error {
	words := args.Words
	command := ""
	if len(words) > 0 {
		command = strings.ToLower(words[0])
	}

	switch command {
	case "towns":
		filter := ""
		if len(words) > 1 {
			filter = words[1]
		}
		return list.ListTowns(ctx, cfg.APIBase, cfg.JSONLevel, filter, nil)
	case "home":
		slug := ""
		if len(words) > 1 {
			slug = words[1]
		}
		return homeCommand(ctx, cfg, slug)
	case "watch":
		return watchCommand(ctx, cfg, args)
	default:
		return searchCommand(ctx, cfg, args, strings.Join(words, " "))
	}
}

// resolveTown runs the resolution cascade for this invocation.
func resolveTown(ctx context.Context, cfg *model.Config, args *model.Args) model.TownContext {
	resolver := town.NewResolver(cfg.APIBase)
	if args.NoDetect {
		resolver.Deps.LookupIP = nil
	}
	return resolver.Resolve(ctx, args.Town, cfg.HomeTown)
}

// newSession builds a query session, overlaying keywords.yaml when present.
func newSession(ctx context.Context, cfg *model.Config, tc model.TownContext, args *model.Args, text string) *query.Session {
	session := query.NewSession(ctx, cfg, tc)
	if overrides, err := config.LoadKeywordOverrides(); err == nil && len(overrides) > 0 {
		session.SetClassifier(query.NewClassifier(overrides))
	}
	if args.TimeWindow != "" {
		if w := model.ParseTimeWindow(args.TimeWindow); w != model.TimeWindowUnknown {
			session.SetTimeWindow(w, text)
		} else {
			ui.PrintWarning(fmt.Sprintf("Unknown time window %q, inferring from the query instead", args.TimeWindow))
		}
	}
	return session
}

func searchCommand(ctx context.Context, cfg *model.Config, args *model.Args, text string) error {
	tc := resolveTown(ctx, cfg, args)
	session := newSession(ctx, cfg, tc, args, text)

	res, err := session.Search(ctx, text)
	if err != nil {
		return err
	}

	if cfg.JSONLevel != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	townName := res.Town.Name
	if townName == "" {
		townName = tc.Name
	}
	ui.PrintTown(fmt.Sprintf("%s (%s) %s %s", townName, ui.DescribeTownSource(tc), ui.SymbolArrow, res.Window.Label()))
	list.RenderResult(res, resultLocation(res, cfg), time.Now())
	return nil
}

func watchCommand(ctx context.Context, cfg *model.Config, args *model.Args) error {
	tc := resolveTown(ctx, cfg, args)
	session := newSession(ctx, cfg, tc, args, "")

	done := make(chan struct{}, 1)
	session.OnResult = func(res query.Result) {
		list.RenderResult(res, resultLocation(res, cfg), time.Now())
		select {
		case done <- struct{}{}:
		default:
		}
	}
	session.OnError = func(err error) {
		ui.PrintError(err.Error())
		select {
		case done <- struct{}{}:
		default:
		}
	}

	ui.PrintTown(fmt.Sprintf("%s (%s)", tc.Name, ui.DescribeTownSource(tc)))
	ui.PrintInfo("Type a query and press Enter. Ctrl-D quits.")

	scanner := bufio.NewScanner(os.Stdin)
	pending := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		session.SetText(scanner.Text())
		pending++
		// Drain results that already arrived so output interleaves sanely.
		for {
			select {
			case <-done:
				pending--
				continue
			default:
			}
			break
		}
	}

	// Give the trailing debounce dispatch a chance to land before exit.
	if pending > 0 {
		select {
		case <-done:
		case <-time.After(query.DefaultDebounce + api.GeoTimeout):
		case <-ctx.Done():
		}
	}
	return scanner.Err()
}

func homeCommand(ctx context.Context, cfg *model.Config, rawSlug string) error {
	if rawSlug == "" {
		if cfg.HomeTown == "" {
			ui.PrintInfo("No home town set. Set one with: whatson home <slug>")
		} else {
			ui.PrintTown(fmt.Sprintf("Home town: %s (%s)", helpers.TitleCase(cfg.HomeTown), cfg.HomeTown))
		}
		if meta, err := cache.ReadZonesMeta(); err == nil {
			ui.PrintInfo(list.DescribeCacheAge(meta))
		}
		return nil
	}

	slug := helpers.SanitizeSlug(rawSlug)
	if slug == "" {
		return fmt.Errorf("invalid town slug %q", rawSlug)
	}

	cfg.HomeTown = slug
	cfg.HomeTownID = 0
	// Best effort: resolve the directory id for the slug, matching what the
	// upstream apps persist. A directory failure does not block the save.
	if zones, err := api.FetchActiveZones(ctx, cfg.APIBase); err == nil {
		found := false
		for _, z := range zones {
			if z.Slug == slug {
				cfg.HomeTownID = z.ID
				found = true
				break
			}
		}
		if !found {
			ui.PrintWarning(fmt.Sprintf("%q is not in the town directory; saving anyway", slug))
		}
	}

	if err := config.WriteConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	ui.PrintSuccess(fmt.Sprintf("Home town set to %s", helpers.TitleCase(slug)))
	return nil
}

// resultLocation loads the timezone the backend reported for the town,
// falling back to the configured default.
func resultLocation(res query.Result, cfg *model.Config) *time.Location {
	name := res.Town.Timezone
	if name == "" {
		name = cfg.FallbackTimezone
	}
	tz, err := time.LoadLocation(name)
	if err != nil {
		tz, _ = time.LoadLocation(model.DefaultTimezone)
	}
	return tz
}
