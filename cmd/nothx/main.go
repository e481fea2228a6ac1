package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/adapters/storage"
	"github.com/nothx/nothx/internal/config"
	"github.com/nothx/nothx/internal/core"
	"github.com/nothx/nothx/internal/di"
	"github.com/nothx/nothx/internal/learning"
	"github.com/nothx/nothx/internal/unsubscribe"
	"github.com/nothx/nothx/internal/utils"
)

const usage = `Usage: nothx <command> [flags]

Commands:
  classify   classify senders from a JSON stats file (or stdin)
  correct    record a correction and update the learning profile
  rules      manage user rules (list, add, delete)
  unsub      execute unsubscribe requests from a JSON header file
  summary    show what has been learned from corrections
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	container, err := di.BuildContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build container: %v\n", err)
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "classify":
		err = container.Invoke(func(engine *core.Engine, store core.Store, logger *zap.Logger) error {
			defer logger.Sync()
			defer store.Close()
			return runClassify(args, engine, store)
		})
	case "correct":
		err = container.Invoke(func(store core.Store, logger *zap.Logger) error {
			defer logger.Sync()
			defer store.Close()
			return runCorrect(args, store, logger)
		})
	case "rules":
		err = container.Invoke(func(store core.Store, logger *zap.Logger) error {
			defer logger.Sync()
			defer store.Close()
			return runRules(args, store)
		})
	case "unsub":
		err = container.Invoke(func(u *unsubscribe.Unsubscriber, cfg *config.Config, logger *zap.Logger) error {
			defer logger.Sync()
			return runUnsub(args, u)
		})
	case "summary":
		err = container.Invoke(func(store core.Store, logger *zap.Logger) error {
			defer logger.Sync()
			defer store.Close()
			return runSummary(store)
		})
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runClassify(args []string, engine *core.Engine, store core.Store) error {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	inputFile := fs.String("file", "", "Sender stats JSON file (use stdin if not specified)")
	jsonOut := fs.Bool("json", false, "Output results as JSON")
	save := fs.Bool("save", true, "Persist classifications to storage")
	fs.Parse(args)

	var senders []*core.SenderStats
	if err := readJSONInput(*inputFile, &senders); err != nil {
		return fmt.Errorf("failed to read sender stats: %w", err)
	}
	if len(senders) == 0 {
		return errors.New("no senders to classify")
	}

	ctx := context.Background()
	results := engine.ClassifyBatch(ctx, senders)

	if *save {
		for domain, c := range results {
			if err := store.SaveClassification(ctx, domain, c); err != nil {
				return fmt.Errorf("failed to save classification for %s: %w", domain, err)
			}
		}
	}

	if *jsonOut {
		return json.NewEncoder(os.Stdout).Encode(results)
	}

	domains := make([]string, 0, len(results))
	for d := range results {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	fmt.Printf("%-35s %-8s %-6s %-10s %s\n", "DOMAIN", "ACTION", "CONF", "LAYER", "REASONING")
	for _, d := range domains {
		c := results[d]
		marker := " "
		if engine.ShouldAutoAct(c) {
			marker = "*"
		}
		fmt.Printf("%-35s %-8s %.2f%s %-10s %s\n",
			d, c.Action, c.Confidence, marker, c.Layer, c.Reasoning)
	}
	fmt.Printf("\n%d senders classified (* = eligible for automatic action)\n", len(results))
	return nil
}

func runCorrect(args []string, store core.Store, logger *zap.Logger) error {
	fs := flag.NewFlagSet("correct", flag.ExitOnError)
	domain := fs.String("domain", "", "Sender domain being corrected")
	from := fs.String("from", "", "Action the engine chose")
	to := fs.String("to", "", "Action the user wanted")
	openRate := fs.Float64("open-rate", 0, "Open rate for the sender (0-100)")
	emailCount := fs.Int("count", 0, "Total emails seen from the sender")
	fs.Parse(args)

	if *domain == "" || *from == "" || *to == "" {
		return errors.New("correct requires -domain, -from and -to")
	}
	previous, err := core.ParseAction(*from)
	if err != nil {
		return err
	}
	corrected, err := core.ParseAction(*to)
	if err != nil {
		return err
	}

	correction := core.Correction{
		Domain:     strings.ToLower(*domain),
		Previous:   previous,
		Corrected:  corrected,
		OpenRate:   *openRate,
		EmailCount: *emailCount,
		Keywords:   utils.ExtractKeywords(*domain),
		Timestamp:  time.Now(),
	}

	ctx := context.Background()
	if err := store.RecordCorrection(ctx, correction); err != nil {
		return fmt.Errorf("failed to record correction: %w", err)
	}

	profile, err := store.LoadProfile(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		profile = core.DefaultProfile()
	} else if err != nil {
		return fmt.Errorf("failed to load learning profile: %w", err)
	}

	updated := learning.Update(profile, correction)
	if err := store.SaveProfile(ctx, updated); err != nil {
		return fmt.Errorf("failed to save learning profile: %w", err)
	}

	logger.Info("Recorded correction",
		zap.String("domain", correction.Domain),
		zap.String("from", string(previous)),
		zap.String("to", string(corrected)),
		zap.Int("profile_version", updated.Version))
	fmt.Printf("Recorded %s -> %s for %s (profile v%d)\n",
		previous, corrected, correction.Domain, updated.Version)
	return nil
}

func runRules(args []string, store core.Store) error {
	if len(args) == 0 {
		return errors.New("rules requires a subcommand: list, add or delete")
	}
	ctx := context.Background()

	switch args[0] {
	case "list":
		rules, err := store.Rules(ctx)
		if err != nil {
			return err
		}
		if len(rules) == 0 {
			fmt.Println("No rules defined")
			return nil
		}
		sort.Slice(rules, func(i, j int) bool { return rules[i].Pattern < rules[j].Pattern })
		fmt.Printf("%-35s %-8s %-8s %s\n", "PATTERN", "ACTION", "SCOPE", "CREATED")
		for _, r := range rules {
			fmt.Printf("%-35s %-8s %-8s %s\n",
				r.Pattern, r.Action, r.Scope, r.CreatedAt.Format("2006-01-02"))
		}
		return nil
	case "add":
		fs := flag.NewFlagSet("rules add", flag.ExitOnError)
		pattern := fs.String("pattern", "", "Domain or address pattern, wildcards allowed")
		action := fs.String("action", "", "Action to apply (keep, unsub, block, review)")
		scope := fs.String("scope", "domain", "Pattern scope (domain or address)")
		fs.Parse(args[1:])

		if *pattern == "" || *action == "" {
			return errors.New("rules add requires -pattern and -action")
		}
		parsed, err := core.ParseAction(*action)
		if err != nil {
			return err
		}
		rule := core.Rule{
			Pattern:   strings.ToLower(*pattern),
			Action:    parsed,
			Scope:     core.RuleScope(*scope),
			CreatedAt: time.Now(),
		}
		if err := store.AddRule(ctx, rule); err != nil {
			return err
		}
		fmt.Printf("Added rule %s -> %s\n", rule.Pattern, rule.Action)
		return nil
	case "delete":
		fs := flag.NewFlagSet("rules delete", flag.ExitOnError)
		pattern := fs.String("pattern", "", "Pattern of the rule to delete")
		fs.Parse(args[1:])

		if *pattern == "" {
			return errors.New("rules delete requires -pattern")
		}
		if err := store.DeleteRule(ctx, strings.ToLower(*pattern)); err != nil {
			return err
		}
		fmt.Printf("Deleted rule %s\n", *pattern)
		return nil
	default:
		return fmt.Errorf("unknown rules subcommand: %s", args[0])
	}
}

func runUnsub(args []string, u *unsubscribe.Unsubscriber) error {
	fs := flag.NewFlagSet("unsub", flag.ExitOnError)
	inputFile := fs.String("file", "", "Email header JSON file (use stdin if not specified)")
	jsonOut := fs.Bool("json", false, "Output results as JSON")
	fs.Parse(args)

	var headers []*core.EmailHeader
	if err := readJSONInput(*inputFile, &headers); err != nil {
		return fmt.Errorf("failed to read email headers: %w", err)
	}
	if len(headers) == 0 {
		return errors.New("no headers to process")
	}

	ctx := context.Background()
	results := make(map[string]unsubscribe.Result, len(headers))
	for _, h := range headers {
		results[h.Domain()] = u.Execute(ctx, h)
	}

	if *jsonOut {
		return json.NewEncoder(os.Stdout).Encode(results)
	}
	for domain, res := range results {
		status := "FAILED"
		if res.Success {
			status = "OK"
		}
		fmt.Printf("%-35s %-9s %s %s\n", domain, res.Method, status, res.Detail)
	}
	return nil
}

func runSummary(store core.Store) error {
	profile, err := store.LoadProfile(context.Background())
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Println("No corrections recorded yet")
		return nil
	}
	if err != nil {
		return err
	}

	summary := learning.Summarize(profile)
	fmt.Printf("Profile version %d, updated %s\n",
		profile.Version, profile.UpdatedAt.Format("2006-01-02"))
	fmt.Printf("Open rate importance: %s (weight %.2f, %d samples)\n",
		summary.OpenRateImportance, profile.OpenRateWeight, profile.OpenRateSamples)
	fmt.Printf("Volume sensitivity:   %s (weight %.2f, %d samples)\n",
		summary.VolumeSensitivity, profile.VolumeWeight, profile.VolumeSamples)
	if len(summary.Keywords) == 0 {
		fmt.Println("No keyword preferences learned yet")
		return nil
	}
	fmt.Println("Keyword preferences:")
	for _, k := range summary.Keywords {
		fmt.Printf("  %-20s %s %s (%d samples)\n", k.Keyword, k.Strength, k.Tendency, k.Samples)
	}
	return nil
}

func readJSONInput(path string, out interface{}) error {
	var r io.Reader
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	} else {
		r = os.Stdin
	}
	return json.NewDecoder(r).Decode(out)
}
