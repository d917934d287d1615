package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	fetch "github.com/fetchplan/fetchplan"
	"github.com/fetchplan/fetchplan/internal/eventbus"
	"github.com/fetchplan/fetchplan/internal/events"
	"github.com/fetchplan/fetchplan/internal/otel"
	"github.com/fetchplan/fetchplan/internal/pool"
)

const rootUsage = `fetchplan — declarative, batched, dedup'd data fetching

USAGE:
  fetchplan <command> [flags]

COMMANDS:
  demo   Run a built-in social-graph fetch tree and print the result
  help   Show help for any command
`

const demoUsage = `demo FLAGS:
  -workers <n>          Bounded worker pool size; 0 means unbounded (default: 0)
  -otel.endpoint <addr> OTLP collector endpoint
  -otel.service <name>  OpenTelemetry service name (default: fetchplan-demo)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("fetchplan", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer))
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	switch cmd := remaining[0]; cmd {
	case "demo":
		return cmdDemo(remaining[1:])
	case "help":
		return cmdHelp(remaining[1:])
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "demo":
		fmt.Print(demoUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

// dispatchEvent is one line of the demo's printed dispatch trace.
type dispatchEvent struct {
	SourceName string `json:"sourceName"`
	MissCount  int    `json:"missCount"`
	Batched    bool   `json:"batched"`
	DurationMS int64  `json:"durationMs"`
	Err        string `json:"err,omitempty"`
}

type demoReport struct {
	Result   any                       `json:"result"`
	Cache    map[string]map[string]any `json:"cache"`
	Dispatch []dispatchEvent           `json:"dispatch"`
}

func cmdDemo(args []string) error {
	workers := 0
	otelEndpoint := ""
	otelService := "fetchplan-demo"

	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.IntVar(&workers, "workers", workers, "bounded worker pool size")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, demoUsage)
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	var trace []dispatchEvent
	eventbus.Subscribe(func(ctx context.Context, e events.DispatchFinish) {
		de := dispatchEvent{
			SourceName: e.SourceName,
			MissCount:  e.MissCount,
			Batched:    e.Batched,
			DurationMS: e.Duration.Milliseconds(),
		}
		if e.Err != nil {
			de.Err = e.Err.Error()
		}
		trace = append(trace, de)
	})

	var executor pool.Executor = pool.Unbounded{}
	if workers > 0 {
		p := pool.NewPool(workers)
		defer p.Close()
		executor = p
	}

	ast := buildSocialGraphDemo()
	res, err := fetch.Execute(context.Background(), ast, fetch.Options{Executor: executor})
	if err != nil {
		return fmt.Errorf("demo run: %w", err)
	}

	report := demoReport{
		Result:   res.Value,
		Cache:    stringifyCache(res.Cache.Snapshot()),
		Dispatch: trace,
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// stringifyCache renders the cache's (sourceName -> identity -> value) map
// with identities coerced to strings, so it round-trips cleanly through
// encoding/json regardless of their underlying Go type.
func stringifyCache(snap map[string]map[any]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(snap))
	for sourceName, byID := range snap {
		inner := make(map[string]any, len(byID))
		for id, v := range byID {
			inner[fmt.Sprintf("%v", id)] = v
		}
		out[sourceName] = inner
	}
	return out
}

// friendsOf, activityScore, and pet build a small social graph where
// friendsOf(n) yields {0,...,n-1}, activityScore is batched, and pet is
// conditional on the friend's id being even.
type friendsOf struct{ id int }

func (f friendsOf) SourceName() string { return "FriendsOf" }
func (f friendsOf) Identity() any      { return f.id }
func (f friendsOf) Fetch(ctx context.Context, env any) (any, error) {
	xs := make([]any, f.id)
	for i := 0; i < f.id; i++ {
		xs[i] = i
	}
	return xs, nil
}

type activityScore struct{ id int }

func (a activityScore) SourceName() string { return "ActivityScore" }
func (a activityScore) Identity() any      { return a.id }
func (a activityScore) Fetch(ctx context.Context, env any) (any, error) {
	return a.id + 1, nil
}
func (a activityScore) FetchMulti(ctx context.Context, sources []fetch.DataSource, env any) (map[any]any, error) {
	out := make(map[any]any, len(sources))
	for _, ds := range sources {
		id := ds.Identity().(int)
		out[id] = id + 1
	}
	return out, nil
}

type pet struct{ owner int }

func (p pet) SourceName() string { return "Pet" }
func (p pet) Identity() any      { return p.owner }
func (p pet) Fetch(ctx context.Context, env any) (any, error) {
	return "dog", nil
}

func buildSocialGraphDemo() fetch.Node {
	return fetch.Bind(func(v any) fetch.Node {
		xs := v.([]any)
		ids := make([]int, len(xs))
		for i, x := range xs {
			ids[i] = x.(int)
		}
		sort.Ints(ids)

		children := make([]fetch.Node, 0, len(ids)*2)
		for _, id := range ids {
			children = append(children, fetch.Source(activityScore{id: id}))
			if id%2 == 0 {
				children = append(children, fetch.Source(pet{owner: id}))
			} else {
				children = append(children, fetch.Value("no-pet"))
			}
		}
		return fetch.Collect(children)
	}, fetch.Source(friendsOf{id: 5}))
}
