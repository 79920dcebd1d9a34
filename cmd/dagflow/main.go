// Command dagflow is the out-of-core demo entry point for the engine: it
// loads a declarative `.bgf` graph definition and a JSON batch-seed file,
// builds and runs the graph, and prints the root list and the cell count of
// each node's per-batch outputs to the terminal (spec.md §1 excludes demo entry points from
// the core itself).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/gookit/color"
	"github.com/mitchellh/go-wordwrap"
	"github.com/vmihailenco/msgpack/v5"
	"resty.dev/v3"

	"github.com/vk/dagflow/internal/batch"
	"github.com/vk/dagflow/internal/cell"
	"github.com/vk/dagflow/internal/config"
	"github.com/vk/dagflow/internal/executor"
	"github.com/vk/dagflow/internal/graph"
	"github.com/vk/dagflow/internal/graphbuild"
	"github.com/vk/dagflow/internal/offload"
	"github.com/vk/dagflow/internal/registry"
	"github.com/vk/dagflow/internal/telemetry"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: dagflow <run|describe> --graph FILE [--batches FILE] [--workers N]")
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(os.Args[2:])
	case "describe":
		err = describeCmd(os.Args[2:])
	default:
		err = fmt.Errorf("unknown subcommand %q", os.Args[1])
	}
	if err != nil {
		color.Red.Println(wordwrap.WrapString(err.Error(), 100))
		os.Exit(1)
	}
}

func loadGraph(ctx context.Context, graphPath, deviceEndpoint string) (*graph.Graph, map[string]int, error) {
	m, err := config.Load(ctx, graphPath)
	if err != nil {
		return nil, nil, err
	}
	reg := registry.New()
	builtinOps(reg)
	if deviceEndpoint != "" {
		reg.Register("remote", offload.Remote(ctx, resty.New(), deviceEndpoint))
	}
	return graphbuild.Build(ctx, m, reg)
}

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	graphPath := fs.String("graph", "", "path to the .bgf graph definition")
	batchesPath := fs.String("batches", "", "path to a JSON batch-seed file")
	workers := fs.Int("workers", 0, "worker pool size (0 = GOMAXPROCS)")
	telemetryURL := fs.String("telemetry", "", "optional socket.io dashboard URL to stream task state to")
	deviceEndpoint := fs.String("device-endpoint", "", "optional HTTP endpoint backing the \"remote\" device-offload op")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *graphPath == "" || *batchesPath == "" {
		return fmt.Errorf("--graph and --batches are required")
	}

	ctx := context.Background()
	g, ids, err := loadGraph(ctx, *graphPath, *deviceEndpoint)
	if err != nil {
		return err
	}

	inputs, err := loadBatches(*batchesPath)
	if err != nil {
		return err
	}

	opts := []executor.Option{}
	if *workers > 0 {
		opts = append(opts, executor.WithWorkers(*workers))
	}
	if *telemetryURL != "" {
		emitter, err := telemetry.Dial(ctx, *telemetryURL, false)
		if err != nil {
			return fmt.Errorf("connecting telemetry dashboard: %w", err)
		}
		defer emitter.Close()
		opts = append(opts, executor.WithObserver(emitter))
	}
	ex := executor.New(g, inputs, opts...)

	color.Cyan.Println(g.DescribeRoots())
	if err := ex.Run(ctx); err != nil {
		return err
	}

	printResults(g, ids, len(inputs))
	return nil
}

func describeCmd(args []string) error {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	graphPath := fs.String("graph", "", "path to the .bgf graph definition")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *graphPath == "" {
		return fmt.Errorf("--graph is required")
	}

	ctx := context.Background()
	g, ids, err := loadGraph(ctx, *graphPath, "")
	if err != nil {
		return err
	}

	doc := describeDoc{Roots: g.GetRootNodes()}
	names := make([]string, len(ids))
	for name, id := range ids {
		names[id] = name
	}
	for id, name := range names {
		doc.Nodes = append(doc.Nodes, describeNode{
			ID:         id,
			Name:       name,
			Successors: g.Successors(id),
		})
	}

	enc, err := msgpack.Marshal(doc)
	if err != nil {
		return fmt.Errorf("describe: encoding topology: %w", err)
	}
	_, err = os.Stdout.Write(enc)
	return err
}

// describeDoc is the static topology export written by `describe` — node
// ids/names/successors and the root list, for piping to external tooling.
// Never used to persist or resume execution state (Non-goal (b)).
type describeDoc struct {
	Nodes []describeNode `msgpack:"nodes"`
	Roots []int          `msgpack:"roots"`
}

type describeNode struct {
	ID         int    `msgpack:"id"`
	Name       string `msgpack:"name"`
	Successors []int  `msgpack:"successors"`
}

// loadBatches reads a JSON array of per-batch seed maps (port name to a
// flat array of float64 cell values) into the executor's input shape.
func loadBatches(path string) ([]map[string]batch.MiniBatch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch-seed file: %w", err)
	}

	var decoded []map[string][]float64
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parsing batch-seed file: %w", err)
	}

	out := make([]map[string]batch.MiniBatch, len(decoded))
	for i, seed := range decoded {
		mbs := make(map[string]batch.MiniBatch, len(seed))
		for port, vals := range seed {
			mb := batch.New()
			for _, v := range vals {
				mb.Append(cell.NewFloat64(v))
			}
			mbs[port] = mb
		}
		out[i] = mbs
	}
	return out, nil
}

func printResults(g *graph.Graph, ids map[string]int, numBatches int) {
	names := make([]string, len(ids))
	for name, id := range ids {
		names[id] = name
	}

	for id, name := range names {
		n := g.Node(id)
		for _, port := range sortedStrings(n.Outputs()) {
			for b := 0; b < numBatches; b++ {
				mb := g.GetOutputBatch(id, b, port)
				color.Green.Printf("node=%s port=%s batch=%d len=%d\n", name, port, b, mb.Len())
			}
		}
	}
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
