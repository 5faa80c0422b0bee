package cortex

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// Task drives a multi-run experiment: it owns the worker pool, the
// history recorder and the solved latch, and loops runs and epochs over
// an Env. The first worker to observe the target fitness on the final
// stage sets the solved flag and stops the pool; the remaining workers
// finish their current evaluation and observe the flag.
type Task struct {
	ctx     *Context
	env     *Env
	history History

	solved atomic.Bool
	champ  atomic.Pointer[Network]
}

// NewTask wires a task from a validated configuration and the
// user-supplied evaluator.
func NewTask(conf *Conf, evaluate Evaluator) (*Task, error) {
	if conf == nil {
		return nil, errf("task setup failed: no configuration")
	}
	if evaluate == nil {
		return nil, errf("task setup failed: no evaluator")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	t := &Task{}
	t.ctx = NewContext(conf)
	t.ctx.Evaluate = evaluate
	t.ctx.Pool = NewPool(conf.Task.Threads)
	t.ctx.OnSolved = t.markSolved
	t.env = NewEnv(t.ctx)
	return t, nil
}

// Env exposes the environment, chiefly for tests and custom loops.
func (t *Task) Env() *Env {
	return t.env
}

// History exposes the recorded history.
func (t *Task) History() *History {
	return &t.history
}

// Solved reports whether the current run has been solved.
func (t *Task) Solved() bool {
	return t.solved.Load()
}

// Champion returns the network that solved the run, or the best
// network seen during the last calibration.
func (t *Task) Champion() *Network {
	if champ := t.champ.Load(); champ != nil {
		return champ
	}
	return t.env.Champ
}

// markSolved latches the solved flag. The first caller wins and stops
// the pool; inflight evaluations drain normally.
func (t *Task) markSolved(net *Network) {
	if t.solved.CompareAndSwap(false, true) {
		t.champ.Store(net)
		t.ctx.Pool.Stop()
	}
}

// Execute runs the configured number of runs, each up to the epoch cap
// or until solved, and prints the history summary.
func (t *Task) Execute() {
	conf := t.ctx.Conf

	for run := 1; run <= conf.Task.Runs; run++ {
		fmt.Printf("==============[ Run %d/%d ]==============\n", run, conf.Task.Runs)

		t.solved.Store(false)
		t.champ.Store(nil)
		t.ctx.Pool.Resume()
		t.history.NewRun()

		if err := t.env.Initialise(); err != nil {
			// The run is abandoned; the history records zero successes.
			fmt.Fprintf(os.Stderr, "Run %d abandoned: %v\n", run, err)
			t.history.Add(SuccessRate, 0)
			t.history.Add(Epochs, 0)
			t.history.Add(Evaluations, 0)
			continue
		}

		startEvals := t.ctx.Pool.TasksCompleted()
		epoch := 0
		for epoch < conf.Task.Epochs {
			epoch++
			if conf.Task.Verbose {
				fmt.Printf("==========[ Generation %d ]==========\n", epoch)
			}

			t.env.Evaluate()
			if t.Solved() {
				break
			}

			t.env.Evolve()

			nets, species, layers, nodes, links := t.env.Counts()
			t.history.Add(NetCount, float64(nets))
			t.history.Add(SpeciesCount, float64(species))
			t.history.Add(LayerCount, layers)
			t.history.Add(NodeCount, nodes)
			t.history.Add(LinkCount, links)
		}

		success := 0.0
		if t.Solved() {
			success = 1.0
			fmt.Printf("Run %d solved in %d epochs.\n", run, epoch)
		} else {
			fmt.Printf("Run %d not solved within %d epochs.\n", run, conf.Task.Epochs)
		}
		t.history.Add(SuccessRate, success)
		t.history.Add(Epochs, float64(epoch))
		t.history.Add(Evaluations, float64(t.ctx.Pool.TasksCompleted()-startEvals))

		if conf.Task.Champion != "" {
			if err := t.DumpChampion(conf.Task.Champion); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}
	}

	t.history.Print(os.Stdout)
	if conf.Task.History != "" {
		var err error
		if strings.EqualFold(filepath.Ext(conf.Task.History), ".json") {
			err = t.history.WriteJSON(conf.Task.History)
		} else {
			err = t.history.WriteCSV(conf.Task.History)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
}

// Close shuts the worker pool down.
func (t *Task) Close() {
	t.ctx.Pool.Close()
}

// DumpChampion writes the champion network as JSON. The schema is
// implementation-defined; stability is not a contract.
func (t *Task) DumpChampion(path string) error {
	champ := t.Champion()
	if champ == nil {
		return errf("no champion to dump")
	}
	data, err := json.MarshalIndent(championDoc(champ), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode champion: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write champion to '%s': %w", path, err)
	}
	return nil
}

// championDoc flattens a network into a serialisable document.
func championDoc(net *Network) map[string]any {
	layers := make([]map[string]any, 0, len(net.Layers))
	for _, layer := range net.Layers {
		nodes := make([]map[string]any, 0, len(layer.Nodes))
		for _, node := range layer.Nodes {
			links := make([]map[string]any, 0, len(node.sources))
			for src, lnk := range node.sources {
				links = append(links, map[string]any{
					"source": src.ID(),
					"type":   lnk.Type,
					"weight": lnk.Weight.Value,
				})
			}
			nodes = append(nodes, map[string]any{
				"role":     node.Role.String(),
				"transfer": node.TF,
				"tau":      node.Tau.Value,
				"links":    links,
			})
		}
		layers = append(layers, map[string]any{
			"type":  layer.Def.Type,
			"fixed": layer.Def.Fixed,
			"nodes": nodes,
		})
	}
	return map[string]any{
		"id":      net.ID,
		"age":     net.Age,
		"fitness": net.Fitness.Abs.Value,
		"layers":  layers,
	}
}

// Main is a CLI entry point for programs built on the package: -c loads
// a configuration, -g writes a defaults document and exits. Exit code
// 0 on success, non-zero on configuration errors, with every failed
// check reported to standard error.
func Main(args []string, evaluate Evaluator) int {
	fs := flag.NewFlagSet("cortex", flag.ContinueOnError)
	confPath := fs.String("c", "config.json", "configuration file to load")
	genPath := fs.String("g", "", "write a defaults document to this path and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *genPath != "" {
		conf := &Conf{}
		conf.Defaults()
		if err := conf.Save(*genPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("Configuration saved successfully to %s\n", *genPath)
		return 0
	}

	conf, err := LoadConf(*confPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	task, err := NewTask(conf, evaluate)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer task.Close()

	task.Execute()
	return 0
}
