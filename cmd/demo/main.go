// =============================================================================
// DEMO - Interactive Paxos Simulation
// =============================================================================
//
// A menu-driven front end over internal/simulation:
//
//   1. Create node
//   2. Add proposal
//   3. Run simulation
//   4. Show network status
//   5. Create test scenario (3 nodes, 3 competing proposals)
//   6. Exit
//
// Every protocol step is printed as it happens from the event stream; the
// simulation itself never prints.
//
// Usage:
//
//   go run ./cmd/demo -delay 100ms
//   go run ./cmd/demo -delay 20ms -jitter 30ms -exclude-self
//
// Expected result for the test scenario: every node that learns a value
// learns the SAME one, whichever of value_A, value_B or value_C won.
//
// =============================================================================

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/Felipelussi/paxos/internal/event"
	"github.com/Felipelussi/paxos/internal/simulation"
)

func main() {
	cfg := simulation.DefaultConfig()
	flag.DurationVar(&cfg.MessageDelay, "delay", cfg.MessageDelay, "delay before each message delivery")
	flag.DurationVar(&cfg.MessageJitter, "jitter", 0, "random extra delivery delay, shuffles arrival order")
	flag.DurationVar(&cfg.RunTimeout, "timeout", 0, "bound on one run (0 derives it from the delay)")
	flag.BoolVar(&cfg.ExcludeSelf, "exclude-self", false, "do not deliver a node's broadcasts to itself")
	flag.IntVar(&cfg.Retry.MaxAttempts, "attempts", 0, "attempts per proposal before abandoning (0 uses the default)")
	quiet := flag.Bool("quiet", false, "hide per-message protocol events")
	flag.Parse()

	cfg.Logger = log.New(os.Stderr, "", log.LstdFlags)
	if *quiet {
		cfg.Sink = event.Discard
	} else {
		cfg.Sink = &printer{w: os.Stdout}
	}

	if err := (&app{cfg: cfg, in: bufio.NewScanner(os.Stdin), out: os.Stdout}).run(); err != nil {
		log.Fatal(err)
	}
}

type app struct {
	cfg simulation.Config
	sim *simulation.Simulation
	in  *bufio.Scanner
	out io.Writer
}

func (a *app) run() error {
	sim, err := simulation.New(a.cfg)
	if err != nil {
		return err
	}
	a.sim = sim
	defer func() {
		if err := a.sim.Close(); err != nil {
			log.Printf("[demo] close: %v", err)
		}
	}()

	fmt.Fprintln(a.out, "🎯 Welcome to the Paxos simulation!")
	for {
		a.menu()
		choice, ok := a.prompt("Choose an option (1-6): ")
		if !ok {
			return nil
		}
		switch choice {
		case "1":
			a.createNode()
		case "2":
			a.addProposal()
		case "3":
			a.runSimulation()
		case "4":
			writeStatus(a.out, a.sim.Status())
		case "5":
			if err := a.scenario(); err != nil {
				return err
			}
		case "6":
			fmt.Fprintln(a.out, "👋 Goodbye!")
			return nil
		default:
			fmt.Fprintln(a.out, "❌ Invalid choice. Please enter 1-6.")
		}
	}
}

func (a *app) menu() {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, strings.Repeat("=", 40))
	fmt.Fprintln(a.out, "🎛️  Paxos Simulation Menu")
	fmt.Fprintln(a.out, strings.Repeat("=", 40))
	fmt.Fprintln(a.out, "1. Create node")
	fmt.Fprintln(a.out, "2. Add proposal")
	fmt.Fprintln(a.out, "3. Run simulation")
	fmt.Fprintln(a.out, "4. Show network status")
	fmt.Fprintln(a.out, "5. Create test scenario")
	fmt.Fprintln(a.out, "6. Exit")
	fmt.Fprintln(a.out, strings.Repeat("-", 40))
}

func (a *app) prompt(label string) (string, bool) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func (a *app) createNode() {
	id, ok := a.prompt("Enter node ID: ")
	if !ok {
		return
	}
	if err := a.sim.CreateNode(id); err != nil {
		fmt.Fprintf(a.out, "❌ %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "✅ Node %q created\n", id)
}

func (a *app) addProposal() {
	nodes := a.sim.Nodes()
	if len(nodes) == 0 {
		fmt.Fprintln(a.out, "❌ Create nodes first!")
		return
	}
	fmt.Fprintf(a.out, "📋 Available nodes: %v\n", nodes)
	id, ok := a.prompt("Enter proposer node ID: ")
	if !ok {
		return
	}
	value, ok := a.prompt("Enter proposal value: ")
	if !ok {
		return
	}
	if value == "" {
		fmt.Fprintln(a.out, "❌ Empty value")
		return
	}
	if err := a.sim.EnqueueProposal(id, []byte(value)); err != nil {
		fmt.Fprintf(a.out, "❌ %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "✅ Proposal %q added for node %q\n", value, id)
}

func (a *app) runSimulation() {
	fmt.Fprintln(a.out, strings.Repeat("=", 50))
	fmt.Fprintln(a.out, "🚀 Starting Paxos simulation...")
	fmt.Fprintln(a.out, strings.Repeat("=", 50))
	report, err := a.sim.Run(context.Background())
	if err != nil {
		if simulation.IsCallerError(err) {
			fmt.Fprintf(a.out, "❌ %v\n", err)
			return
		}
		log.Printf("[demo] run failed: %v", err)
		return
	}
	writeReport(a.out, report)
}

// scenario replaces the current simulation with the stock competing one.
func (a *app) scenario() error {
	sim, err := simulation.NewCompetingScenario(a.cfg)
	if err != nil {
		return err
	}
	if err := a.sim.Close(); err != nil {
		log.Printf("[demo] close: %v", err)
	}
	a.sim = sim
	fmt.Fprintln(a.out, "✅ Test scenario created:")
	fmt.Fprintln(a.out, "  - 3 nodes: node0, node1, node2")
	fmt.Fprintln(a.out, "  - 3 competing proposals: value_A, value_B, value_C")
	fmt.Fprintln(a.out, "  - Use option 3 to run the simulation")
	return nil
}
