package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/existential-ai/axon-sdk/simulator"
	"github.com/existential-ai/axon-sdk/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stick",
		Short:         "Predictive event-driven STICK spiking-network simulator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd(), newEncodeCmd(), newDecodeCmd(), newRunsCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		circuit    string
		value      float64
		configPath string
		dbPath     string
		verbose    bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a named circuit through the predictive engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := simulator.DefaultConfig()
			if configPath != "" {
				var err error
				config, err = simulator.LoadConfig(configPath)
				if err != nil {
					return err
				}
			}

			encoder := simulator.NewDataEncoder()
			var net *simulator.Network
			var input *simulator.ExplicitNeuron
			var constNet *simulator.SignedConstantNetwork

			switch circuit {
			case "relay":
				relay := simulator.NewRelayNetwork("relay")
				net, input = relay.Network, relay.Input
			case "signed_constant":
				constNet = simulator.NewSignedConstantNetwork("const", encoder, value)
				net, input = constNet.Network, constNet.Recall
			default:
				return fmt.Errorf("unknown circuit: %q (must be 'relay' or 'signed_constant')", circuit)
			}

			sim, err := simulator.NewPredictiveSimulator(net, encoder, config)
			if err != nil {
				return err
			}
			if verbose {
				sim.LogEvent = func(msg string) { log.Println(msg) }
			}

			sim.ApplyInputSpike(input, 0)
			sim.Run()

			if err := printSpikeLog(cmd, sim.SpikeLog(), jsonOut); err != nil {
				return err
			}
			if constNet != nil {
				if decoded, ok := constNet.DecodeOutput(sim.Spikes(constNet.Output())); ok {
					fmt.Fprintf(cmd.OutOrStdout(), "decoded value: %.4f (stored %.4f)\n", decoded, constNet.Value())
				}
			}

			metrics := sim.Metrics()
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d events in %d batches, %d canceled, virtual time %.3f ms\n",
				metrics.EventsProcessed, metrics.BatchesProcessed, metrics.EventsCanceled, metrics.VirtualTime)

			if dbPath != "" {
				store := storage.NewSQLiteStore(dbPath)
				ctx := context.Background()
				if err := store.Init(ctx); err != nil {
					return err
				}
				defer store.Close()
				run := storage.NewRun(circuit, value, config.DT, sim.SpikeLog())
				if err := store.SaveRun(ctx, run); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved run %s to %s\n", run.ID, dbPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&circuit, "circuit", "signed_constant", "Circuit to run ('relay' or 'signed_constant')")
	cmd.Flags().Float64Var(&value, "value", 0.5, "Stored value in [-1,1] for signed_constant")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML simulation config")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file to persist the run (optional)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log engine events")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the spike log as JSON")
	return cmd
}

func printSpikeLog(cmd *cobra.Command, spikes map[string][]float64, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(spikes)
	}
	uids := make([]string, 0, len(spikes))
	for uid := range spikes {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	for _, uid := range uids {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", uid, spikes[uid])
	}
	return nil
}

func newEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <value>",
		Short: "Show the spike-pair temporal code for a value in [0,1]",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value float64
			if _, err := fmt.Sscanf(args[0], "%g", &value); err != nil {
				return fmt.Errorf("invalid value: %q", args[0])
			}
			offsets, err := simulator.NewDataEncoder().EncodeValue(value)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "spikes at t=%.3f and t=%.3f (interval %.3f ms)\n",
				offsets[0], offsets[1], offsets[1]-offsets[0])
			return nil
		},
	}
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <interval>",
		Short: "Decode an inter-spike interval back into a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var interval float64
			if _, err := fmt.Sscanf(args[0], "%g", &interval); err != nil {
				return fmt.Errorf("invalid interval: %q", args[0])
			}
			value := simulator.NewDataEncoder().DecodeInterval(interval)
			fmt.Fprintf(cmd.OutOrStdout(), "decoded value: %.4f\n", value)
			return nil
		},
	}
}

func newRunsCmd() *cobra.Command {
	var dbPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List persisted simulation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := storage.NewSQLiteStore(dbPath)
			ctx := context.Background()
			if err := store.Init(ctx); err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			for _, run := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  circuit=%s value=%.4f dt=%g\n",
					run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.Circuit, run.Value, run.DT)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "stick.db", "SQLite file to read")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum runs to list")
	return cmd
}
