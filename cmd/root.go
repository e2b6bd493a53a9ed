package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/procflow/simkernel/examples/machineshop"
	"github.com/procflow/simkernel/sim"
	"github.com/procflow/simkernel/simulation"
)

var (
	logLevel   string // Log verbosity level
	machines   int    // Number of machines in the demo shop
	cycles     int    // Breakdown cycles each machine goes through
	uptime     int64  // Ticks a machine runs before breaking down
	repairTime int64  // Ticks the crew needs per repair
	csvTrace   bool   // Write the event trace to a CSV file
	dbTrace    bool   // Write the event trace to a SQLite database
	monitor    bool   // Serve the monitoring API while running
	traceFile  string // Base name for trace output files
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "simkernel",
	Short: "Discrete-event simulation kernel",
}

// runCmd runs the machine-shop demo scenario with the configured
// tracing and monitoring backends.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the machine-shop demo simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		builder := simulation.MakeBuilder()
		if !monitor {
			builder = builder.WithoutMonitoring()
		}
		if csvTrace {
			builder = builder.WithCSVTracing()
		}
		if dbTrace {
			builder = builder.WithDBTracing()
		}
		if traceFile != "" {
			builder = builder.WithOutputFileName(traceFile)
		}

		s := builder.Build()
		engine := s.GetEngine()
		engine.AcceptHook(sim.NewEventLogger(logrus.StandardLogger()))

		shop, err := machineshop.New(engine, machineshop.Config{
			Machines:   machines,
			Cycles:     cycles,
			Uptime:     sim.Ticks(uptime),
			RepairTime: sim.Ticks(repairTime),
		})
		if err != nil {
			logrus.Fatalf("Failed to set up the shop: %v", err)
		}

		if err := engine.Run(); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		logrus.WithFields(logrus.Fields{
			"final_tick": engine.Now(),
			"breakdowns": shop.Breakdowns,
			"repairs":    shop.Repairs,
		}).Info("Simulation complete")

		s.Terminate()
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().IntVar(&machines, "machines", 2, "Number of machines in the shop")
	runCmd.Flags().IntVar(&cycles, "cycles", 2, "Breakdown cycles per machine")
	runCmd.Flags().Int64Var(&uptime, "uptime", 10, "Ticks a machine runs before breaking down")
	runCmd.Flags().Int64Var(&repairTime, "repair-time", 3, "Ticks needed per repair")
	runCmd.Flags().BoolVar(&csvTrace, "trace-csv", false, "Write the event trace to a CSV file")
	runCmd.Flags().BoolVar(&dbTrace, "trace-db", false, "Write the event trace to a SQLite database")
	runCmd.Flags().BoolVar(&monitor, "monitor", false, "Serve the monitoring API while running")
	runCmd.Flags().StringVar(&traceFile, "trace-file", "", "Base name for trace output files")

	rootCmd.AddCommand(runCmd)
}
