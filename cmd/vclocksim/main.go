// Package main is the entrypoint for vclocksim.
// vclocksim runs the clocks defined in a configuration file under the
// discrete-event kernel and reports what every clock did.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/aelexs/virtualclock/internal/errmap"
	"github.com/aelexs/virtualclock/internal/simrun"
)

const serviceName = "vclocksim"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(errmap.ExitCode(err))
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var configPath, until string

	flagSet := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", os.Getenv("VCLOCK_CONFIG"), "path to the YAML clock definition file (env VCLOCK_CONFIG)")
	flagSet.StringVar(&until, "until", "", "simulated stop time, e.g. 2us (overrides simulation.until)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	res, err := simrun.Run(ctx, simrun.Params{
		Name:       serviceName,
		ConfigPath: configPath,
		Until:      until,
		LogOutput:  stderr,
	})
	if res != nil {
		printResult(stdout, res)
	}
	return err
}

func printResult(w io.Writer, res *simrun.Result) {
	fmt.Fprintf(w, "simulated until %v\n", res.Now)
	for _, c := range res.Clocks {
		fmt.Fprintf(w, "%-16s period=%-8v edges=%-8d cycles=%-8d level=%t\n",
			c.Name, c.Period, c.Edges, c.Cycles, c.Level)
	}
}
