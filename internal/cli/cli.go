// Package cli implements the command-line interface for gcpressure.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/eunmann/gcpressure/internal/logctx"
	"github.com/eunmann/gcpressure/pkg/humanfmt"
	"github.com/eunmann/gcpressure/pkg/logging"
	"github.com/eunmann/gcpressure/pkg/memdiag"
	"github.com/eunmann/gcpressure/pkg/sysmem"
)

const usage = "usage: gcpressure <command> [options]\ncommands: sample, probe"

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "sample":
		return runSample(args[1:])
	case "probe":
		return runProbe(args[1:])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// logFlags are shared by every subcommand.
type logFlags struct {
	debug    *bool
	jsonLogs *bool
}

func addLogFlags(fs *flag.FlagSet) logFlags {
	return logFlags{
		debug:    fs.Bool("debug", false, "enable debug logging"),
		jsonLogs: fs.Bool("json-logs", false, "emit JSON log lines on stderr instead of console output"),
	}
}

// setup configures the console logger and returns a context that is
// cancelled on SIGINT or SIGTERM.
func (lf logFlags) setup(harness string) (context.Context, context.CancelFunc) {
	logging.Init(*lf.debug, !*lf.jsonLogs)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return logctx.WithLogger(ctx, logging.WithHarness(harness)), stop
}

// logCollectorConfig prints the collector configuration at startup.
func logCollectorConfig(log zerolog.Logger) {
	info := memdiag.ReadCollectorInfo()
	ceiling, source := sysmem.HeapCeiling(info.MemoryLimit)

	ev := log.Info().
		Str("gc", info.Name).
		Int("gc_percent", info.GCPercent).
		Int64("max_heap_mb", humanfmt.WholeMiB(ceiling)).
		Str("max_heap_source", string(source)).
		Int("gomaxprocs", info.GOMAXPROCS)
	if info.HasMemoryLimit() {
		ev = ev.Int64("memory_limit_mb", humanfmt.WholeMiB(uint64(info.MemoryLimit)))
	}
	ev.Msg("[Runtime] collector configuration")
}
