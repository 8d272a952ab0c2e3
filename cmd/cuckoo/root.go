package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cobra"

	"github.com/pboyd/cuckoo"
	"github.com/pboyd/cuckoo/internal/logging"
)

type rootOptions struct {
	logLevel  string
	logPretty bool

	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "cuckoo",
		Short: "Inspect symbol tables and jump stubs",
		Long: `cuckoo reads the symbol tables of an ELF executable the same way the
cuckoo package reads its own image before patching a function, and shows the
jump stub that would be written for a pair of addresses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := logging.DefaultConfig()
			cfg.Level = opts.logLevel
			cfg.Pretty = opts.logPretty
			cfg.Output = cmd.ErrOrStderr()
			opts.logger = logging.New(cfg)
			cuckoo.SetLogger(opts.logger)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.logPretty, "log-pretty", true, "human-readable log output")

	cmd.AddCommand(newSymbolsCmd(opts))
	cmd.AddCommand(newLookupCmd(opts))
	cmd.AddCommand(newStubCmd())

	return cmd
}

// imageFlags selects the image a command reads: a path argument, the
// executable of another process, or this executable.
type imageFlags struct {
	pid int32
}

func (f *imageFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int32Var(&f.pid, "pid", 0, "read the executable of this process")
}

func (f *imageFlags) open(args []string) (*cuckoo.Image, error) {
	if len(args) > 0 && f.pid != 0 {
		return nil, fmt.Errorf("give a path or --pid, not both")
	}
	if len(args) > 0 {
		return cuckoo.Open(args[0])
	}
	if f.pid != 0 {
		path, err := exePath(f.pid)
		if err != nil {
			return nil, err
		}
		return cuckoo.Open(path)
	}
	return cuckoo.OpenSelf()
}

func exePath(pid int32) (string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", fmt.Errorf("process %d: %w", pid, err)
	}
	exe, err := p.Exe()
	if err != nil {
		return "", fmt.Errorf("executable of process %d: %w", pid, err)
	}
	return exe, nil
}

// parse opens the selected image and reads its symbols. The image is closed
// before returning.
func (f *imageFlags) parse(args []string, logger zerolog.Logger) (*cuckoo.Directory, error) {
	img, err := f.open(args)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := img.Close(); err != nil {
			logger.Warn().Err(err).Msg("close image")
		}
	}()

	logger.Debug().Str("path", img.Path()).Int("length", img.Len()).Msg("reading image")

	return cuckoo.ParseSymbols(img)
}
