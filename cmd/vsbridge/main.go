// Package main provides the vsbridge command-line tool.
//
// vsbridge opens clip scripts through the frame bridge and reports their
// consumer geometry, dumps converted frames to a compressed file, or serves
// frames over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vsbridge/config"
	"github.com/opd-ai/vsbridge/framedump"
	"github.com/opd-ai/vsbridge/host"
	"github.com/opd-ai/vsbridge/server"
	"github.com/opd-ai/vsbridge/synth"
)

// sourceFlags are the flags shared by the commands that open a source.
type sourceFlags struct {
	configPath string
	inline     bool
	stacked    bool
	index      int
	native     bool
	encoding   string
	logLevel   string
}

func (f *sourceFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Configuration file (YAML)")
	fs.BoolVar(&f.inline, "inline", false, "Treat the argument as script text instead of a path")
	fs.BoolVar(&f.stacked, "stacked", false, "Stack MSB and LSB half-planes for wide samples")
	fs.IntVar(&f.index, "index", -1, "Script output index (default from config)")
	fs.BoolVar(&f.native, "native", false, "Enable wide-sample consumer layouts")
	fs.StringVar(&f.encoding, "encoding", "", "Text encoding of the path or script (default from config)")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// load reads the configuration and applies the command-line overrides.
func (f *sourceFlags) load(fs *flag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if set["stacked"] {
		cfg.Bridge.Stacked = f.stacked
	}
	if set["native"] {
		cfg.Bridge.NativeFormats = f.native
	}
	if set["index"] {
		cfg.Bridge.OutputIndex = f.index
	}
	if f.encoding != "" {
		cfg.Bridge.TextEncoding = f.encoding
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyLogging(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newHost(cfg *config.Config) *host.Host {
	return host.New(synth.NewEngine(),
		host.WithNativeFormats(cfg.Bridge.NativeFormats),
		host.WithTextEncoding(cfg.Bridge.TextEncoding),
	)
}

func (f *sourceFlags) request(cfg *config.Config, source string) host.OpenRequest {
	return host.OpenRequest{
		Source:      source,
		Inline:      f.inline,
		Stacked:     cfg.Bridge.Stacked,
		OutputIndex: cfg.Bridge.OutputIndex,
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "vsbridge - clip script frame bridge")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vsbridge info  [options] <script>")
	fmt.Fprintln(w, "  vsbridge dump  [options] -o <file> <script>")
	fmt.Fprintln(w, "  vsbridge serve [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  vsbridge info -stacked clip.yaml")
	fmt.Fprintln(w, "  vsbridge dump -native -o clip.vsbd clip.yaml")
	fmt.Fprintln(w, "  vsbridge serve -listen 127.0.0.1:8765")
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "info":
		err = runInfo(args[1:], stdout, stderr)
	case "dump":
		err = runDump(args[1:], stdout, stderr)
	case "serve":
		err = runServe(ctx, args[1:], stderr)
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runInfo(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var sf sourceFlags
	sf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("info takes exactly one script argument")
	}

	cfg, err := sf.load(fs)
	if err != nil {
		return err
	}

	h := newHost(cfg)
	defer h.Shutdown()

	handle, err := h.OpenSource(sf.request(cfg, fs.Arg(0)))
	if err != nil {
		return err
	}
	info, err := h.Info(handle)
	if err != nil {
		return err
	}

	g := info.Geometry
	fmt.Fprintf(stdout, "Producer:   %s\n", info.Producer)
	fmt.Fprintf(stdout, "Consumer:   %s\n", g.Format)
	fmt.Fprintf(stdout, "Packing:    %s\n", info.Mode)
	fmt.Fprintf(stdout, "Transcoder: %s\n", info.Kind)
	fmt.Fprintf(stdout, "Size:       %dx%d\n", g.Width, g.Height)
	fmt.Fprintf(stdout, "Frames:     %d\n", g.NumFrames)
	fmt.Fprintf(stdout, "Rate:       %d/%d\n", g.FPSNum, g.FPSDen)
	return nil
}

func runDump(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var sf sourceFlags
	sf.register(fs)
	output := fs.String("o", "", "Output dump file")
	first := fs.Int("first", 0, "First frame to dump")
	count := fs.Int("count", 0, "Number of frames to dump (0 for all)")
	level := fs.Int("level", -1, "zstd level (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *output == "" {
		return fmt.Errorf("dump needs -o and exactly one script argument")
	}

	cfg, err := sf.load(fs)
	if err != nil {
		return err
	}
	if *level >= 0 {
		cfg.Dump.Level = *level
	}

	h := newHost(cfg)
	defer h.Shutdown()

	handle, err := h.OpenSource(sf.request(cfg, fs.Arg(0)))
	if err != nil {
		return err
	}
	g, err := h.Geometry(handle)
	if err != nil {
		return err
	}

	last := g.NumFrames
	if *count > 0 && *first+*count < last {
		last = *first + *count
	}
	if *first < 0 || *first >= last {
		return fmt.Errorf("frame range %d..%d outside clip of %d frames", *first, last, g.NumFrames)
	}

	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("create dump: %w", err)
	}
	defer f.Close()

	w, err := framedump.NewWriter(f, g, cfg.Dump.Level)
	if err != nil {
		return err
	}
	for n := *first; n < last; n++ {
		buf, err := h.Frame(handle, n)
		if err != nil {
			w.Close()
			return err
		}
		if err := w.WriteFrame(n, buf); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close dump: %w", err)
	}

	fmt.Fprintf(stdout, "Wrote %d frames of %dx%d %s to %s\n", w.Frames(), g.Width, g.Height, g.Format, *output)
	return nil
}

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var sf sourceFlags
	sf.register(fs)
	listen := fs.String("listen", "", "Listen address (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := sf.load(fs)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}

	h := newHost(cfg)
	defer func() {
		if err := h.Shutdown(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "runServe",
				"error":    err.Error(),
			}).Warn("Host shutdown reported an error")
		}
	}()

	return server.New(h).ListenAndServe(ctx, cfg.Server.Listen)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
