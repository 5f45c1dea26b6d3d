// Command jw writes a JSON object (or array) built from its arguments, e.g.
//
//	$ jw name=jw version=1 stable=true
//	{"name":"jw","version":1,"stable":true}
//	$ seq 3 | jw -a -lines
//	[1,2,3]
//
// Values which look like JSON numbers, booleans or null are written as such,
// anything else is written as a string.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/arnodel/jsonwritestream"
	"github.com/arnodel/jsonwritestream/format"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	// Do not handle SIGPIPE, we'll do it ourselves (see error handling at the bottom of main).
	signal.Ignore(syscall.SIGPIPE)

	// Display a stack trace on panic
	defer func() {
		if e := recover(); e != nil {
			fmt.Fprintf(os.Stderr, "%s: %s", e, debug.Stack())
		}
	}()

	cfg, err := Parse(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fatalError("error: %s\n", err)
	}

	var stdout io.Writer = os.Stdout
	colors := isatty.IsTerminal(os.Stdout.Fd())
	if cfg.Colors != nil {
		colors = *cfg.Colors
	}
	if colors && cfg.Output == "" {
		stdout = colorable.NewColorableStdout()
	} else {
		colors = false
	}

	err = run(cfg, os.Stdin, stdout, os.Stderr, colors)
	if err != nil {
		if errors.Is(err, syscall.EPIPE) {
			// stdout is a pipe and something closed it (e.g. 'head' or 'less').
			// In this case we don't want to complain.
			return
		}
		fatalError("error: %s\n", err)
	}
}

func run(cfg *Config, stdin io.Reader, stdout, stderr io.Writer, colors bool) error {
	logLevel := slog.LevelWarn
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel}))

	seps := separators(cfg)

	opts := []jsonwritestream.Option{
		jsonwritestream.WithEncoding(cfg.Encoding),
		jsonwritestream.WithLogger(logger),
	}
	if colors {
		opts = append(opts, jsonwritestream.WithColorizer(&format.DefaultColorizer))
	}
	var digest *format.Digest
	if cfg.Digest {
		digest = format.NewDigest()
		opts = append(opts, jsonwritestream.WithDigest(digest))
	}

	var lines *bufio.Scanner
	if cfg.Lines {
		lines = bufio.NewScanner(stdin)
	}
	write := func(w *jsonwritestream.Writer) error {
		if cfg.Array {
			return w.OpenArray(func(a *jsonwritestream.ArrayWriter) error {
				return writeElements(a, cfg, lines, seps)
			})
		}
		return w.OpenObject(func(o *jsonwritestream.ObjectWriter) error {
			return writeMembers(o, cfg, lines, seps)
		})
	}

	var err error
	if cfg.Output != "" {
		err = jsonwritestream.WriteFile(cfg.Output, write, opts...)
	} else {
		out := bufio.NewWriter(stdout)
		err = jsonwritestream.WriteStream(out, write, opts...)
		if err == nil {
			_, err = out.WriteString("\n")
		}
		if flushErr := out.Flush(); err == nil {
			err = flushErr
		}
	}
	if err != nil {
		return err
	}
	if digest != nil {
		fmt.Fprintln(stderr, digest)
	}
	return nil
}

func writeElements(a *jsonwritestream.ArrayWriter, cfg *Config, lines *bufio.Scanner, seps jsonwritestream.Separators) error {
	for _, arg := range cfg.Args {
		if err := a.WriteElement(parseValue(arg, cfg.Strings), seps); err != nil {
			return err
		}
	}
	if lines == nil {
		return nil
	}
	for lines.Scan() {
		if err := a.WriteElement(parseValue(lines.Text(), cfg.Strings), seps); err != nil {
			return err
		}
	}
	return lines.Err()
}

func writeMembers(o *jsonwritestream.ObjectWriter, cfg *Config, lines *bufio.Scanner, seps jsonwritestream.Separators) error {
	writeMember := func(arg string) error {
		key, value, err := splitMember(arg)
		if err != nil {
			return err
		}
		return o.WriteKeyValue(key, parseValue(value, cfg.Strings), seps)
	}
	for _, arg := range cfg.Args {
		if err := writeMember(arg); err != nil {
			return err
		}
	}
	if lines == nil {
		return nil
	}
	for lines.Scan() {
		if lines.Text() == "" {
			continue
		}
		if err := writeMember(lines.Text()); err != nil {
			return err
		}
	}
	return lines.Err()
}

// parseValue returns the JSON value written for s: literals and numbers are
// kept as they are, anything else becomes a string.
func parseValue(s string, forceString bool) any {
	if forceString {
		return s
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if s != "" && (s[0] == '-' || s[0] >= '0' && s[0] <= '9') && json.Valid([]byte(s)) {
		return json.Number(s)
	}
	return s
}

func separators(cfg *Config) jsonwritestream.Separators {
	var seps jsonwritestream.Separators
	if cfg.Pretty {
		seps = jsonwritestream.Indented(1)
	}
	if cfg.Before != "" {
		seps.Before = cfg.Before
	}
	if cfg.Between != "" {
		seps.Between = cfg.Between
	}
	return seps
}

func fatalError(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, msg, args...)
	os.Exit(1)
}
