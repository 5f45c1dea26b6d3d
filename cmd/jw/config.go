package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	yaml "github.com/goccy/go-yaml"
)

var ErrInvalidMember = errors.New("member must be in format key=value")

// Config holds the settings of one jw invocation.
type Config struct {
	Array    bool
	Lines    bool
	Strings  bool
	Output   string
	Encoding string
	Before   string
	Between  string
	Pretty   bool
	Colors   *bool // nil means colors iff stdout is a terminal
	Digest   bool
	Verbose  bool

	Args []string
}

// fileConfig is the layout of the file given with -config.  Flags given on
// the command line take precedence over it.
type fileConfig struct {
	Before   *string `yaml:"before"`
	Between  *string `yaml:"between"`
	Encoding *string `yaml:"encoding"`
	Pretty   *bool   `yaml:"pretty"`
	Colors   *bool   `yaml:"colors"`
	Strings  *bool   `yaml:"strings"`
}

// Parse parses the command line arguments (without the program name).
func Parse(args []string, stderr io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("jw", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: jw [flags] key=value ...\n       jw -a [flags] value ...\n\n")
		fs.PrintDefaults()
	}

	cfg := &Config{}
	var configFile string

	fs.BoolVar(&cfg.Array, "a", false, "write an array of the arguments instead of an object")
	fs.BoolVar(&cfg.Lines, "lines", false, "also read members (or elements with -a) from stdin, one per line")
	fs.BoolVar(&cfg.Strings, "s", false, "write all values as strings")
	fs.StringVar(&cfg.Output, "o", "", "output file (stdout if omitted), compressed according to its extension")
	fs.StringVar(&cfg.Encoding, "encoding", "utf-8", "text encoding of the output")
	fs.StringVar(&cfg.Before, "before", "", "string written before each member")
	fs.StringVar(&cfg.Between, "between", "", "string written after each colon")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "one member per line")
	fs.BoolFunc("colors", "force using colors", func(string) error {
		cfg.Colors = boolPtr(true)
		return nil
	})
	fs.BoolFunc("nocolors", "disable colors", func(string) error {
		cfg.Colors = boolPtr(false)
		return nil
	})
	fs.BoolVar(&cfg.Digest, "digest", false, "print the xxhash64 digest of the output to stderr")
	fs.BoolVar(&cfg.Verbose, "v", false, "log debug information to stderr")
	fs.StringVar(&configFile, "config", "", "YAML file with default settings")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Args = fs.Args()

	var err error
	if cfg.Before, err = unescape(cfg.Before); err != nil {
		return nil, fmt.Errorf("invalid -before: %w", err)
	}
	if cfg.Between, err = unescape(cfg.Between); err != nil {
		return nil, fmt.Errorf("invalid -between: %w", err)
	}

	if configFile != "" {
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if err := cfg.load(configFile, set); err != nil {
			return nil, err
		}
	}

	if !cfg.Array {
		for _, arg := range cfg.Args {
			if _, _, err := splitMember(arg); err != nil {
				return nil, err
			}
		}
	}
	return cfg, nil
}

func (cfg *Config) load(path string, set map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if fc.Before != nil && !set["before"] {
		cfg.Before = *fc.Before
	}
	if fc.Between != nil && !set["between"] {
		cfg.Between = *fc.Between
	}
	if fc.Encoding != nil && !set["encoding"] {
		cfg.Encoding = *fc.Encoding
	}
	if fc.Pretty != nil && !set["pretty"] {
		cfg.Pretty = *fc.Pretty
	}
	if fc.Strings != nil && !set["s"] {
		cfg.Strings = *fc.Strings
	}
	if fc.Colors != nil && cfg.Colors == nil {
		cfg.Colors = fc.Colors
	}
	return nil
}

func splitMember(arg string) (string, string, error) {
	key, value, ok := strings.Cut(arg, "=")
	if !ok {
		return "", "", fmt.Errorf("%w, got: %s", ErrInvalidMember, arg)
	}
	return key, value, nil
}

// unescape interprets Go escape sequences so that e.g. -before '\n  ' works
// from a shell.
func unescape(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	return strconv.Unquote(`"` + s + `"`)
}

func boolPtr(b bool) *bool {
	return &b
}
