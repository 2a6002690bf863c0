// Command tagscript runs TagScript outside Discord, for writing and
// debugging tags.
//
//	tagscript run greeting.txt --seed vars.yaml --actions
//	echo '{math:2^8}' | tagscript run
//	tagscript spans tag.txt
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"server-tags/pkg/tagscript"
	"server-tags/pkg/tagscript/blocks"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tagscript",
		Short:        "Run and inspect TagScript",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newSpansCmd())
	return root
}

type runOptions struct {
	seedFile string
	rngSeed  uint64
	greeting bool
	actions  bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	c := &cobra.Command{
		Use:   "run [file]",
		Short: "Interpret a script from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, args, opts)
		},
	}
	c.Flags().StringVar(&opts.seedFile, "seed", "", "YAML file of seed variables (name: value)")
	c.Flags().Uint64Var(&opts.rngSeed, "rng-seed", 0, "seed for random blocks (0 picks one)")
	c.Flags().BoolVar(&opts.greeting, "greeting", false, "use the greeting block set")
	c.Flags().BoolVar(&opts.actions, "actions", false, "print recorded actions as YAML")
	return c
}

func runScript(cmd *cobra.Command, args []string, opts runOptions) error {
	script, err := readScript(cmd, args)
	if err != nil {
		return err
	}
	seed, err := loadSeed(opts.seedFile)
	if err != nil {
		return err
	}

	catalog := blocks.Default()
	if opts.greeting {
		catalog = blocks.Greeting()
	}
	var popts []tagscript.ProcessOption
	if opts.rngSeed != 0 {
		popts = append(popts, tagscript.WithRandSeed(opts.rngSeed))
	}

	resp, err := tagscript.New(catalog).Process(script, seed, popts...)
	var limit *tagscript.LimitError
	switch {
	case errors.As(err, &limit):
		log.Warn().Err(err).Msg("Script hit a limit")
	case err != nil:
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Body)
	if opts.actions && !resp.Actions.Empty() {
		fmt.Fprintln(out, "---")
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(actionsView(resp.Actions)); err != nil {
			return fmt.Errorf("failed to encode actions: %w", err)
		}
		return enc.Close()
	}
	return nil
}

func newSpansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spans [file]",
		Short: "List the blocks of a script in resolution order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(cmd, args)
			if err != nil {
				return err
			}
			printSpans(cmd.OutOrStdout(), script)
			return nil
		},
	}
}

func printSpans(w io.Writer, script string) {
	for _, sp := range tagscript.Spans(script) {
		text := script[sp.Start : sp.End+1]
		v, ok := tagscript.ParseVerb(text)
		if !ok {
			fmt.Fprintf(w, "%d-%d depth=%d %s (no declaration)\n", sp.Start, sp.End, sp.Depth, text)
			continue
		}
		fmt.Fprintf(w, "%d-%d depth=%d %s decl=%q", sp.Start, sp.End, sp.Depth, text, v.Declaration)
		if v.HasParameter {
			fmt.Fprintf(w, " param=%q", v.Parameter)
		}
		if v.HasPayload {
			fmt.Fprintf(w, " payload=%q", v.Payload)
		}
		fmt.Fprintln(w)
	}
}

func readScript(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(data), nil
}

// loadSeed reads a flat YAML mapping into string adapters.
func loadSeed(path string) (map[string]tagscript.Adapter, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed: %w", err)
	}
	var vars map[string]string
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("failed to parse seed %s: %w", path, err)
	}
	seed := make(map[string]tagscript.Adapter, len(vars))
	for k, v := range vars {
		seed[k] = tagscript.NewStringAdapter(v)
	}
	return seed, nil
}

type actionsYAML struct {
	Embed    *tagscript.Embed `yaml:"embed,omitempty"`
	React    []string         `yaml:"react,omitempty"`
	ReactU   []string         `yaml:"reactu,omitempty"`
	Target   string           `yaml:"target,omitempty"`
	Silent   bool             `yaml:"silent,omitempty"`
	Delete   bool             `yaml:"delete,omitempty"`
	Commands []string         `yaml:"commands,omitempty"`
	Extra    map[string]any   `yaml:"extra,omitempty"`
}

func actionsView(a *tagscript.Actions) actionsYAML {
	return actionsYAML{
		Embed:    a.Embed,
		React:    a.React,
		ReactU:   a.ReactU,
		Target:   a.Target,
		Silent:   a.Silent,
		Delete:   a.Delete,
		Commands: a.Commands,
		Extra:    a.Extra,
	}
}
