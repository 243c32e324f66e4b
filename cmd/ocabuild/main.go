// Command ocabuild is the reference CLI driving the core compiler: it
// parses a DSL source file, runs it through the facade, and reports the
// resulting bundle digest, or inspects and verifies bundles already in
// storage.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	internaldsl "ocabuild.dev/oca/internal/dsl"
	"ocabuild.dev/oca/internal/store"
	"ocabuild.dev/oca/pkg/facade"
	"ocabuild.dev/oca/pkg/history"
	"ocabuild.dev/oca/pkg/model"
)

// GlobalContext carries dependencies every subcommand shares.
type GlobalContext struct {
	Log   *logrus.Logger
	Store history.Store
}

// CLI is the top-level command tree.
type CLI struct {
	Build   BuildCmd   `cmd:"" help:"Compile a DSL source file into an OCA bundle"`
	History HistoryCmd `cmd:"" help:"Reconstruct a build's command history from a terminal digest"`
	Verify  VerifyCmd  `cmd:"" help:"Recompute and check a stored bundle's digest"`

	LogLevel string `env:"LOG_LEVEL" default:"info" help:"Log level (debug, info, warn, error)"`
	DataDir  string `env:"OCABUILD_DATA_DIR" default:".ocabuild-store" type:"path" help:"Directory holding build history, so later 'history' and 'verify' calls can see earlier 'build' output"`
	InMemory bool   `help:"Use a throwaway in-memory store instead of DataDir; history and verify then only see bundles built in the same process"`
}

// BuildCmd compiles a .oca source file and prints the resulting bundle's digest.
type BuildCmd struct {
	Source string `arg:"" type:"path" help:"Path to a DSL source file"`
	From   string `help:"Digest of a bundle to extend, instead of starting empty"`
	Print  bool   `help:"Print the bundle rendered back as DSL source to stdout as well"`
}

func (c *BuildCmd) Run(g *GlobalContext) error {
	src, err := os.ReadFile(c.Source)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.Source, err)
	}
	commands, err := internaldsl.Parse(string(src))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", c.Source, err)
	}
	g.Log.WithFields(logrus.Fields{"source": c.Source, "commands": len(commands)}).Debug("parsed DSL source")

	f := facade.New(g.Store)
	var startFrom *model.OCABundle
	if c.From != "" {
		startFrom, err = f.GetOCABundle(c.From)
		if err != nil {
			return fmt.Errorf("loading starting bundle %s: %w", c.From, err)
		}
	}

	bundle, err := f.Build(startFrom, commands)
	if err != nil {
		g.Log.WithError(err).Error("build failed")
		return err
	}

	g.Log.WithField("digest", bundle.Digest).Info("build succeeded")
	fmt.Println(bundle.Digest)
	if c.Print {
		ocafile, err := f.GetOCABundleOCAFile(bundle.Digest)
		if err != nil {
			return err
		}
		fmt.Print(ocafile)
	}
	return nil
}

// HistoryCmd reconstructs and prints a build's step chain.
type HistoryCmd struct {
	Digest string `arg:"" help:"Terminal digest to reconstruct history from"`
}

func (c *HistoryCmd) Run(g *GlobalContext) error {
	steps, err := history.Reconstruct(g.Store, c.Digest)
	if err != nil {
		return err
	}
	for _, step := range steps {
		parent := step.ParentDigest
		if parent == "" {
			parent = "(none)"
		}
		fmt.Printf("%s <- %s [%s]\n", step.ResultDigest, parent, step.Command.Kind)
	}
	return nil
}

// VerifyCmd recomputes a stored bundle's digest and reports whether it
// matches the digest it was stored under.
type VerifyCmd struct {
	Digest string `arg:"" help:"Digest of the bundle to verify"`
}

func (c *VerifyCmd) Run(g *GlobalContext) error {
	f := facade.New(g.Store)
	bundle, err := f.GetOCABundle(c.Digest)
	if err != nil {
		return err
	}
	claimed := bundle.Digest
	if _, err := bundle.ComputeDigest(); err != nil {
		return fmt.Errorf("recomputing digest: %w", err)
	}
	if bundle.Digest != claimed {
		return fmt.Errorf("digest mismatch: stored as %s, recomputes to %s", claimed, bundle.Digest)
	}
	if err := bundle.Validate(); err != nil {
		return fmt.Errorf("bundle invariants: %w", err)
	}
	fmt.Printf("%s: OK\n", claimed)
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("ocabuild"),
		kong.Description("Compile and inspect content-addressed OCA bundles"),
		kong.UsageOnError(),
	)

	logger := logrus.New()
	level, err := logrus.ParseLevel(cli.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	var backend history.Store
	if cli.InMemory {
		backend = store.NewMem()
	} else {
		fileStore, err := store.NewFile(cli.DataDir)
		if err != nil {
			kctx.FatalIfErrorf(err)
		}
		backend = fileStore
	}

	globals := &GlobalContext{Log: logger, Store: backend}
	kctx.FatalIfErrorf(kctx.Run(globals))
}
