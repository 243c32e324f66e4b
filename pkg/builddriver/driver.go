// Package builddriver folds a DSL command list into a finished
// OCABundle using an all-or-nothing build procedure: every command is
// applied in order against the evolving OCABox, errors from every
// command are collected rather than stopping at the first, and a
// failing build returns no partial bundle at all.
package builddriver

import (
	"ocabuild.dev/oca/internal/ocaerr"
	"ocabuild.dev/oca/pkg/dsl"
	"ocabuild.dev/oca/pkg/model"
	"ocabuild.dev/oca/pkg/oca"
)

// Step is one entry of the build's Merkle-like linear chain:
// ParentDigest is the previous successful step's bundle digest (empty
// for the first step), Bundle is the bundle generated from state right
// after this command was applied. A history log writes one record per
// step, keyed by Bundle.Digest.
type Step struct {
	Index        int
	Command      dsl.Command
	ParentDigest string
	Bundle       *model.OCABundle
}

// Result is a successful build's output: the final bundle and the
// ordered chain of intermediate states that produced it.
type Result struct {
	Bundle *model.OCABundle
	Chain  []Step
}

// Run folds commands onto an initial state (oca.New() for a build
// starting empty; a box from oca.FromBundle for one extending an
// existing bundle) and generates the resulting OCABundle.
//
// Every command is attempted even after an earlier one fails, so a
// caller sees every error a build has rather than only the first. If
// any command failed, Run returns a *ocaerr.BuildError and a nil
// Result: partial builds are never returned.
func Run(initial *oca.Box, commands []dsl.Command, env dsl.Env) (*Result, error) {
	state := initial
	chain := make([]Step, 0, len(commands))
	var failures []*ocaerr.CommandError
	parentDigest := ""

	for i, cmd := range commands {
		index := i + 1
		next, err := dsl.Apply(state, cmd, index, env)
		if err != nil {
			if ce, ok := err.(*ocaerr.CommandError); ok {
				failures = append(failures, ce)
				continue
			}
			failures = append(failures, &ocaerr.CommandError{
				Index:   index,
				RawLine: cmd.Meta.RawLine,
				Errors:  []*ocaerr.FieldError{ocaerr.New(ocaerr.StorageError, err.Error())},
			})
			continue
		}
		state = next

		bundle, err := state.GenerateBundle()
		if err != nil {
			failures = append(failures, &ocaerr.CommandError{
				Index:   index,
				RawLine: cmd.Meta.RawLine,
				Errors:  []*ocaerr.FieldError{ocaerr.New(ocaerr.StorageError, err.Error())},
			})
			continue
		}

		chain = append(chain, Step{Index: index, Command: cmd, ParentDigest: parentDigest, Bundle: bundle})
		parentDigest = bundle.Digest
	}

	if len(failures) > 0 {
		return nil, &ocaerr.BuildError{Commands: failures}
	}
	if len(chain) == 0 {
		bundle, err := state.GenerateBundle()
		if err != nil {
			return nil, err
		}
		return &Result{Bundle: bundle, Chain: chain}, nil
	}

	return &Result{Bundle: chain[len(chain)-1].Bundle, Chain: chain}, nil
}
