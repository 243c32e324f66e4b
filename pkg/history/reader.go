package history

import (
	"encoding/json"
	"fmt"

	"ocabuild.dev/oca/internal/ocaerr"
	"ocabuild.dev/oca/pkg/dsl"
	"ocabuild.dev/oca/pkg/model"
)

// ReconstructedStep is one entry of a history chain read back from
// storage, in build order.
type ReconstructedStep struct {
	ParentDigest string
	Command      dsl.Command
	ResultDigest string
	Bundle       *model.OCABundle
}

// Reconstruct walks the operation chain backward from terminalDigest,
// looking up each step's record and cached bundle, stopping once it
// reaches the step with no parent, then reverses the result into build
// order.
func Reconstruct(store Store, terminalDigest string) ([]ReconstructedStep, error) {
	var steps []ReconstructedStep
	current := terminalDigest

	for current != "" {
		record, ok, err := store.Get(OperationNamespace, operationKey(current))
		if err != nil {
			return nil, fmt.Errorf("history: read operation record for %s: %w", current, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: no operation record for %s", ocaerr.ErrMalformedHistory, current)
		}
		parentDigest, cmdBytes, err := splitRecord(record)
		if err != nil {
			return nil, err
		}
		if parentDigest == current {
			return nil, fmt.Errorf("%w: step %s names itself as its own parent", ocaerr.ErrMalformedHistory, current)
		}

		var cmd dsl.Command
		if err := json.Unmarshal(cmdBytes, &cmd); err != nil {
			return nil, fmt.Errorf("history: decode command for %s: %w", current, err)
		}

		bundleBytes, ok, err := store.Get(BundleNamespace, current)
		if err != nil {
			return nil, fmt.Errorf("history: read bundle for %s: %w", current, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: no cached bundle for %s", ocaerr.ErrMalformedHistory, current)
		}
		var bundle model.OCABundle
		if err := json.Unmarshal(bundleBytes, &bundle); err != nil {
			return nil, fmt.Errorf("history: decode bundle for %s: %w", current, err)
		}

		steps = append(steps, ReconstructedStep{
			ParentDigest: parentDigest,
			Command:      cmd,
			ResultDigest: current,
			Bundle:       &bundle,
		})
		current = parentDigest
	}

	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps, nil
}

func splitRecord(record []byte) (parentDigest string, command []byte, err error) {
	if len(record) < 1 {
		return "", nil, fmt.Errorf("%w: empty operation record", ocaerr.ErrMalformedHistory)
	}
	parentLen := int(record[0])
	if len(record) < 1+parentLen {
		return "", nil, fmt.Errorf("%w: operation record shorter than its declared parent-digest length", ocaerr.ErrMalformedHistory)
	}
	return string(record[1 : 1+parentLen]), record[1+parentLen:], nil
}
