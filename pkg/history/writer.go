package history

import (
	"fmt"

	"ocabuild.dev/oca/internal/canon"
	"ocabuild.dev/oca/pkg/builddriver"
	"ocabuild.dev/oca/pkg/model"
)

// WriteStep persists one build step's operation record and caches its
// bundle, capture base and overlays.
//
// The record is `[len_prefix|parent_digest_string][serialized_command]`:
// a single byte holding the parent digest's length (zero when the step
// has no parent), the parent digest bytes themselves, then the
// canonically serialized command with no length prefix of its own — its
// length is recovered on read by subtracting the bytes already
// accounted for from the total record length (see doc.go).
func WriteStep(store Store, step builddriver.Step) error {
	cmdBytes, err := canon.Marshal(step.Command)
	if err != nil {
		return fmt.Errorf("history: serialize command: %w", err)
	}
	if len(step.ParentDigest) > 255 {
		return fmt.Errorf("history: parent digest %q exceeds the 255-byte length prefix", step.ParentDigest)
	}

	record := make([]byte, 0, 1+len(step.ParentDigest)+len(cmdBytes))
	record = append(record, byte(len(step.ParentDigest)))
	record = append(record, []byte(step.ParentDigest)...)
	record = append(record, cmdBytes...)

	if err := store.Insert(OperationNamespace, operationKey(step.Bundle.Digest), record); err != nil {
		return fmt.Errorf("history: write operation record: %w", err)
	}
	return cacheBundle(store, step.Bundle)
}

// WriteChain persists every step of a completed build, in order.
func WriteChain(store Store, chain []builddriver.Step) error {
	for _, step := range chain {
		if err := WriteStep(store, step); err != nil {
			return err
		}
	}
	return nil
}

func cacheBundle(store Store, bundle *model.OCABundle) error {
	bundleBytes, err := canon.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("history: serialize bundle: %w", err)
	}
	if err := store.Insert(BundleNamespace, bundle.Digest, bundleBytes); err != nil {
		return fmt.Errorf("history: cache bundle: %w", err)
	}

	cbBytes, err := canon.Marshal(bundle.CaptureBase)
	if err != nil {
		return fmt.Errorf("history: serialize capture base: %w", err)
	}
	if err := store.Insert(ObjectNamespace, bundle.CaptureBase.Digest, cbBytes); err != nil {
		return fmt.Errorf("history: cache capture base: %w", err)
	}

	for _, ov := range bundle.Overlays {
		ovBytes, err := canon.Marshal(ov)
		if err != nil {
			return fmt.Errorf("history: serialize overlay %s: %w", ov.OverlayHeader().Type, err)
		}
		if err := store.Insert(ObjectNamespace, ov.OverlayHeader().Digest, ovBytes); err != nil {
			return fmt.Errorf("history: cache overlay %s: %w", ov.OverlayHeader().Type, err)
		}
	}
	return nil
}
