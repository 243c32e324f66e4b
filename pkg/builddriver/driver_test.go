package builddriver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocabuild.dev/oca/internal/ocaerr"
	"ocabuild.dev/oca/pkg/dsl"
	"ocabuild.dev/oca/pkg/oca"
)

func addAttrCmd(name, typ string) dsl.Command {
	c := dsl.NewContent()
	c.Attributes.Set(name, dsl.Nested(typ))
	return dsl.Command{Kind: dsl.Add, ObjectKind: dsl.ObjectCaptureBase, Content: c}
}

func TestRunBuildsChainWithIncreasingDigests(t *testing.T) {
	commands := []dsl.Command{
		addAttrCmd("name", "Text"),
		addAttrCmd("age", "Numeric"),
	}
	result, err := Run(oca.New(), commands, dsl.Env{})
	require.NoError(t, err)
	require.Len(t, result.Chain, 2)
	assert.Equal(t, "", result.Chain[0].ParentDigest)
	assert.Equal(t, result.Chain[0].Bundle.Digest, result.Chain[1].ParentDigest)
	assert.Equal(t, result.Chain[1].Bundle.Digest, result.Bundle.Digest)
}

func TestRunEmptyCommandListGeneratesEmptyBundle(t *testing.T) {
	result, err := Run(oca.New(), nil, dsl.Env{})
	require.NoError(t, err)
	assert.Empty(t, result.Chain)
	assert.NotEmpty(t, result.Bundle.CaptureBase.Digest)
}

func TestRunCollectsErrorsAcrossAllFailingCommands(t *testing.T) {
	commands := []dsl.Command{
		addAttrCmd("name", "Text"),
		addAttrCmd("name", "Numeric"),  // redefinition
		addAttrCmd("age", "Bogus"),     // unknown type
	}
	result, err := Run(oca.New(), commands, dsl.Env{})
	assert.Nil(t, result)
	require.Error(t, err)

	var be *ocaerr.BuildError
	require.ErrorAs(t, err, &be)
	require.Len(t, be.Commands, 2)
	assert.Equal(t, 2, be.Commands[0].Index)
	assert.Equal(t, 3, be.Commands[1].Index)
}

func TestRunReturnsNoPartialBundleOnFailure(t *testing.T) {
	commands := []dsl.Command{
		addAttrCmd("name", "Text"),
		addAttrCmd("name", "Numeric"),
	}
	result, err := Run(oca.New(), commands, dsl.Env{})
	assert.Nil(t, result)
	assert.Error(t, err)
}
