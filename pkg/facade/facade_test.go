package facade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocabuild.dev/oca/internal/ocaerr"
	"ocabuild.dev/oca/internal/store"
	"ocabuild.dev/oca/pkg/dsl"
)

func addAttrCmd(name, typ string) dsl.Command {
	c := dsl.NewContent()
	c.Attributes.Set(name, dsl.Nested(typ))
	return dsl.Command{Kind: dsl.Add, ObjectKind: dsl.ObjectCaptureBase, Content: c}
}

func metaCmd(lang string, pairs map[string]string) dsl.Command {
	c := dsl.NewContent()
	c.Properties["lang"] = lang
	for k, v := range pairs {
		c.Properties[k] = v
	}
	return dsl.Command{Kind: dsl.Add, ObjectKind: dsl.ObjectOverlayMeta, Content: c}
}

func TestFacadeBuildPersistsHistoryAndBundle(t *testing.T) {
	f := New(store.NewMem())
	bundle, err := f.Build(nil, []dsl.Command{
		addAttrCmd("name", "Text"),
		metaCmd("en", map[string]string{"name": "person-schema"}),
	})
	require.NoError(t, err)
	require.NotEmpty(t, bundle.Digest)

	fetched, err := f.GetOCABundle(bundle.Digest)
	require.NoError(t, err)
	assert.Equal(t, bundle.Digest, fetched.Digest)
}

func TestFacadeBuildBindsNameForLaterFromByName(t *testing.T) {
	f := New(store.NewMem())
	bundle, err := f.Build(nil, []dsl.Command{
		addAttrCmd("name", "Text"),
		metaCmd("en", map[string]string{"name": "person-schema"}),
	})
	require.NoError(t, err)

	fromCmd := dsl.Command{Kind: dsl.From, ObjectKind: dsl.ObjectOCABundle, Content: dsl.NewContent()}
	fromCmd.Content.Properties["ref"] = map[string]dsl.Nested{"name": "person-schema"}

	extended, err := f.Build(nil, []dsl.Command{
		fromCmd,
		addAttrCmd("age", "Numeric"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, bundle.Digest, extended.Digest)
}

func TestFacadeGetOCABundleOCAFileRenders(t *testing.T) {
	f := New(store.NewMem())
	bundle, err := f.Build(nil, []dsl.Command{addAttrCmd("name", "Text")})
	require.NoError(t, err)

	text, err := f.GetOCABundleOCAFile(bundle.Digest)
	require.NoError(t, err)
	assert.Contains(t, text, "ADD ATTRIBUTE")
	assert.Contains(t, text, "name=Text")
}

func TestFacadeBuildFailsOnUnresolvedEntryCodeReference(t *testing.T) {
	f := New(store.NewMem())
	cmds := []dsl.Command{
		addAttrCmd("status", "Text"),
	}
	ecCmd := dsl.Command{Kind: dsl.Add, ObjectKind: dsl.ObjectOverlayEntryCode, Content: dsl.NewContent()}
	ecCmd.Content.Attributes.Set("status", dsl.Nested("Enonexistentreference0000000000000000000"))
	cmds = append(cmds, ecCmd)

	_, err := f.Build(nil, cmds)
	require.Error(t, err)
	assert.ErrorIs(t, err, ocaerr.ErrUnknownReference)
}

func TestFacadeGetOCABundleUnknownDigestFails(t *testing.T) {
	f := New(store.NewMem())
	_, err := f.GetOCABundle("Enonexistent")
	assert.Error(t, err)
}
