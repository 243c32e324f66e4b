package refresolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocabuild.dev/oca/internal/store"
)

func TestBindAndResolve(t *testing.T) {
	tbl := New()
	tbl.Bind("person-schema", "Edigest1")

	digest, err := tbl.Resolve("person-schema")
	require.NoError(t, err)
	assert.Equal(t, "Edigest1", digest)

	name, ok := tbl.Name("Edigest1")
	require.True(t, ok)
	assert.Equal(t, "person-schema", name)
}

func TestResolveUnknownNameFails(t *testing.T) {
	tbl := New()
	_, err := tbl.Resolve("nope")
	assert.Error(t, err)
}

func TestBindOverwritesPreviousDigestForSameName(t *testing.T) {
	tbl := New()
	tbl.Bind("person-schema", "Edigest1")
	tbl.Bind("person-schema", "Edigest2")

	digest, err := tbl.Resolve("person-schema")
	require.NoError(t, err)
	assert.Equal(t, "Edigest2", digest)

	_, ok := tbl.Name("Edigest1")
	assert.False(t, ok, "stale reverse binding must be dropped")
}

func TestObserveMetaBindsEnglishName(t *testing.T) {
	tbl := New()
	tbl.ObserveMeta(map[string]map[string]string{
		"en": {"name": "person-schema"},
		"fr": {"name": "schema-personne"},
	}, "Edigest1")

	digest, err := tbl.Resolve("person-schema")
	require.NoError(t, err)
	assert.Equal(t, "Edigest1", digest)

	_, err = tbl.Resolve("schema-personne")
	assert.Error(t, err, "non-English name bindings are not observed")
}

func TestObserveMetaWithoutEnglishIsNoop(t *testing.T) {
	tbl := New()
	tbl.ObserveMeta(map[string]map[string]string{"fr": {"name": "x"}}, "Edigest1")
	_, ok := tbl.Name("Edigest1")
	assert.False(t, ok)
}

func TestPersistThenLoadRoundTrips(t *testing.T) {
	tbl := New()
	tbl.Bind("person-schema", "Edigest1")

	mem := store.NewMem()
	require.NoError(t, tbl.Persist(mem))

	digest, err := Load(mem, "person-schema")
	require.NoError(t, err)
	assert.Equal(t, "Edigest1", digest)
}

func TestLoadUnknownNameFails(t *testing.T) {
	mem := store.NewMem()
	_, err := Load(mem, "nope")
	assert.Error(t, err)
}
