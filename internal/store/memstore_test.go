package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemGetMissing(t *testing.T) {
	m := NewMem()
	v, ok, err := m.Get("oca", "nope")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, v)
}

func TestMemInsertThenGet(t *testing.T) {
	m := NewMem()
	require.NoError(t, m.Insert("json-cache", "Ebundledigest", []byte(`{"a":1}`)))

	v, ok, err := m.Get("json-cache", "Ebundledigest")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`{"a":1}`), v)
}

func TestMemNamespacesAreIsolated(t *testing.T) {
	m := NewMem()
	require.NoError(t, m.Insert("oca", "k", []byte("one")))
	require.NoError(t, m.Insert("json-cache", "k", []byte("two")))

	a, _, _ := m.Get("oca", "k")
	b, _, _ := m.Get("json-cache", "k")
	require.Equal(t, []byte("one"), a)
	require.Equal(t, []byte("two"), b)
}

// TestMemConcurrentWriters exercises the external coordination the
// storage contract requires of concurrent writers: every writer tags
// its own record with a unique session token, so the test can confirm
// that concurrent inserts into distinct keys under load never clobber
// one another, while the store itself only serializes access to its
// internal map.
func TestMemConcurrentWriters(t *testing.T) {
	m := NewMem()
	var wg sync.WaitGroup
	sessions := make([]string, 20)
	for i := range sessions {
		sessions[i] = uuid.NewString()
	}

	for i, session := range sessions {
		wg.Add(1)
		go func(i int, session string) {
			defer wg.Done()
			key := fmt.Sprintf("step-%d", i)
			assert.NoError(t, m.Insert("oca", key, []byte(session)))
		}(i, session)
	}
	wg.Wait()

	for i, session := range sessions {
		key := fmt.Sprintf("step-%d", i)
		v, ok, err := m.Get("oca", key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, session, string(v))
	}
}
