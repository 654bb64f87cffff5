package headless_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latinkbd/kbdswitch/apitypes"
	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/internal/prefs"
	"github.com/latinkbd/kbdswitch/switcher"
)

func TestRegistryLifecycle(t *testing.T) {
	r := headless.NewRegistry(testOptions())
	defer r.Close()

	ids := make([]string, 0, 11)
	for range 11 {
		s, err := r.Create(apitypes.SessionCreateRequest{Locale: "en"})
		require.NoError(t, err)
		ids = append(ids, s.ID())
	}
	assert.Equal(t, ids, r.List())
	assert.Equal(t, "1", ids[0])
	assert.Equal(t, "11", ids[10])

	require.NotNil(t, r.Get("3"))
	require.NoError(t, r.Remove("3"))
	assert.Nil(t, r.Get("3"))
	assert.ErrorIs(t, r.Remove("3"), headless.ErrSessionNotFound)
	assert.Len(t, r.List(), 10)
}

func TestRegistryCreateFailureDoesNotRegister(t *testing.T) {
	r := headless.NewRegistry(testOptions())
	_, err := r.Create(apitypes.SessionCreateRequest{Locale: "en", Orientation: "diagonal"})
	require.Error(t, err)
	assert.Empty(t, r.List())
}

func TestRegistryForwardsPreferenceChanges(t *testing.T) {
	base := prefs.NewStore(nil)
	opts := testOptions()
	opts.BasePrefs = base
	r := headless.NewRegistry(opts)
	defer r.Close()

	s, err := r.Create(apitypes.SessionCreateRequest{Locale: "en", Editor: &apitypes.EditorInfo{}})
	require.NoError(t, err)
	require.Equal(t, "Basic", s.State().Theme)

	base.Set(switcher.PrefKeyboardLayout, "5")
	r.PreferencesChanged([]string{switcher.PrefKeyboardLayout})

	st := s.State()
	assert.Equal(t, "IceCreamSandwich", st.Theme)
	assert.True(t, st.Loaded)
}

func TestRegistryClose(t *testing.T) {
	r := headless.NewRegistry(testOptions())
	for range 3 {
		_, err := r.Create(apitypes.SessionCreateRequest{Locale: "en"})
		require.NoError(t, err)
	}
	r.Close()
	assert.Empty(t, r.List())
}
