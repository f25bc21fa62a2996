package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "prode", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"login", "logout", "whoami", "predict", "show", "recompute", "watch", "hydrate"}

	for _, name := range commands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "command %s should exist", name)
			require.NotNil(t, sub)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestPredictVariants(t *testing.T) {
	cmd := NewRootCommand()

	session, _, err := cmd.Find([]string{"predict", "session"})
	require.NoError(t, err)
	for _, flag := range []string{"p1", "p2", "p3"} {
		assert.NotNil(t, session.Flags().Lookup(flag), "session form should carry --%s", flag)
	}
	assert.Nil(t, session.Flags().Lookup("dnf"), "session form has no extras")

	race, _, err := cmd.Find([]string{"predict", "race"})
	require.NoError(t, err)
	for _, flag := range []string{"p1", "p2", "p3", "p4", "p5", "vsc", "sc", "dnf"} {
		assert.NotNil(t, race.Flags().Lookup(flag), "race form should carry --%s", flag)
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}
