package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannels(t *testing.T) {
	t.Run("should keep the three families disjoint", func(t *testing.T) {
		require.True(t, IsChatChannel(ChatChannel("42")))
		require.False(t, IsUserChannel(ChatChannel("42")))
		require.True(t, IsUserChannel(UserChannel("alice")))
		require.True(t, IsLocationChannel(LocationChannel("mumbai")))
		require.False(t, IsChatChannel(LocationChannel("mumbai")))
	})

	t.Run("should normalize city names into stable keys", func(t *testing.T) {
		require.Equal(t, "new_york", LocationKey("New York"))
		require.Equal(t, "new_york", LocationKey("  new york "))
		require.Equal(t, LocationKey("MUMBAI"), LocationKey("mumbai"))
	})

	t.Run("should keep differently spelled cities apart", func(t *testing.T) {
		require.NotEqual(t, LocationKey("São Paulo"), LocationKey("Sao Paulo"))
	})
}
