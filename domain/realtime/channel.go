package realtime

import "strings"

// The broker channel namespace has three disjoint families. A channel name
// is used both as a pub/sub subject and as a local subscription key.
const (
	chatPrefix     = "chat:"
	userPrefix     = "user:"
	locationPrefix = "location:"
)

func ChatChannel(chatID string) string {
	return chatPrefix + chatID
}

func UserChannel(userID string) string {
	return userPrefix + userID
}

func LocationChannel(key string) string {
	return locationPrefix + key
}

// LocationKey normalizes a city name into a channel-safe key.
// "São Paulo" and "sao paulo " land in different rooms on purpose:
// normalization is only lowercase + space folding, no transliteration.
func LocationKey(city string) string {
	key := strings.ToLower(strings.TrimSpace(city))
	return strings.ReplaceAll(key, " ", "_")
}

func IsChatChannel(channel string) bool {
	return strings.HasPrefix(channel, chatPrefix)
}

func IsUserChannel(channel string) bool {
	return strings.HasPrefix(channel, userPrefix)
}

func IsLocationChannel(channel string) bool {
	return strings.HasPrefix(channel, locationPrefix)
}
