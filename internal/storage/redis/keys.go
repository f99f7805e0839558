package redis

import "fmt"

// Key prefix for all tracker data
const keyPrefix = "guildtracker"

// levelsKey returns the Redis key for the HASH of member -> level on a date
func levelsKey(date string) string {
	return fmt.Sprintf("%s:levels:%s", keyPrefix, date)
}

// datesIndexKey returns the Redis key for the SET of dates with history
func datesIndexKey() string {
	return fmt.Sprintf("%s:idx:dates", keyPrefix)
}
