package tool

import "github.com/google/uuid"

// GenerateUUIDV7 returns a time-ordered UUID. Rows keyed this way stay
// roughly insertion-ordered in the primary key index.
func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}
