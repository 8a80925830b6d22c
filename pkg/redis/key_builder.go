package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building so staging and
// production can share a Redis instance without colliding.
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}
	return &KeyBuilder{prefix: prefix}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

func (kb *KeyBuilder) KeyElection(electionID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyElection, electionID))
}

func (kb *KeyBuilder) KeyElectionResults(electionID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyElectionResults, electionID))
}

func (kb *KeyBuilder) KeyVoterStatus(electionID, studentID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyVoterStatus, electionID, studentID))
}

func (kb *KeyBuilder) KeyVoteLock(electionID, studentID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyVoteLock, electionID, studentID))
}

func (kb *KeyBuilder) KeyClassWinners() string {
	return kb.BuildKey(KeyClassWinners)
}

// KeyCustom builds an environment-prefixed key from a custom format
func (kb *KeyBuilder) KeyCustom(format string, args ...interface{}) string {
	return kb.BuildKey(fmt.Sprintf(format, args...))
}
