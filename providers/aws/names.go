package aws

import "github.com/google/uuid"

// NamePrefix starts every generated resource name
const NamePrefix = "elastic-transcoder-"

// GenerateName returns a fresh resource name with a random unique suffix
func GenerateName() string {
	return NamePrefix + uuid.NewString()
}
