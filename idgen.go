package relaymq

import "github.com/google/uuid"

// randomID is the default IDGenerator: a random 128-bit identifier rendered
// in the canonical hyphenated hex form.
func randomID() string {
	return uuid.NewString()
}
