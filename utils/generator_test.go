package utils

import (
	"math/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomReferenceFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^BK-[A-Z0-9]{8}$`)
	r := rand.New(rand.NewSource(1))

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := randomReference(r)
		assert.Regexp(t, pattern, ref)
		seen[ref] = true
	}
	// 36^8 possibilities; a thousand draws colliding would mean a broken generator.
	assert.Greater(t, len(seen), 990)
}
