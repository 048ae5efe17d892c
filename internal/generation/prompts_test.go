package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/draftforge/draftforge-api/internal/domain"
)

func TestInstruction(t *testing.T) {
	t.Parallel()

	t.Run("each content type has its own instruction", func(t *testing.T) {
		t.Parallel()

		seen := map[string]domain.ContentType{}
		for _, ct := range domain.ContentTypes() {
			instruction := Instruction(ct)
			assert.NotEmpty(t, instruction)
			if prev, ok := seen[instruction]; ok {
				t.Fatalf("content types %q and %q share an instruction", prev, ct)
			}
			seen[instruction] = ct
		}
	})

	t.Run("unknown type falls back to neutral instruction", func(t *testing.T) {
		t.Parallel()

		instruction := Instruction(domain.ContentType("Haiku"))
		assert.Equal(t, defaultInstruction, instruction)
	})
}

func TestUserPrompt(t *testing.T) {
	t.Parallel()

	prompt := UserPrompt("eco bottle", domain.ContentTypeProductDescription)

	assert.Equal(t, "Please create a product description about: eco bottle", prompt)
	assert.True(t, strings.Contains(prompt, "eco bottle"))
}
