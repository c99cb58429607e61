package prompts

import (
	"slices"
	"strings"

	"github.com/raphaelgruber/boardroom/internal/models"
)

// Feature flags understood by the composer.
const (
	FlagDevilsAdvocate         = "devils-advocate"
	FlagBoardChallengesFounder = "board-challenges-founder"
	FlagPreMortem              = "pre-mortem"
)

// canonicalFlags is the order flag blocks are appended in, independent of
// the order flags were activated.
var canonicalFlags = []string{
	FlagDevilsAdvocate,
	FlagBoardChallengesFounder,
	FlagPreMortem,
}

// KnownFlags returns the recognized feature flags in canonical order.
func KnownFlags() []string {
	return slices.Clone(canonicalFlags)
}

// Compose builds the system prompt for one persona and one turn: the base
// instructions followed by a block for every recognized active flag.
// Unrecognized flags are ignored.
func Compose(role models.Role, mode models.CEOMode, activeFlags []string) (string, error) {
	base, err := InstructionsFor(role, mode)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(base)
	for _, flag := range canonicalFlags {
		if !slices.Contains(activeFlags, flag) {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(defaultCatalog.Flags[flag]))
	}
	return b.String(), nil
}
