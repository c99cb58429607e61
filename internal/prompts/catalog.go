// Package prompts holds the board persona catalog and composes the
// instruction text sent to the completion backend for each persona.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/raphaelgruber/boardroom/internal/models"
	"gopkg.in/yaml.v3"
)

// Lookup errors, shared with the models package so callers can match either.
var (
	ErrUnknownRole = models.ErrUnknownRole
	ErrUnknownMode = models.ErrUnknownMode
)

//go:embed catalog.yaml
var catalogYAML []byte

type roleEntry struct {
	DisplayName   string            `yaml:"display_name"`
	LocalizedName string            `yaml:"localized_name"`
	Tier          models.ModelTier  `yaml:"tier"`
	Instructions  string            `yaml:"instructions"`
	Modes         map[string]string `yaml:"modes"`
}

type catalog struct {
	Roles          map[models.Role]roleEntry `yaml:"roles"`
	Flags          map[string]string         `yaml:"flags"`
	Closing        string                    `yaml:"closing"`
	Summarizer     string                    `yaml:"summarizer"`
	SummaryRequest string                    `yaml:"summary_request"`
}

var defaultCatalog = mustParseCatalog(catalogYAML)

func parseCatalog(data []byte) (*catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, role := range models.AllRoles() {
		entry, ok := c.Roles[role]
		if !ok {
			return nil, fmt.Errorf("catalog: missing role %s", role)
		}
		if role == models.RoleCEO {
			for _, mode := range []models.CEOMode{models.CEOLeader, models.CEOStrategist, models.CEOVisionary} {
				if strings.TrimSpace(entry.Modes[string(mode)]) == "" {
					return nil, fmt.Errorf("catalog: missing CEO mode %s", mode)
				}
			}
		} else if strings.TrimSpace(entry.Instructions) == "" {
			return nil, fmt.Errorf("catalog: missing instructions for %s", role)
		}
		if entry.Tier != models.TierHigh && entry.Tier != models.TierStandard {
			return nil, fmt.Errorf("catalog: invalid tier %q for %s", entry.Tier, role)
		}
	}
	for _, flag := range canonicalFlags {
		if strings.TrimSpace(c.Flags[flag]) == "" {
			return nil, fmt.Errorf("catalog: missing flag block %s", flag)
		}
	}
	return &c, nil
}

func mustParseCatalog(data []byte) *catalog {
	c, err := parseCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Personas returns the seed catalog: one active persona per role, ordered by
// role name ascending.
func Personas() []models.Persona {
	roles := models.AllRoles()
	personas := make([]models.Persona, 0, len(roles))
	for _, role := range roles {
		entry := defaultCatalog.Roles[role]
		personas = append(personas, models.Persona{
			ID:            role.ID(),
			Role:          role,
			DisplayName:   entry.DisplayName,
			LocalizedName: entry.LocalizedName,
			ModelTier:     entry.Tier,
			Status:        models.PersonaActive,
		})
	}
	return personas
}

// InstructionsFor returns the base instruction text for a role. CEO requires
// a mode (empty means the default leader mode); other roles ignore mode.
func InstructionsFor(role models.Role, mode models.CEOMode) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	entry := defaultCatalog.Roles[role]
	if role != models.RoleCEO {
		return strings.TrimSpace(entry.Instructions), nil
	}

	mode, err := models.ParseCEOMode(string(mode))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(entry.Modes[string(mode)]), nil
}

// ClosingDirective returns the persona-specific instruction that ends the
// final user turn.
func ClosingDirective(p models.Persona) string {
	r := strings.NewReplacer("{name}", p.DisplayName, "{localized}", p.LocalizedName)
	return r.Replace(strings.TrimSpace(defaultCatalog.Closing))
}

// SummarizerPrompt returns the system prompt used to summarize a conversation.
func SummarizerPrompt() string {
	return strings.TrimSpace(defaultCatalog.Summarizer)
}

// SummaryRequest returns the instruction preceding the transcript in the
// summarization request.
func SummaryRequest() string {
	return strings.TrimSpace(defaultCatalog.SummaryRequest)
}
