package service

import (
	"testing"

	"github.com/raphaelgruber/boardroom/internal/models"
	"github.com/raphaelgruber/boardroom/internal/prompts"
	"github.com/stretchr/testify/assert"
)

func TestRouteMessage(t *testing.T) {
	all := prompts.Personas()

	tests := []struct {
		name    string
		content string
		targets []string
		want    []models.Role
		reason  RouteReason
	}{
		{
			name:    "finance keyword",
			content: "ما هي تكلفة الشحن؟",
			want:    []models.Role{models.RoleCFO},
			reason:  RouteClassified,
		},
		{
			name:    "english finance keyword",
			content: "Can we cut the budget for Q3?",
			want:    []models.Role{models.RoleCFO},
			reason:  RouteClassified,
		},
		{
			name:    "several domains",
			content: "the marketing campaign needs a bigger budget and a new contract",
			want:    []models.Role{models.RoleCFO, models.RoleCLO, models.RoleCMO},
			reason:  RouteClassified,
		},
		{
			name:    "strategic adds CEO",
			content: "what is our pricing strategy? the price feels low",
			want:    []models.Role{models.RoleCEO, models.RoleCFO},
			reason:  RouteClassified,
		},
		{
			name:    "strategic only",
			content: "ما هي رؤية الشركة؟",
			want:    []models.Role{models.RoleCEO},
			reason:  RouteClassified,
		},
		{
			name:    "nothing matched",
			content: "hello",
			want:    []models.Role{models.RoleCEO},
			reason:  RouteDefault,
		},
		{
			name:    "board meeting",
			content: "اجتماع المجلس",
			want:    models.AllRoles(),
			reason:  RouteBroad,
		},
		{
			name:    "broad overrides explicit targets",
			content: "everyone, weigh in",
			targets: []string{"cfo"},
			want:    models.AllRoles(),
			reason:  RouteBroad,
		},
		{
			name:    "explicit ids and role names",
			content: "what do you think about the budget?",
			targets: []string{"cto", " CLO "},
			want:    []models.Role{models.RoleCLO, models.RoleCTO},
			reason:  RouteExplicit,
		},
		{
			name:    "duplicate targets",
			content: "hi",
			targets: []string{"cfo", "CFO", "cfo"},
			want:    []models.Role{models.RoleCFO},
			reason:  RouteExplicit,
		},
		{
			name:    "unknown target selects nobody",
			content: "hi",
			targets: []string{"cpo"},
			want:    []models.Role{},
			reason:  RouteExplicit,
		},
		{
			name:    "substring of another word does not match",
			content: "how much capital do we need to raise leads?",
			want:    []models.Role{models.RoleCEO},
			reason:  RouteDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := RouteMessage(tt.content, tt.targets, all)
			assert.Equal(t, tt.reason, route.Reason)
			assert.Equal(t, tt.want, route.Roles())
		})
	}
}

func TestRouteMessageSkipsInactivePersonas(t *testing.T) {
	personas := prompts.Personas()
	for i := range personas {
		switch personas[i].Role {
		case models.RoleCFO:
			personas[i].Status = models.PersonaOnLeave
		case models.RoleCTO:
			personas[i].Status = models.PersonaInactive
		}
	}

	route := RouteMessage("budget for the server", nil, personas)
	assert.Empty(t, route.Personas)
	assert.Equal(t, []Domain{DomainEngineering, DomainFinance}, route.Domains)

	route = RouteMessage("hi", []string{"cfo", "cmo"}, personas)
	assert.Equal(t, []models.Role{models.RoleCMO}, route.Roles())

	route = RouteMessage("all hands", nil, personas)
	assert.Equal(t, []models.Role{models.RoleCEO, models.RoleCLO, models.RoleCMO, models.RoleCOO}, route.Roles())
}

func TestRouteMessageDoesNotMutateInput(t *testing.T) {
	personas := prompts.Personas()
	personas = append(personas, personas[1])
	before := append([]models.Persona(nil), personas...)

	route := RouteMessage("meeting", nil, personas)
	assert.Len(t, route.Personas, 6)
	assert.Equal(t, before, personas)
}
