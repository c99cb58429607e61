package service

import (
	"slices"
	"strings"

	"github.com/raphaelgruber/boardroom/internal/models"
)

// Domain is a business area a message can touch.
type Domain string

const (
	DomainEngineering Domain = "engineering"
	DomainFinance     Domain = "finance"
	DomainMarketing   Domain = "marketing"
	DomainOperations  Domain = "operations"
	DomainLegal       Domain = "legal"
)

// RouteReason explains how a responder set was chosen.
type RouteReason string

const (
	RouteExplicit   RouteReason = "explicit"
	RouteBroad      RouteReason = "broad"
	RouteClassified RouteReason = "classified"
	RouteDefault    RouteReason = "default"
)

// domainOrder fixes iteration order over domainKeywords.
var domainOrder = []Domain{DomainEngineering, DomainFinance, DomainMarketing, DomainOperations, DomainLegal}

var domainRoles = map[Domain]models.Role{
	DomainEngineering: models.RoleCTO,
	DomainFinance:     models.RoleCFO,
	DomainMarketing:   models.RoleCMO,
	DomainOperations:  models.RoleCOO,
	DomainLegal:       models.RoleCLO,
}

// Matching is substring containment on the lower-cased message.
var domainKeywords = map[Domain][]string{
	DomainEngineering: {
		"تقني", "تقنية", "برمجة", "تطوير", "خادم", "سيرفر", "تطبيق", "أمن",
		"technical", "technology", "software", "server", "infrastructure", "engineering", "bug",
	},
	DomainFinance: {
		"مالي", "مالية", "تكلفة", "تكاليف", "ميزانية", "إيرادات", "ربح", "أرباح", "سعر", "تمويل", "استثمار",
		"cost", "budget", "revenue", "profit", "price", "funding", "finance",
	},
	DomainMarketing: {
		"تسويق", "إعلان", "إعلانات", "حملة", "علامة تجارية", "عملاء",
		"marketing", "campaign", "brand", "advertis", "customer acquisition",
	},
	DomainOperations: {
		"عمليات", "تشغيل", "لوجستي", "مخزون", "موردين",
		"operations", "logistics", "inventory", "process",
	},
	DomainLegal: {
		"قانون", "قانوني", "عقد", "عقود", "ترخيص", "امتثال", "لوائح",
		"legal", "contract", "license", "compliance", "regulation",
	},
}

var strategicKeywords = []string{
	"استراتيجية", "استراتيجي", "رؤية", "قرار", "خطة", "مستقبل",
	"strategy", "vision", "decision", "roadmap",
}

var broadKeywords = []string{
	"اجتماع", "المجلس", "الجميع", "كل الأعضاء",
	"meeting", "whole board", "everyone", "all hands",
}

// Route is the responder set for one message.
type Route struct {
	Personas []models.Persona
	Reason   RouteReason
	Domains  []Domain
}

// Roles returns the roles of the selected personas in order.
func (r Route) Roles() []models.Role {
	roles := make([]models.Role, 0, len(r.Personas))
	for _, p := range r.Personas {
		roles = append(roles, p.Role)
	}
	return roles
}

// RouteMessage selects which of the given personas respond to content.
// Inactive personas never respond. The result keeps the order of personas,
// which callers pass sorted by role name.
//
// Broad all-hands keywords win over everything, including explicit targets.
// Otherwise explicit targets (persona id or role name) are used as given.
// Otherwise each matching domain adds its role, and CEO joins on strategic
// keywords or when nothing matched.
func RouteMessage(content string, targets []string, personas []models.Persona) Route {
	active := make([]models.Persona, 0, len(personas))
	for _, p := range personas {
		if p.Active() {
			active = append(active, p)
		}
	}

	lower := strings.ToLower(content)

	if containsAny(lower, broadKeywords) {
		return Route{Personas: dedupe(active), Reason: RouteBroad}
	}

	if len(targets) > 0 {
		return Route{Personas: selectTargets(active, targets), Reason: RouteExplicit}
	}

	roles := make(map[models.Role]bool)
	var domains []Domain
	for _, d := range domainOrder {
		if containsAny(lower, domainKeywords[d]) {
			roles[domainRoles[d]] = true
			domains = append(domains, d)
		}
	}

	reason := RouteClassified
	if containsAny(lower, strategicKeywords) {
		roles[models.RoleCEO] = true
	}
	if len(roles) == 0 {
		reason = RouteDefault
		roles[models.RoleCEO] = true
	}

	selected := make([]models.Persona, 0, len(roles))
	for _, p := range active {
		if roles[p.Role] {
			selected = append(selected, p)
		}
	}
	return Route{Personas: dedupe(selected), Reason: reason, Domains: domains}
}

func selectTargets(active []models.Persona, targets []string) []models.Persona {
	wanted := make(map[string]bool, len(targets))
	for _, t := range targets {
		wanted[strings.ToLower(strings.TrimSpace(t))] = true
	}
	selected := make([]models.Persona, 0, len(targets))
	for _, p := range active {
		if wanted[strings.ToLower(p.ID)] || wanted[strings.ToLower(string(p.Role))] {
			selected = append(selected, p)
		}
	}
	return dedupe(selected)
}

func dedupe(personas []models.Persona) []models.Persona {
	seen := make(map[models.Role]bool, len(personas))
	return slices.DeleteFunc(personas, func(p models.Persona) bool {
		if seen[p.Role] {
			return true
		}
		seen[p.Role] = true
		return false
	})
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
