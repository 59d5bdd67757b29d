package domain

import (
	"log/slog"
	"strings"
)

// Role is the canonical set of portal roles. Everything downstream of
// ResolveRole switches on this enum; raw backend strings never travel
// past it.
type Role string

const (
	RoleStudent                  Role = "Student"
	RolePlacementTrainingOfficer Role = "PlacementTrainingOfficer"
	RolePlacementTrainingStaff   Role = "PlacementTrainingStaff"
	RoleAdministrator            Role = "Administrator"
)

// AllRoles lists every canonical role, for allow-lists that accept any
// signed-in user.
var AllRoles = []Role{
	RoleStudent,
	RolePlacementTrainingOfficer,
	RolePlacementTrainingStaff,
	RoleAdministrator,
}

// roleAliases maps folded backend role strings to canonical roles.
// Keys are lower-cased with spaces, hyphens and underscores stripped,
// so "Placement Training Officer", "placement_training_officer" and
// "PTO" all land on the same entry.
var roleAliases = map[string]Role{
	"student": RoleStudent,

	"pto":                      RolePlacementTrainingOfficer,
	"placementtrainingofficer": RolePlacementTrainingOfficer,
	"placementofficer":         RolePlacementTrainingOfficer,
	"trainingofficer":          RolePlacementTrainingOfficer,

	"pts":                         RolePlacementTrainingStaff,
	"placementtrainingstaff":      RolePlacementTrainingStaff,
	"placementstaff":              RolePlacementTrainingStaff,
	// Legacy label still emitted by older backend deployments.
	"placementtrackingsupervisor": RolePlacementTrainingStaff,

	"admin":         RoleAdministrator,
	"administrator": RoleAdministrator,
	"companyadmin":  RoleAdministrator,
}

// ResolveRole maps a raw backend role string to its canonical Role.
// It is total: unknown or empty input falls back to RoleStudent and is
// logged as a recoverable anomaly. The fallback is display-only least
// privilege; authorization still requires membership in an explicit
// allow-list, so an unknown role never grants access it should not have.
func ResolveRole(raw string) Role {
	folded := foldRole(raw)
	if role, ok := roleAliases[folded]; ok {
		return role
	}
	if raw == "" {
		slog.Warn("profile has no role, defaulting to student")
	} else {
		slog.Warn("unknown role, defaulting to student", "raw_role", raw)
	}
	return RoleStudent
}

func foldRole(raw string) string {
	folded := strings.ToLower(strings.TrimSpace(raw))
	for _, cut := range []string{" ", "-", "_"} {
		folded = strings.ReplaceAll(folded, cut, "")
	}
	return folded
}

// DashboardPath returns the landing path for the role's portal area.
func (r Role) DashboardPath() string {
	switch r {
	case RolePlacementTrainingOfficer:
		return "/pto"
	case RolePlacementTrainingStaff:
		return "/pts"
	case RoleAdministrator:
		return "/company-admin"
	default:
		return "/student"
	}
}
