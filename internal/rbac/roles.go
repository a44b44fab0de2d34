package rbac

// Admin API roles. Each role includes the permissions of the ones below it.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleViewer    = "viewer"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleModerator, RoleViewer:
		return true
	default:
		return false
	}
}

// Readers may view submissions, analytics, lists and settings.
var Readers = []string{RoleViewer, RoleModerator}

// Moderators may change submission status and manage lists.
var Moderators = []string{RoleModerator}
