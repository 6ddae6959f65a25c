package domain

// This file is the single home of the authorization decision tables. The role
// set is small and fixed, so every rule is a closed dispatch over
// (actor role, relationship to target, target role/status) that callers and
// tests can enumerate exhaustively.

// restrictedSelfFields are the attributes an ENDUSER or BACKOFFICE account may
// never change on itself.
var restrictedSelfFields = map[string]struct{}{
	"username": {},
	"email":    {},
	"name":     {},
	"role":     {},
	"status":   {},
}

// restrictedManagedFields are the attributes BACKOFFICE may never change on a
// managed (ENDUSER/PARTNER) account.
var restrictedManagedFields = map[string]struct{}{
	"username": {},
	"email":    {},
}

// CanViewUser reports whether viewer may see target in the directory.
//
//	ADMIN       sees everyone.
//	BACKOFFICE  sees ENDUSER and PARTNER accounts, any status.
//	ENDUSER     sees itself, plus other ENDUSERs that are ACTIVE and Public.
//
// The viewer's own record is always visible regardless of the table.
func CanViewUser(viewer, target *User) bool {
	if viewer.ID == target.ID {
		return true
	}
	switch viewer.Role {
	case RoleAdmin:
		return true
	case RoleBackoffice:
		return target.Role == RoleEndUser || target.Role == RolePartner
	case RoleEndUser:
		return target.Role == RoleEndUser &&
			target.Status == StatusActive &&
			target.Profile == VisibilityPublic
	}
	return false
}

// CanChangeRole reports whether an actor with actorRole may move a target from
// targetRole to newRole. ADMIN may set anyone to anything; BACKOFFICE may only
// flip ENDUSER to PARTNER or PARTNER to ENDUSER. newRole is assumed to be a
// valid enum value: out-of-enum input is rejected upstream by request
// validation.
func CanChangeRole(actorRole, targetRole, newRole Role) bool {
	switch actorRole {
	case RoleAdmin:
		return true
	case RoleBackoffice:
		return (targetRole == RoleEndUser && newRole == RolePartner) ||
			(targetRole == RolePartner && newRole == RoleEndUser)
	}
	return false
}

// CanToggleStatus reports whether an actor with actorRole may flip a target's
// activation status.
func CanToggleStatus(actorRole Role) bool {
	return actorRole == RoleAdmin || actorRole == RoleBackoffice
}

// CanDeleteUser reports whether an actor with actorRole may delete an account
// with targetRole.
func CanDeleteUser(actorRole, targetRole Role) bool {
	switch actorRole {
	case RoleAdmin:
		return true
	case RoleBackoffice:
		return targetRole == RoleEndUser || targetRole == RolePartner
	}
	return false
}

// EditableFields filters the requested field names down to the subset the
// actor may change on target. The result is always a subset of requested,
// with order preserved.
//
//	ADMIN on anyone:                   everything requested.
//	self-edit (ENDUSER, BACKOFFICE):   requested minus {username, email, name, role, status}.
//	BACKOFFICE on ENDUSER/PARTNER:     target must be ACTIVE, else ErrForbidden;
//	                                   requested minus {username, email}.
//	anything else:                     ErrForbidden.
//
// An empty allow-list is reported as ErrNoEditableFields rather than silently
// accepted as a no-op.
func EditableFields(actor, target *User, requested []string) ([]string, error) {
	isSelf := actor.ID == target.ID

	var blocked map[string]struct{}
	switch {
	case actor.Role == RoleAdmin:
		blocked = nil
	case isSelf && (actor.Role == RoleEndUser || actor.Role == RoleBackoffice):
		blocked = restrictedSelfFields
	case actor.Role == RoleBackoffice && (target.Role == RoleEndUser || target.Role == RolePartner):
		if target.Status != StatusActive {
			return nil, ErrForbidden
		}
		blocked = restrictedManagedFields
	default:
		return nil, ErrForbidden
	}

	allowed := make([]string, 0, len(requested))
	for _, f := range requested {
		if _, deny := blocked[f]; !deny {
			allowed = append(allowed, f)
		}
	}
	if len(allowed) == 0 {
		return nil, ErrNoEditableFields
	}
	return allowed, nil
}
