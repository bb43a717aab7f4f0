package pledge

// Identity is the acting caller: an authenticated user, an admin, or nobody.
type Identity struct {
	UserID        string
	Authenticated bool
	Superuser     bool
}

// Anonymous is the identity of an unauthenticated caller.
var Anonymous = Identity{}

// Role is the flattened access level of an identity.
type Role int

const (
	RoleAnonymous Role = iota
	RoleMember
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Role collapses the identity flags into the three-level model every
// authorization check reduces to.
func (i Identity) Role() Role {
	switch {
	case i.Authenticated && i.Superuser:
		return RoleAdmin
	case i.Authenticated:
		return RoleMember
	default:
		return RoleAnonymous
	}
}

// operation names every action the service exposes; the policy table below is
// the single place a role requirement is declared.
type operation int

const (
	opCreateCause operation = iota
	opListCauses
	opListAvailableCauses
	opGetCause
	opUpdateCause
	opDeleteCause
	opAddPromise
	opListPromises
	opGetPromise
	opUpdatePromise
	opDeletePromise
	opListPromisesByCause
	opGetPromiseForCause
	opListCausesPromised
	opReports
)

type policy struct {
	minRole Role
	// ownerScoped operations are additionally narrowed to rows owned by the
	// caller unless the caller is an admin. The narrowing happens inside the
	// store query itself, so there is no check-then-act gap.
	ownerScoped bool
}

var policies = map[operation]policy{
	opCreateCause:         {minRole: RoleAdmin},
	opListCauses:          {minRole: RoleAnonymous},
	opListAvailableCauses: {minRole: RoleAnonymous},
	opGetCause:            {minRole: RoleAnonymous},
	opUpdateCause:         {minRole: RoleAdmin},
	opDeleteCause:         {minRole: RoleAdmin},
	opAddPromise:          {minRole: RoleMember},
	opListPromises:        {minRole: RoleMember, ownerScoped: true},
	opGetPromise:          {minRole: RoleMember, ownerScoped: true},
	opUpdatePromise:       {minRole: RoleMember, ownerScoped: true},
	opDeletePromise:       {minRole: RoleMember, ownerScoped: true},
	opListPromisesByCause: {minRole: RoleAdmin},
	opGetPromiseForCause:  {minRole: RoleMember},
	opListCausesPromised:  {minRole: RoleMember},
	opReports:             {minRole: RoleAdmin},
}

// authorize evaluates the policy table for op. It returns the owner filter to
// apply on owner-scoped queries: the caller's user id for members, "" (no
// filter) for admins.
func (i Identity) authorize(op operation) (ownerFilter string, err error) {
	p, ok := policies[op]
	if !ok || i.Role() < p.minRole {
		return "", ErrPermissionDenied
	}
	if p.ownerScoped && i.Role() != RoleAdmin {
		return i.UserID, nil
	}
	return "", nil
}
