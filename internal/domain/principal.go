package domain

// PrincipalKind distinguishes users from roles. Both can be the grantee
// of a role grant or a direct privilege grant.
type PrincipalKind string

const (
	KindUser PrincipalKind = "user"
	KindRole PrincipalKind = "role"
)

// PrincipalRef is a tagged reference to a user or role. Edges always
// carry the kind so a user and a role sharing a name are never conflated.
type PrincipalRef struct {
	Kind PrincipalKind
	Name string
}

// Key returns a stable map key for the reference.
func (r PrincipalRef) Key() string {
	return string(r.Kind) + ":" + r.Name
}

func (r PrincipalRef) String() string {
	return string(r.Kind) + " " + r.Name
}

// UserRef builds a PrincipalRef for a user.
func UserRef(name string) PrincipalRef { return PrincipalRef{Kind: KindUser, Name: name} }

// RoleRef builds a PrincipalRef for a role.
func RoleRef(name string) PrincipalRef { return PrincipalRef{Kind: KindRole, Name: name} }

// User is a captured database user. Names are unique within a snapshot.
type User struct {
	Name     string
	AuthType string
	// HostIPs is the set of allowed source addresses. Empty means no
	// IP restriction.
	HostIPs []string
	// DefaultRolesAll marks that every granted role is a default role.
	DefaultRolesAll bool
	// DefaultRoles is the subset of granted roles auto-activated at
	// login. Ignored when DefaultRolesAll is set.
	DefaultRoles []string
}

// DefaultRoleSet returns the user's default roles as a lookup set.
// With DefaultRolesAll, callers should treat every directly granted
// role as default instead of consulting this set.
func (u *User) DefaultRoleSet() map[string]struct{} {
	set := make(map[string]struct{}, len(u.DefaultRoles))
	for _, r := range u.DefaultRoles {
		set[r] = struct{}{}
	}
	return set
}

// Role is a captured database role.
type Role struct {
	Name string
}
