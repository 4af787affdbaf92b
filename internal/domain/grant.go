package domain

// RoleGrant is a directed edge "grantee is granted role". The grantee is
// a user or another role. Well-formed snapshots contain no cycles, but
// nothing in the capture format prevents one; consumers must be
// cycle-safe.
type RoleGrant struct {
	Grantee PrincipalRef
	Role    string
}

// DirectGrant attaches a privilege straight to a principal.
// Database nil means global scope; Table nil means all tables in the
// database.
type DirectGrant struct {
	Grantee     PrincipalRef
	AccessType  string
	Database    *string
	Table       *string
	GrantOption bool
}

// IsGlobal reports whether the grant applies at global scope.
func (g DirectGrant) IsGlobal() bool { return g.Database == nil }

// ScopeString renders the grant target for messages, e.g. "*.*",
// "analytics.*", or "analytics.sales".
func (g DirectGrant) ScopeString() string {
	if g.Database == nil {
		return "*.*"
	}
	if g.Table == nil {
		return *g.Database + ".*"
	}
	return *g.Database + "." + *g.Table
}
