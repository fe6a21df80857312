package driven

// PrivilegeSource supplies the configured set of privileged operators.
// It is consulted on every privilege check, so implementations may reload
// their source at any time.
type PrivilegeSource interface {
	// PrivilegedOperators returns the caller IDs with unlimited authority.
	PrivilegedOperators() []string
}

// StaticPrivileges is a fixed PrivilegeSource.
type StaticPrivileges []string

// PrivilegedOperators returns the fixed list.
func (s StaticPrivileges) PrivilegedOperators() []string {
	return s
}
