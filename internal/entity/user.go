package entity

// User is an interned, reference-counted user handle. Per spec.md §3,
// users are keyed by their canonical name rather than a binary id, so
// UserTable wraps StringTable instead of Table.
type User struct {
	CanonicalName string
	DisplayName   string
	IsLoaded      bool
}

// NewUser creates an unloaded user handle for the given canonical name.
func NewUser(canonicalName string) *User {
	return &User{CanonicalName: canonicalName}
}

// UserTable is the per-session interning table for users.
type UserTable struct {
	*StringTable[*User]
}

// NewUserTable creates an empty user table.
func NewUserTable() *UserTable {
	return &UserTable{StringTable: NewStringTable[*User]("user")}
}

// InternUser returns the existing user handle for canonicalName, creating
// one in the unloaded state if none exists yet.
func (t *UserTable) InternUser(canonicalName string) *User {
	return t.Intern(canonicalName, func() *User { return NewUser(canonicalName) })
}
