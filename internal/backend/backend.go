package backend

// BackendType represents the type of ledger backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SheetsBackend   BackendType = "sheets"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SheetsBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// MultiTenant reports whether the backend type carries the Usuario column.
// The sqlite variant is the local single-user store; everything else is the
// shared multi-owner table.
func (bt BackendType) MultiTenant() bool {
	return bt != SQLiteBackend
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error
