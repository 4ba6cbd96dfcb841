package types

type StoreType string

const (
	Postgres StoreType = "postgres"
	SQLite   StoreType = "sqlite"
	Memory   StoreType = "memory"
)

// StoreConfig is the envelope around an adapter-specific configuration; the
// inner config is unmarshalled by the selected adapter itself.
type StoreConfig struct {
	Type        StoreType `json:"type"`
	StoreConfig any       `json:"store"`
}
