package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the local library database
	DefaultDatabasePath = "./libry.db"
)
