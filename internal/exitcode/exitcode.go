package exitcode

const (
	Success        = 0
	UsageError     = 1
	ConfigError    = 2
	DBConnError    = 3
	MigrationError = 4
	RuntimeError   = 5
)
