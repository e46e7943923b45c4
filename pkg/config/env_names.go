package config

// EnvPrefix is the envconfig prefix; tags carry the full names so this stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "KAIUB_DB_DSN"
	EnvDBHost = "KAIUB_DB_HOST"
	EnvDBUser = "KAIUB_DB_USER"
	EnvDBName = "KAIUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
