package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "CAMPASS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "CAMPASS_DB_DSN"
	EnvDBHost = "CAMPASS_DB_HOST"
	EnvDBUser = "CAMPASS_DB_USER"
	EnvDBName = "CAMPASS_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
