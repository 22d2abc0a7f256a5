package env

const (
	// Prefix is the environment variable prefix of every flag
	Prefix = "TRAVELRATES"

	// DBURLSuffix is the suffix of the PostgreSQL connection URL variable
	DBURLSuffix = "_DB_URL"
)

// DBURL is the PostgreSQL connection URL variable (TRAVELRATES_DB_URL)
const DBURL = Prefix + DBURLSuffix
