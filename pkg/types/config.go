package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Airtable (primary report datastore)
	AirtableBaseID            string `envconfig:"AIRTABLE_BASE_ID"`
	AirtableAPIKey            string `envconfig:"AIRTABLE_API_KEY"`
	AirtableObservationsTable string `envconfig:"AIRTABLE_OBSERVATIONS_TABLE" default:"Observations"`
	AirtableIncidentsTable    string `envconfig:"AIRTABLE_INCIDENTS_TABLE" default:"Incidents"`

	// Supabase (image storage + roster database)
	SupabaseProjectID  string `envconfig:"SUPABASE_PROJECT_ID"`
	SupabaseServiceKey string `envconfig:"SUPABASE_SERVICE_KEY"`
	StorageBucketName  string `envconfig:"STORAGE_BUCKET_NAME" default:"report-images"`
	SupabaseJWKSURL    string `envconfig:"SUPABASE_JWKS_URL"`

	// Offline queue
	QueuePath       string `envconfig:"QUEUE_PATH" default:"hseguardian-queue.db"`
	SyncIntervalSec uint   `envconfig:"SYNC_INTERVAL_SEC" default:"60"`

	// Image compression
	ImageMaxEdge     int `envconfig:"IMAGE_MAX_EDGE" default:"1280"`
	ImageJPEGQuality int `envconfig:"IMAGE_JPEG_QUALITY" default:"75"`

	// Archive export
	ExportBucket string `envconfig:"EXPORT_BUCKET"`
	ExportPrefix string `envconfig:"EXPORT_PREFIX" default:"airtable-snapshots"`

	// Session auth
	SessionPassphrase string `envconfig:"SESSION_PASSPHRASE"`
	CookieName        string `envconfig:"SESSION_COOKIE_NAME" default:"session_id"`
	SessionMaxAgeSec  int    `envconfig:"SESSION_MAX_AGE_SEC" default:"604800"` // 7 days

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}
