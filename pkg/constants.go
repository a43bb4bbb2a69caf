package shared

const (
	ProjectID = "fibit2obsidian" // Can be overridden by GOOGLE_CLOUD_PROJECT

	FitbitAPIBaseURL = "https://api.fitbit.com"
	FitbitTokenURL   = "https://api.fitbit.com/oauth2/token"

	// TokenSecretName is the Secret Manager secret holding the OAuth token pair.
	TokenSecretName = "fitbit-token"

	DefaultHeadingTemplate = "## 📊 Fitbitデータ ({date})"
	DefaultFilenameFormat  = "📅{date}({weekday}).md"
	DefaultWeekdayLabels   = "日,月,火,水,木,金,土"
	DefaultTimezone        = "Asia/Tokyo"
	DefaultRedirectURI     = "http://localhost"
	DefaultSyncDays        = 3
)
