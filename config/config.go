package config

// AppConfig holds the application configuration
type AppConfig struct {
	DBURL           string
	RedisAddress    string
	BearerToken     string
	LineAccessToken string
	LineAPIURL      string
	NurseGroupID    string
	NurseMailbox    string
	WorksheetLink   string
}

// GetBearerToken returns the BearerToken from the config
func (c *AppConfig) GetBearerToken() string {
	return c.BearerToken
}

// GetWorksheetLink returns the record-store link included in nurse alerts
func (c *AppConfig) GetWorksheetLink() string {
	return c.WorksheetLink
}
