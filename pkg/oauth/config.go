package oauth

// NotionConfig holds the public integration credentials. Load with the
// NOTION_ prefix.
type NotionConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
	AuthURL      string `env:"AUTH_URL" envDefault:"https://api.notion.com/v1/oauth/authorize"`
	TokenURL     string `env:"TOKEN_URL" envDefault:"https://api.notion.com/v1/oauth/token"`
}

// Enabled reports whether the integration is configured at all.
func (c NotionConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}
