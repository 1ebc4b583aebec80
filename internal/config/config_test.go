package config

import "testing"

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080, PublicBaseURL: "https://dash.example.com"},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "callaback", SSLMode: "disable"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth: AuthConfig{
			JWTSecret:     "secret",
			AdminUser:     "admin",
			AdminPassword: "hunter2",
		},
		Twilio: TwilioConfig{AccountSID: "AC123", AuthToken: "tok"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.DB.SSLMode = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validBase()
	c.DB.SSLMode = ""
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_RequiresTwilioCredentials(t *testing.T) {
	c := validBase()
	c.Twilio.AccountSID = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing TWILIO_ACCOUNT_SID")
	}
}

func TestCallbackURL(t *testing.T) {
	c := validBase()
	got := c.CallbackURL("webhooks/twilio/sms/status")
	want := "https://dash.example.com/webhooks/twilio/sms/status"
	if got != want {
		t.Fatalf("callback url: got %q want %q", got, want)
	}
}
