package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/testmart/internal/flagx"
	"github.com/dmitrijs2005/testmart/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
// Keys missing from the file leave the current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	StorageKind      string `json:"storage"`
	DatabaseDSN      string `json:"database_dsn"`

	SecretKey                   string         `json:"secret_key"`
	Issuer                      string         `json:"issuer"`
	Audience                    string         `json:"audience"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`

	ConfirmationSecret                string         `json:"confirmation_secret"`
	ConfirmationTokenValidityDuration timex.Duration `json:"confirmation_token_validity_duration"`
	RequireConfirmedAccount           bool           `json:"require_confirmed_account"`
	ApplicationURL                    string         `json:"application_url"`

	PasswordMinLength          int  `json:"password_min_length"`
	PasswordRequireDigit       bool `json:"password_require_digit"`
	PasswordRequireLowercase   bool `json:"password_require_lowercase"`
	PasswordRequireUppercase   bool `json:"password_require_uppercase"`
	PasswordRequireNonAlphanum bool `json:"password_require_non_alphanumeric"`
	PasswordMinUniqueChars     int  `json:"password_min_unique_chars"`
	BcryptCost                 int  `json:"bcrypt_cost"`

	LockoutThreshold int            `json:"lockout_threshold"`
	LockoutDuration  timex.Duration `json:"lockout_duration"`

	MailerKind          string         `json:"mailer"`
	MailFrom            string         `json:"mail_from"`
	NotificationTimeout timex.Duration `json:"notification_timeout"`
	SMTPHost            string         `json:"smtp_host"`
	SMTPPort            int            `json:"smtp_port"`
	SMTPUser            string         `json:"smtp_user"`
	SMTPPassword        string         `json:"smtp_password"`
	S3RootUser          string         `json:"s3_root_user"`
	S3RootPassword      string         `json:"s3_root_password"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`

	RateLimit float64 `json:"rate_limit"`
}

// parseJSON loads the file named by -c/-config, if any, over config.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJSON(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	fromJSON(c, config)
	return nil
}

func toJSON(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:                  c.EndpointAddrHTTP,
		EndpointAddrGRPC:                  c.EndpointAddrGRPC,
		StorageKind:                       c.StorageKind,
		DatabaseDSN:                       c.DatabaseDSN,
		SecretKey:                         c.SecretKey,
		Issuer:                            c.Issuer,
		Audience:                          c.Audience,
		AccessTokenValidityDuration:       timex.Duration{Duration: c.AccessTokenValidityDuration},
		ConfirmationSecret:                c.ConfirmationSecret,
		ConfirmationTokenValidityDuration: timex.Duration{Duration: c.ConfirmationTokenValidityDuration},
		RequireConfirmedAccount:           c.RequireConfirmedAccount,
		ApplicationURL:                    c.ApplicationURL,
		PasswordMinLength:                 c.PasswordMinLength,
		PasswordRequireDigit:              c.PasswordRequireDigit,
		PasswordRequireLowercase:          c.PasswordRequireLowercase,
		PasswordRequireUppercase:          c.PasswordRequireUppercase,
		PasswordRequireNonAlphanum:        c.PasswordRequireNonAlphanum,
		PasswordMinUniqueChars:            c.PasswordMinUniqueChars,
		BcryptCost:                        c.BcryptCost,
		LockoutThreshold:                  c.LockoutThreshold,
		LockoutDuration:                   timex.Duration{Duration: c.LockoutDuration},
		MailerKind:                        c.MailerKind,
		MailFrom:                          c.MailFrom,
		NotificationTimeout:               timex.Duration{Duration: c.NotificationTimeout},
		SMTPHost:                          c.SMTPHost,
		SMTPPort:                          c.SMTPPort,
		SMTPUser:                          c.SMTPUser,
		SMTPPassword:                      c.SMTPPassword,
		S3RootUser:                        c.S3RootUser,
		S3RootPassword:                    c.S3RootPassword,
		S3Bucket:                          c.S3Bucket,
		S3Region:                          c.S3Region,
		S3BaseEndpoint:                    c.S3BaseEndpoint,
		RateLimit:                         c.RateLimit,
	}
}

func fromJSON(j *JsonConfig, c *Config) {
	c.EndpointAddrHTTP = j.EndpointAddrHTTP
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.StorageKind = j.StorageKind
	c.DatabaseDSN = j.DatabaseDSN
	c.SecretKey = j.SecretKey
	c.Issuer = j.Issuer
	c.Audience = j.Audience
	c.AccessTokenValidityDuration = j.AccessTokenValidityDuration.Duration
	c.ConfirmationSecret = j.ConfirmationSecret
	c.ConfirmationTokenValidityDuration = j.ConfirmationTokenValidityDuration.Duration
	c.RequireConfirmedAccount = j.RequireConfirmedAccount
	c.ApplicationURL = j.ApplicationURL
	c.PasswordMinLength = j.PasswordMinLength
	c.PasswordRequireDigit = j.PasswordRequireDigit
	c.PasswordRequireLowercase = j.PasswordRequireLowercase
	c.PasswordRequireUppercase = j.PasswordRequireUppercase
	c.PasswordRequireNonAlphanum = j.PasswordRequireNonAlphanum
	c.PasswordMinUniqueChars = j.PasswordMinUniqueChars
	c.BcryptCost = j.BcryptCost
	c.LockoutThreshold = j.LockoutThreshold
	c.LockoutDuration = j.LockoutDuration.Duration
	c.MailerKind = j.MailerKind
	c.MailFrom = j.MailFrom
	c.NotificationTimeout = j.NotificationTimeout.Duration
	c.SMTPHost = j.SMTPHost
	c.SMTPPort = j.SMTPPort
	c.SMTPUser = j.SMTPUser
	c.SMTPPassword = j.SMTPPassword
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.RateLimit = j.RateLimit
}
