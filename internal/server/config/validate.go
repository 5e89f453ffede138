package config

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/testmart/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
)

// MinSecretBytes is the minimum size of the signing and confirmation secrets.
const MinSecretBytes = 32

// Validate checks the configuration once at startup. Any problem is fatal:
// the returned error wraps common.ErrorConfiguration and the server must not
// start. Secret values never appear in the message.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.EndpointAddrHTTP, validation.Required),
		validation.Field(&c.StorageKind, validation.Required, validation.In(StoragePostgres, StorageMemory)),
		validation.Field(&c.SecretKey, validation.Required, validation.By(minBytes(MinSecretBytes))),
		validation.Field(&c.Issuer, validation.Required),
		validation.Field(&c.Audience, validation.Required),
		validation.Field(&c.AccessTokenValidityDuration, validation.Required, validation.Min(1)),
		validation.Field(&c.ConfirmationSecret, validation.Required, validation.By(minBytes(MinSecretBytes)), validation.By(c.distinctFromSecretKey)),
		validation.Field(&c.ConfirmationTokenValidityDuration, validation.Required, validation.Min(1)),
		validation.Field(&c.ApplicationURL, validation.Required),
		validation.Field(&c.PasswordMinLength, validation.Required, validation.Min(1)),
		validation.Field(&c.PasswordMinUniqueChars, validation.Min(0)),
		validation.Field(&c.BcryptCost, validation.Required, validation.Min(4), validation.Max(31)),
		validation.Field(&c.LockoutThreshold, validation.Min(0)),
		validation.Field(&c.LockoutDuration, validation.Required, validation.Min(1)),
		validation.Field(&c.MailerKind, validation.Required, validation.In(MailerSMTP, MailerS3, MailerNone)),
		validation.Field(&c.NotificationTimeout, validation.Required, validation.Min(1)),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
	)

	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	if c.StorageKind == StoragePostgres && c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DatabaseDSN: cannot be blank for postgres storage"))
	}
	switch c.MailerKind {
	case MailerNone:
		if c.RequireConfirmedAccount {
			errs = append(errs, errors.New("RequireConfirmedAccount: confirmation links cannot be delivered without a mailer; configure smtp or s3, or set TESTMART_REQUIRE_CONFIRMED_ACCOUNT=false"))
		}
	case MailerSMTP:
		if c.SMTPHost == "" || c.SMTPPort <= 0 || c.MailFrom == "" {
			errs = append(errs, errors.New("smtp mailer requires SMTPHost, SMTPPort and MailFrom"))
		}
	case MailerS3:
		if c.S3Bucket == "" || c.S3Region == "" || c.MailFrom == "" {
			errs = append(errs, errors.New("s3 mailer requires S3Bucket, S3Region and MailFrom"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", common.ErrorConfiguration, errors.Join(errs...))
	}
	return nil
}

func minBytes(n int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) < n {
			return fmt.Errorf("must be at least %d bytes long", n)
		}
		return nil
	}
}

func (c *Config) distinctFromSecretKey(value interface{}) error {
	s, _ := value.(string)
	if s != "" && s == c.SecretKey {
		return errors.New("must differ from SecretKey")
	}
	return nil
}
