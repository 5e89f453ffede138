package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/testmart/internal/flagx"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by parseEnv.
const EnvPrefix = "TESTMART_"

const defaultEnvFile = ".env"

// parseEnv loads the dotenv file (given with -env, otherwise ./.env when it
// exists) into the process environment and then copies every TESTMART_*
// variable that is set into config. Variables already present in the
// environment win over the file.
func parseEnv(config *Config, args []string) error {
	path := flagx.EnvFileFlag(args)
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	e := envReader{}

	e.str("HTTP_ADDR", &config.EndpointAddrHTTP)
	e.str("GRPC_ADDR", &config.EndpointAddrGRPC)
	e.str("STORAGE", &config.StorageKind)
	e.str("DATABASE_DSN", &config.DatabaseDSN)

	e.str("JWT_SECRET", &config.SecretKey)
	e.str("JWT_ISSUER", &config.Issuer)
	e.str("JWT_AUDIENCE", &config.Audience)
	e.minutes("JWT_EXPIRY_MINUTES", &config.AccessTokenValidityDuration)

	e.str("CONFIRMATION_SECRET", &config.ConfirmationSecret)
	e.duration("CONFIRMATION_TTL", &config.ConfirmationTokenValidityDuration)
	e.boolean("REQUIRE_CONFIRMED_ACCOUNT", &config.RequireConfirmedAccount)
	e.str("APPLICATION_URL", &config.ApplicationURL)

	e.integer("PASSWORD_MIN_LENGTH", &config.PasswordMinLength)
	e.boolean("PASSWORD_REQUIRE_DIGIT", &config.PasswordRequireDigit)
	e.boolean("PASSWORD_REQUIRE_LOWERCASE", &config.PasswordRequireLowercase)
	e.boolean("PASSWORD_REQUIRE_UPPERCASE", &config.PasswordRequireUppercase)
	e.boolean("PASSWORD_REQUIRE_NON_ALPHANUMERIC", &config.PasswordRequireNonAlphanum)
	e.integer("PASSWORD_MIN_UNIQUE_CHARS", &config.PasswordMinUniqueChars)
	e.integer("BCRYPT_COST", &config.BcryptCost)

	e.integer("LOCKOUT_THRESHOLD", &config.LockoutThreshold)
	e.duration("LOCKOUT_DURATION", &config.LockoutDuration)

	e.str("MAILER", &config.MailerKind)
	e.str("MAIL_FROM", &config.MailFrom)
	e.duration("NOTIFICATION_TIMEOUT", &config.NotificationTimeout)
	e.str("SMTP_HOST", &config.SMTPHost)
	e.integer("SMTP_PORT", &config.SMTPPort)
	e.str("SMTP_USER", &config.SMTPUser)
	e.str("SMTP_PASSWORD", &config.SMTPPassword)
	e.str("S3_ROOT_USER", &config.S3RootUser)
	e.str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	e.str("S3_BUCKET", &config.S3Bucket)
	e.str("S3_REGION", &config.S3Region)
	e.str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)

	e.float("RATE_LIMIT", &config.RateLimit)

	return errors.Join(e.errs...)
}

// envReader collects parse errors so that every malformed variable is
// reported at once.
type envReader struct {
	errs []error
}

func (e *envReader) lookup(name string) (string, bool) {
	return os.LookupEnv(EnvPrefix + name)
}

func (e *envReader) fail(name string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.lookup(name); ok {
		*dst = v
	}
}

func (e *envReader) integer(name string, dst *int) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(name, err)
		return
	}
	*dst = n
}

func (e *envReader) float(name string, dst *float64) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(name, err)
		return
	}
	*dst = f
}

func (e *envReader) boolean(name string, dst *bool) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(name, err)
		return
	}
	*dst = b
}

func (e *envReader) duration(name string, dst *time.Duration) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, err)
		return
	}
	*dst = d
}

func (e *envReader) minutes(name string, dst *time.Duration) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(name, err)
		return
	}
	*dst = time.Duration(n) * time.Minute
}
