package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/todoserver/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProd
	defaultTokenTTL     = 15 * time.Minute
	defaultTokenHeader  = "Authorization"
)

var defaultUserRoles = []string{"USER"}

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the todo service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// JWT tokens are signed with symmetric algorithm, so this key is used for that purpose
	SecretKey string

	// Environment
	Environment string

	// Lifetime of issued tokens
	TokenTTL time.Duration

	// Response header login puts the issued token to
	TokenHeader string

	// Roles of newly registered users
	UserRoles []string

	// Accept "true" and "false" strings as todo completion flag
	LenientBooleans bool

	// How often expired revocations are dropped; zero disables sweeping
	RevocationSweep time.Duration
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		Environment: defaultEnvironment,
		TokenTTL:    defaultTokenTTL,
		TokenHeader: defaultTokenHeader,
		UserRoles:   append([]string(nil), defaultUserRoles...),
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}
	setBool := func(o *bool) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			*o = b
			return nil
		}
	}
	setList := func(o *[]string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = strings.Split(value, ",")
			}
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":               setString(&c.ListenAddr),
		"DATABASE_URI":              setString(&c.DatabaseDSN),
		"SECRET_KEY":                setString(&c.SecretKey),
		"LOG_LEVEL":                 setString(&c.LogLevel),
		"ENVIRONMENT":               setString(&c.Environment),
		"TOKEN_TTL":                 setDuration(&c.TokenTTL),
		"TOKEN_HEADER":              setString(&c.TokenHeader),
		"USER_ROLES":                setList(&c.UserRoles),
		"LENIENT_BOOLEANS":          setBool(&c.LenientBooleans),
		"REVOCATION_SWEEP_INTERVAL": setDuration(&c.RevocationSweep),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("todoserver", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.DurationVarP(&c.TokenTTL, "token-ttl", "t", c.TokenTTL, "Lifetime of issued tokens")
	fs.StringVar(&c.TokenHeader, "token-header", c.TokenHeader, "Response header to put issued token to")
	fs.StringSliceVar(&c.UserRoles, "user-roles", c.UserRoles, "Roles of newly registered users")
	fs.BoolVar(&c.LenientBooleans, "lenient-booleans", c.LenientBooleans, "Accept \"true\" and \"false\" strings as booleans")
	fs.DurationVar(&c.RevocationSweep, "revocation-sweep", c.RevocationSweep, "Interval to drop expired revoked tokens, 0 disables")

	return fs.Parse(args)
}

// Validate checks options without defaults are set
func (c *Config) Validate() error {
	switch {
	case c.DatabaseDSN == "":
		return errors.New("database connection string is required")
	case c.SecretKey == "":
		return errors.New("secret key is required")
	case c.TokenTTL <= 0:
		return errors.New("token ttl must be positive")
	case c.RevocationSweep < 0:
		return errors.New("revocation sweep interval must not be negative")
	}
	return nil
}
