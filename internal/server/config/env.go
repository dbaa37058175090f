package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/alumnae/internal/flagx"
)

// Environment variables recognised by parseEnv.
const (
	EnvAddress        = "ADDRESS"
	EnvDatabaseDSN    = "DATABASE_DSN"
	EnvSecretKey      = "JWT_SECRET"
	EnvTokenIssuer    = "JWT_ISSUER"
	EnvTokenAudience  = "JWT_AUDIENCE"
	EnvTokenValidity  = "JWT_VALIDITY"
	EnvBcryptCost     = "BCRYPT_COST"
	EnvMaxAttempts    = "MAX_LOGIN_ATTEMPTS"
	EnvLockDuration   = "LOCK_DURATION"
	EnvSweepInterval  = "REVOCATION_SWEEP_INTERVAL"
	EnvLoginRateLimit = "LOGIN_RATE_LIMIT"
	EnvLoginRateBurst = "LOGIN_RATE_BURST"
	EnvMaxUploadSize  = "MAX_UPLOAD_SIZE"
	EnvS3RootUser     = "S3_ROOT_USER"
	EnvS3RootPassword = "S3_ROOT_PASSWORD"
	EnvS3Bucket       = "S3_BUCKET"
	EnvS3Region       = "S3_REGION"
	EnvS3BaseEndpoint = "S3_BASE_ENDPOINT"
	EnvPresignTTL     = "S3_PRESIGN_TTL"
	EnvLogLevel       = "LOG_LEVEL"
)

// parseEnv overlays values from the process environment. Variables from the
// dotenv file named by -envfile (default ".env") are loaded first; a missing
// file is not an error and variables already set in the process win.
// Malformed numeric or duration values panic.
func parseEnv(config *Config) {
	if err := godotenv.Load(flagx.EnvFileFlag()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	envString(&config.EndpointAddrHTTP, EnvAddress)
	envString(&config.DatabaseDSN, EnvDatabaseDSN)
	envString(&config.SecretKey, EnvSecretKey)
	envString(&config.TokenIssuer, EnvTokenIssuer)
	envString(&config.TokenAudience, EnvTokenAudience)
	envDuration(&config.TokenValidityDuration, EnvTokenValidity)
	envInt(&config.BcryptCost, EnvBcryptCost)
	envInt(&config.MaxLoginAttempts, EnvMaxAttempts)
	envDuration(&config.LockDuration, EnvLockDuration)
	envDuration(&config.RevocationSweepInterval, EnvSweepInterval)
	if v, ok := os.LookupEnv(EnvLoginRateLimit); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		config.LoginRateLimit = f
	}
	envInt(&config.LoginRateBurst, EnvLoginRateBurst)
	if v, ok := os.LookupEnv(EnvMaxUploadSize); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(err)
		}
		config.MaxUploadSize = n
	}
	envString(&config.S3RootUser, EnvS3RootUser)
	envString(&config.S3RootPassword, EnvS3RootPassword)
	envString(&config.S3Bucket, EnvS3Bucket)
	envString(&config.S3Region, EnvS3Region)
	envString(&config.S3BaseEndpoint, EnvS3BaseEndpoint)
	envDuration(&config.PresignTTL, EnvPresignTTL)
	envString(&config.LogLevel, EnvLogLevel)
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
