package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskline/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv overlays values from a dotenv file and the process environment.
// The file named by -env must exist; the default ".env" is optional. Process
// variables take precedence over the file, and empty values are ignored.
//
// Each setting accepts a TASKLINE_ prefixed name and, where one exists, the
// conventional unprefixed name (SECRET_KEY, SUPABASE_URL, ...).
func parseEnv(c *Config, args []string) error {
	file := flagx.EnvFile(args)
	explicit := file != ""
	if !explicit {
		file = defaultEnvFile
	}

	fileVars, err := godotenv.Read(file)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read env file %s: %w", file, err)
		}
		fileVars = map[string]string{}
	}

	lookup := func(names ...string) (string, bool) {
		for _, n := range names {
			if v, ok := os.LookupEnv(n); ok && v != "" {
				return v, true
			}
			if v, ok := fileVars[n]; ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
	str := func(dst *string, names ...string) {
		if v, ok := lookup(names...); ok {
			*dst = v
		}
	}

	str(&c.Environment, "TASKLINE_ENVIRONMENT", "ENVIRONMENT")
	str(&c.EndpointAddr, "TASKLINE_HTTP_ADDR")
	str(&c.EndpointAddrGRPC, "TASKLINE_GRPC_ADDR")
	str(&c.SecretKey, "TASKLINE_SECRET_KEY", "SECRET_KEY")
	str(&c.LogLevel, "TASKLINE_LOG_LEVEL", "LOG_LEVEL")
	str(&c.FrontendURL, "TASKLINE_FRONTEND_URL", "FRONTEND_URL")
	str(&c.MirrorURL, "TASKLINE_MIRROR_URL", "SUPABASE_URL")
	str(&c.MirrorKey, "TASKLINE_MIRROR_KEY", "SUPABASE_KEY")
	str(&c.S3RootUser, "TASKLINE_S3_ROOT_USER")
	str(&c.S3RootPassword, "TASKLINE_S3_ROOT_PASSWORD")
	str(&c.S3Bucket, "TASKLINE_S3_BUCKET")
	str(&c.S3Region, "TASKLINE_S3_REGION")
	str(&c.S3BaseEndpoint, "TASKLINE_S3_BASE_ENDPOINT")
	str(&c.FirstSuperuserEmail, "TASKLINE_FIRST_SUPERUSER_EMAIL", "FIRST_SUPERUSER_EMAIL")
	str(&c.FirstSuperuserPassword, "TASKLINE_FIRST_SUPERUSER_PASSWORD", "FIRST_SUPERUSER_PASSWORD")

	if v, ok := lookup("TASKLINE_CORS_ORIGINS", "BACKEND_CORS_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}

	if v, ok := lookup("TASKLINE_ACCESS_TOKEN_EXPIRE_MINUTES", "ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES: invalid value %q", v)
		}
		c.AccessTokenValidityDuration = time.Duration(minutes) * time.Minute
	}

	if v, ok := lookup("TASKLINE_DATABASE_DSN", "DATABASE_URL"); ok {
		c.DatabaseDSN = v
	} else if host, ok := lookup("DB_HOST"); ok {
		c.DatabaseDSN = composeDSN(host, lookup)
	}

	return nil
}

// composeDSN builds a PostgreSQL DSN from the discrete DB_* variables.
func composeDSN(host string, lookup func(...string) (string, bool)) string {
	get := func(name, def string) string {
		if v, ok := lookup(name); ok {
			return v
		}
		return def
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(get("DB_USER", "postgres"), get("DB_PASSWORD", "")),
		Host:     host + ":" + get("DB_PORT", "5432"),
		Path:     "/" + get("DB_NAME", "postgres"),
		RawQuery: "sslmode=" + get("DB_SSLMODE", "disable"),
	}
	return u.String()
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
