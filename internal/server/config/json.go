package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/taskline/internal/flagx"
	"github.com/dmitrijs2005/taskline/internal/timex"
)

// JsonConfig is the on-disk shape of the -c/-config file. Durations accept
// both "30m" and integer nanoseconds. Absent or empty fields leave the
// current value in place.
type JsonConfig struct {
	Environment                 string         `json:"environment"`
	EndpointAddr                string         `json:"endpoint_addr"`
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	LogLevel                    string         `json:"log_level"`
	CORSOrigins                 []string       `json:"cors_origins"`
	FrontendURL                 string         `json:"frontend_url"`
	MirrorURL                   string         `json:"mirror_url"`
	MirrorKey                   string         `json:"mirror_key"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	FirstSuperuserEmail         string         `json:"first_superuser_email"`
	FirstSuperuserPassword      string         `json:"first_superuser_password"`
}

// parseJson loads the file named by -c or -config, if any, into config.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFile(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&config.Environment, c.Environment)
	set(&config.EndpointAddr, c.EndpointAddr)
	set(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.SecretKey, c.SecretKey)
	set(&config.LogLevel, c.LogLevel)
	set(&config.FrontendURL, c.FrontendURL)
	set(&config.MirrorURL, c.MirrorURL)
	set(&config.MirrorKey, c.MirrorKey)
	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.FirstSuperuserEmail, c.FirstSuperuserEmail)
	set(&config.FirstSuperuserPassword, c.FirstSuperuserPassword)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}

	return nil
}
