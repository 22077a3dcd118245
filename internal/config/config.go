// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

// Package config builds the explicit configuration value handed to every component. Values come,
// from lowest to highest precedence, from defaults, the YAML config file, environment variables
// (a .env file included) and command flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/alvinbaena/pwdguard/internal/util"
	"github.com/alvinbaena/pwdguard/pkg/hibp"
)

const (
	appName  = "pwdguard"
	fileType = "yaml"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Lookup LookupConfig `mapstructure:"lookup"`
	SMTP   SMTPConfig   `mapstructure:"smtp"`
	Server ServerConfig `mapstructure:"server"`
}

type LookupConfig struct {
	URL       string        `mapstructure:"url" validate:"required,url"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent string        `mapstructure:"user_agent" validate:"required"`
	Padding   bool          `mapstructure:"padding"`
}

// SMTPConfig is optional as a whole. When every field is empty notifications are disabled.
type SMTPConfig struct {
	Server         string `mapstructure:"server" yaml:"server" validate:"required"`
	Port           int    `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	SenderEmail    string `mapstructure:"sender_email" yaml:"sender_email" validate:"required,email"`
	SenderPassword string `mapstructure:"sender_password" yaml:"sender_password" validate:"required"`
	StartTLS       bool   `mapstructure:"starttls" yaml:"starttls"`
}

func (s SMTPConfig) IsZero() bool {
	return s.Server == "" && s.SenderEmail == "" && s.SenderPassword == ""
}

func (s SMTPConfig) Validate() error {
	return validateSection("smtp", s)
}

type ServerConfig struct {
	Port      uint16  `mapstructure:"port" validate:"required"`
	SelfTLS   bool    `mapstructure:"self_tls" validate:"required_without_all=TLSCert TLSKey"`
	TLSCert   string  `mapstructure:"tls_cert" validate:"required_if=SelfTLS false,required_with=TLSKey"`
	TLSKey    string  `mapstructure:"tls_key" validate:"required_if=SelfTLS false,required_with=TLSCert"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"gt=0"`
	Burst     int     `mapstructure:"burst" validate:"gt=0"`
	// Proxies allowed to set the client IP through X-Forwarded-For. Empty trusts none, so
	// callers are told apart by their remote address.
	TrustedProxies []string `mapstructure:"trusted_proxies" validate:"omitempty,dive,ip|cidr"`
}

func (s ServerConfig) Validate() error {
	return validateSection("server", s)
}

var defaults = map[string]any{
	"lookup.url":        hibp.DefaultURL,
	"lookup.timeout":    hibp.DefaultTimeout,
	"lookup.user_agent": hibp.DefaultUserAgent,
	"lookup.padding":    true,
	"smtp.port":         465,
	"smtp.starttls":     false,
	"server.port":       3100,
	"server.self_tls":   false,
	"server.rate_limit": 5.0,
	"server.burst":      10,
}

// Names used by earlier deployments, still honored.
var legacyEnvs = map[string]string{
	"smtp.sender_email":    "SENDER_EMAIL",
	"smtp.sender_password": "SENDER_PASSWORD",
}

// Command flags that override a config key, when the command defines them.
var flagKeys = map[string]string{
	"timeout":         "lookup.timeout",
	"port":            "server.port",
	"self-tls":        "server.self_tls",
	"tls-cert":        "server.tls_cert",
	"tls-key":         "server.tls_key",
	"rate-limit":      "server.rate_limit",
	"burst":           "server.burst",
	"trusted-proxies": "server.trusted_proxies",
}

var envReplacer = strings.NewReplacer(".", "_")

// DefaultPath is where the config file is looked for, and written to, when none is given.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, appName, appName+"."+fileType), nil
}

// LoadDotEnv exports the variables of a .env file into the environment. A missing file is
// not an error.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func bindEnvs(v *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)
	for i := 0; i < ift.NumField(); i++ {
		fv := ifv.Field(i)
		t := ift.Field(i)
		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}
		switch fv.Kind() {
		case reflect.Struct:
			bindEnvs(v, fv.Interface(), append(parts, tv)...)
		default:
			key := strings.Join(append(parts, tv), ".")
			envs := []string{strings.ToUpper(envReplacer.Replace(key))}
			if legacy, ok := legacyEnvs[key]; ok {
				envs = append(envs, legacy)
			}
			_ = v.BindEnv(append([]string{key}, envs...)...)
		}
	}
}

// Load reads the configuration. configFile overrides the default search path, which is the
// user config directory and then the working directory. cmd may be nil, otherwise its flags
// listed in flagKeys take precedence over everything else. Only the lookup section is
// validated here; the SMTP and server sections are validated by the commands that use them.
func Load(cmd *cobra.Command, configFile string) (config Config, err error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(appName)
	v.SetConfigType(fileType)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if path, err := DefaultPath(); err == nil {
			v.AddConfigPath(filepath.Dir(path))
		}
		v.AddConfigPath(".")
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Binding every key lets env vars unmarshal into the struct without a config file.
	v.SetEnvKeyReplacer(envReplacer)
	bindEnvs(v, config)

	if cmd != nil {
		for name, key := range flagKeys {
			if flag := cmd.Flags().Lookup(name); flag != nil {
				if err = v.BindPFlag(key, flag); err != nil {
					return config, err
				}
			}
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("error parsing configuration: %w", err)
	}

	err = validateSection("lookup", config.Lookup)
	return
}

// WriteSMTP stores the SMTP section in the config file at path, keeping every other section of
// an existing file. The file may contain a password so it is only readable by its owner.
func WriteSMTP(path string, smtp SMTPConfig) error {
	doc := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err = yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("error parsing existing config file %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	doc["smtp"] = smtp
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", dir, err)
	}

	if err = os.WriteFile(path, data, 0600); err != nil {
		return err
	}
	// WriteFile keeps the mode of a file that already existed.
	return os.Chmod(path, 0600)
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "required_without_all":
		return fmt.Sprintf("This field is required if fields [%s] are missing", util.ToScreamingSnakeCase(fe.Param()))
	case "required_if":
		return fmt.Sprintf("This field is required if %s", util.ToScreamingSnakeCase(fe.Param()))
	case "required_with":
		return fmt.Sprintf("This is field requires the presence of %s", util.ToScreamingSnakeCase(fe.Param()))
	case "email":
		return "This field must be a valid email address"
	case "url":
		return "This field must be a valid URL"
	case "min":
		return fmt.Sprintf("This field must be at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("This field must be greater than %s", fe.Param())
	case "max":
		return fmt.Sprintf("This field must be at most %s", fe.Param())
	case "ip|cidr":
		return "This field must be an IP address or a CIDR range"
	}
	return fe.Error() // default error
}

var validate = func() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	return val
}()

func validateSection(section string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	var msgs []string
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("%s: %s", util.ToScreamingSnakeCase(section+"_"+fe.Field()), msgForTag(fe)))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, ". "))
}
