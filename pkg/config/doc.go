// Package config loads configuration structs from environment variables.
//
// It wraps github.com/joho/godotenv for reading .env files and
// github.com/caarlos0/env/v11 for tag-driven parsing. File values only fill
// in variables the environment does not already define, so deployment
// settings always win over a checked-in .env.
//
// # Usage
//
//	var cfg form.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// Tests pass WithEnviron to avoid touching the process environment:
//
//	err := config.Load(&cfg, config.WithEnviron(map[string]string{
//	    "FORM_MODE": "onBlur",
//	}))
package config
