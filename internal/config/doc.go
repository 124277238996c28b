// Package config loads gateway configuration from the environment, with
// optional hydration from AWS Secrets Manager and local .env files, and
// provider definitions from providers.yaml.
package config
