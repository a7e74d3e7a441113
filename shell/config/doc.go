// Package config reads the runtime configuration from the environment, optionally seeded from a .env file,
// and provides factories for the three supported PostgreSQL connection types.
package config
