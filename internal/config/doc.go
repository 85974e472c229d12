// Package config carries the CLI configuration surface: a JSON file with
// LOGSHIP_* environment overlays and an OS-aware default data directory.
// Library embedders configure logship.Options directly and do not go
// through this package.
package config
