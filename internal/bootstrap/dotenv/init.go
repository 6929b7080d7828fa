// Package dotenv loads a .env file as a side effect of being imported.
// Binaries blank-import it so local overrides land before flag parsing and
// config loading. Servers reach the same loader through confkit at config
// time; the sync.Once inside keeps the two paths from double-loading.
package dotenv

import "apollo67-api/pkg/confkit"

func init() {
	confkit.LoadDotenvOnce()
}
