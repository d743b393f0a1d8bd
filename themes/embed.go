package themes

import (
	"embed"
)

// FS provides the embedded default theme configs.
//
//go:embed *.yaml
var FS embed.FS
