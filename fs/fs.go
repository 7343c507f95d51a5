// Package appfs embeds files needed at runtime (DB migrations) so the
// compiled binary is self-contained.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
