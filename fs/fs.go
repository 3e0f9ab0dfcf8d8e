package appfs

import "embed"

// FS embeds the static assets shipped with the binary.
//go:embed migrations/*.sql templates/email/* common-passwords.txt
var FS embed.FS
