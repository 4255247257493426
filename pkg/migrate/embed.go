package migrate

import "embed"

// Embedded holds the SQL migrations compiled into the binary so the API can
// migrate without the source tree on disk.
//
//go:embed migrations/*.sql
var Embedded embed.FS

const embeddedDir = "migrations"
