package score

import "embed"

// SchemaFS contains the embedded score JSON schema.
//
//go:embed score-schema.json
var SchemaFS embed.FS
