// Package docs embeds reference material shown by the CLI.
package docs

import _ "embed"

//go:embed GRAMMAR.md
var Grammar string
