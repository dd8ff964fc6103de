// Package docs carries the OpenAPI document compiled into the binary, so the
// served spec never depends on the process working directory.
package docs

import _ "embed"

// OpenAPI is the raw OpenAPI 3 document for the service.
//
//go:embed openapi.yaml
var OpenAPI []byte
