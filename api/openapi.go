package main

import _ "embed"

// openapiYAML is served at /api/openapi.yaml and rendered by the Swagger UI.
//
//go:embed openapi.yaml
var openapiYAML []byte
