// Package schemas holds the JSON Schema documents shipped with the binary.
package schemas

import _ "embed"

// PortfolioSchemaFile is the file name of the portfolio document schema.
const PortfolioSchemaFile = "portfolio.schema.json"

// Portfolio is the JSON Schema of a normalized portfolio document.
//
//go:embed portfolio.schema.json
var Portfolio string
