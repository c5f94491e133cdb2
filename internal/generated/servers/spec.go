package servers

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggo/swag"
)

//go:embed openapi.json
var rawSpec []byte

// GetSwagger returns the parsed OpenAPI document. Every call returns a fresh
// copy, so callers may mutate it.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	swagger, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	return swagger, nil
}

// RawSpec returns the OpenAPI document as embedded.
func RawSpec() []byte {
	return rawSpec
}

var registerOnce sync.Once

type swaggerDoc struct{}

func (swaggerDoc) ReadDoc() string {
	return string(rawSpec)
}

// RegisterSwaggerDoc publishes the document to swag so echo-swagger serves it.
func RegisterSwaggerDoc() {
	registerOnce.Do(func() {
		swag.Register(swag.Name, swaggerDoc{})
	})
}
