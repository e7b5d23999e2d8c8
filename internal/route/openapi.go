package route

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPI renders the route table as an OpenAPI 3 document. Request and
// response payloads are described as free-form objects.
func OpenAPI(title, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   openapi3.NewPaths(),
	}

	for _, rt := range routes {
		item := doc.Paths.Value(rt.Path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(rt.Path, item)
		}

		op := openapi3.NewOperation()
		op.OperationID = rt.Method
		op.Tags = []string{"Applications"}
		for _, p := range rt.params {
			op.AddParameter(openapi3.NewPathParameter(p).WithSchema(openapi3.NewStringSchema()))
		}
		if rt.Body {
			op.RequestBody = &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(openapi3.NewObjectSchema()),
			}
		}
		ok := openapi3.NewResponse().
			WithDescription("A successful response.").
			WithJSONSchema(openapi3.NewObjectSchema())
		op.Responses = openapi3.NewResponses(openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: ok}))

		item.SetOperation(rt.Verb, op)
	}
	return doc
}
