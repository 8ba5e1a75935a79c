package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/lvillar/certgen"
)

const templatesURI = "certgen://templates"

// RegisterDefaultResources adds the template catalogue and the per-template
// resources.
func RegisterDefaultResources(s *Server, gen *certgen.Generator) {
	s.AddResource(Resource{
		URI:         templatesURI,
		Name:        "Certificate templates",
		Description: "Ids of the available certificate templates",
		MIMEType:    "application/json",
		Handler: func(ctx context.Context, uri string) ([]ResourceContent, error) {
			ids, err := gen.Templates().List(ctx)
			if err != nil {
				return nil, err
			}
			if ids == nil {
				ids = []string{}
			}
			data, err := json.Marshal(ids)
			if err != nil {
				return nil, err
			}
			return []ResourceContent{{URI: uri, MIMEType: "application/json", Text: string(data)}}, nil
		},
	})

	s.AddResourceTemplate(ResourceTemplate{
		URITemplate: templatesURI + "/{id}",
		Name:        "Certificate template",
		Description: "Fields and decorations of one template",
		MIMEType:    "application/json",
		Prefix:      templatesURI + "/",
		Handler: func(ctx context.Context, uri string) ([]ResourceContent, error) {
			id := strings.TrimPrefix(uri, templatesURI+"/")
			text, err := describeTemplate(ctx, gen, id)
			if err != nil {
				return nil, err
			}
			return []ResourceContent{{URI: uri, MIMEType: "application/json", Text: text}}, nil
		},
	})
}
