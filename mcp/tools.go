package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lvillar/certgen"
	"github.com/lvillar/certgen/naming"
	"github.com/lvillar/certgen/storage"
)

// RegisterDefaultTools adds the certificate tools to the server. Inline CSV
// passed to generate_certificates is stored in uploadDir before generation.
func RegisterDefaultTools(s *Server, gen *certgen.Generator, uploadDir string) {
	s.AddTool(generateTool(gen, uploadDir))
	s.AddTool(listTemplatesTool(gen))
	s.AddTool(describeTemplateTool(gen))
	s.AddTool(deriveFilenameTool())
}

func generateTool(gen *certgen.Generator, uploadDir string) Tool {
	return Tool{
		Name:        "generate_certificates",
		Description: "Generate one certificate page per CSV row into a single PDF. Provide either csvPath (an existing .csv file) or csv (the file contents). Returns the generation result as JSON.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"csvPath": map[string]any{
					"type":        "string",
					"description": "Path to a roster CSV with First and Last columns",
				},
				"csv": map[string]any{
					"type":        "string",
					"description": "Roster CSV contents, used when csvPath is omitted",
				},
				"prefix": map[string]any{
					"type":        "string",
					"description": "Prefix of the generated file name",
				},
				"template": map[string]any{
					"type":        "string",
					"description": "Template id, see list_templates",
				},
				"details": map[string]any{
					"type":                 "object",
					"description":          "Field values shared by every page, e.g. courseName",
					"additionalProperties": map[string]any{"type": "string"},
				},
			},
			"required": []string{"prefix", "template"},
		},
		Handler: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			return handleGenerate(ctx, gen, uploadDir, args)
		},
	}
}

func handleGenerate(ctx context.Context, gen *certgen.Generator, uploadDir string, args map[string]any) (ToolResult, error) {
	prefix, _ := args["prefix"].(string)
	template, _ := args["template"].(string)
	if prefix == "" || template == "" {
		return ToolResult{}, errors.New("'prefix' and 'template' are required")
	}

	details := make(map[string]string)
	if raw, ok := args["details"].(map[string]any); ok {
		for k, v := range raw {
			s, ok := v.(string)
			if !ok {
				return ToolResult{}, fmt.Errorf("detail %q must be a string", k)
			}
			details[k] = s
		}
	}

	upload, _ := args["csvPath"].(string)
	if upload == "" {
		content, ok := args["csv"].(string)
		if !ok || content == "" {
			return ToolResult{}, errors.New("one of 'csvPath' or 'csv' is required")
		}
		path, err := storeUpload(uploadDir, content)
		if err != nil {
			return ToolResult{}, err
		}
		upload = path
	}

	res := gen.Generate(ctx, certgen.Request{
		Upload:   upload,
		Prefix:   prefix,
		Template: template,
		Details:  details,
	})
	out, err := json.Marshal(res)
	if err != nil {
		return ToolResult{}, err
	}
	result := textResult(string(out))
	result.IsError = !res.OK()
	return result, nil
}

func storeUpload(dir, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}
	path, err := storage.Resolve(dir, "upload-"+uuid.NewString()+"."+naming.Extension)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("storing upload: %w", err)
	}
	return path, nil
}

func listTemplatesTool(gen *certgen.Generator) Tool {
	return Tool{
		Name:        "list_templates",
		Description: "List the ids of the available certificate templates.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: func(ctx context.Context, _ map[string]any) (ToolResult, error) {
			ids, err := gen.Templates().List(ctx)
			if err != nil {
				return ToolResult{}, err
			}
			if ids == nil {
				ids = []string{}
			}
			out, err := json.Marshal(map[string]any{"templates": ids})
			if err != nil {
				return ToolResult{}, err
			}
			return textResult(string(out)), nil
		},
	}
}

func describeTemplateTool(gen *certgen.Generator) Tool {
	return Tool{
		Name:        "describe_template",
		Description: "Show the fields, styles and page decorations of a template. The field names are the detail keys generate_certificates expects.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{
					"type":        "string",
					"description": "Template id",
				},
			},
			"required": []string{"id"},
		},
		Handler: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			id, _ := args["id"].(string)
			if id == "" {
				return ToolResult{}, errors.New("missing 'id' argument")
			}
			text, err := describeTemplate(ctx, gen, id)
			if err != nil {
				return ToolResult{}, err
			}
			return textResult(text), nil
		},
	}
}

func describeTemplate(ctx context.Context, gen *certgen.Generator, id string) (string, error) {
	spec, err := gen.Templates().Load(ctx, id)
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func deriveFilenameTool() Tool {
	return Tool{
		Name:        "derive_filename",
		Description: "Compute the PDF name a generation would produce for an upload name and prefix, or explain why the upload name is rejected.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"prefix": map[string]any{
					"type":        "string",
					"description": "File name prefix",
				},
				"upload": map[string]any{
					"type":        "string",
					"description": "Upload file name, e.g. roster.csv",
				},
			},
			"required": []string{"prefix", "upload"},
		},
		Handler: func(_ context.Context, args map[string]any) (ToolResult, error) {
			prefix, _ := args["prefix"].(string)
			upload, _ := args["upload"].(string)
			name, err := naming.Derive(prefix, filepath.Base(upload))
			if err != nil {
				return ToolResult{}, err
			}
			return textResult(name + ".pdf"), nil
		},
	}
}
