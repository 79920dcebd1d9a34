package config

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/dagflow/internal/ctxlog"
)

// Load parses and decodes a single `.bgf` HCL graph file into a Model,
// exactly the two-step parse-then-decode the teacher's engine.DecodeGridFile
// performs.
func Load(ctx context.Context, path string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding graph definition file.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: failed to parse %s: %s", path, diags.Error())
	}

	var m Model
	if diags := gohcl.DecodeBody(file.Body, nil, &m); diags.HasErrors() {
		return nil, fmt.Errorf("config: failed to decode %s: %s", path, diags.Error())
	}

	logger.Debug("Decoded graph definition file.", "path", path, "nodes", len(m.Nodes), "edges", len(m.Edges))
	return &m, nil
}
