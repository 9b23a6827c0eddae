package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tool declares a handler served by a local command.
type Tool struct {
	// Handler is the full handler name, e.g. "shop:checkout".
	Handler     string            `yaml:"handler" json:"handler"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ToolsFile is the layout of a tools.yaml or tools.json file.
type ToolsFile struct {
	Tools []Tool `yaml:"tools" json:"tools"`
}

// LoadTools reads a tools file, YAML unless the extension is .json.
func LoadTools(path string) (map[string]Tool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tools: %w", err)
	}

	var file ToolsFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse tools %s: %w", path, err)
	}

	tools := make(map[string]Tool, len(file.Tools))
	for i, t := range file.Tools {
		switch {
		case t.Handler == "":
			return nil, fmt.Errorf("tools %s: entry %d has no handler", path, i)
		case t.Command == "":
			return nil, fmt.Errorf("tools %s: %s has no command", path, t.Handler)
		}
		if _, dup := tools[t.Handler]; dup {
			return nil, fmt.Errorf("tools %s: %s declared twice", path, t.Handler)
		}
		tools[t.Handler] = t
	}
	return tools, nil
}
