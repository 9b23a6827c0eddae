package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/tick/internal/compiler"
	"github.com/aretw0/tick/pkg/domain"
)

// Loader implements ports.ConfigurationLoader over a directory of YAML or
// JSON documents. A story is served under the id declared in its document.
type Loader struct {
	dir    string
	parser *compiler.Parser
}

// NewLoader creates a loader reading the documents of dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir, parser: compiler.NewParser()}
}

// Load returns the configuration whose id is storyID.
func (l *Loader) Load(ctx context.Context, storyID string) (domain.Configuration, error) {
	docs, err := l.scan()
	if err != nil {
		return domain.Configuration{}, err
	}
	cfg, ok := docs[storyID]
	if !ok {
		return domain.Configuration{}, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, storyID)
	}
	return cfg, nil
}

// List returns the story ids found in the directory, sorted.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	docs, err := l.scan()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (l *Loader) scan() (map[string]domain.Configuration, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration directory: %w", err)
	}

	docs := make(map[string]domain.Configuration)
	paths := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		cfg, err := l.parser.ParseFile(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := paths[cfg.ID]; dup {
			return nil, fmt.Errorf("%s: story %q already declared in %s", path, cfg.ID, prev)
		}
		docs[cfg.ID] = cfg
		paths[cfg.ID] = path
	}
	return docs, nil
}
