package hcl

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/gridrun/internal/config"
	"github.com/vk/gridrun/internal/ctxlog"
	"github.com/vk/gridrun/internal/fsutil"
	"github.com/vk/gridrun/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the entire HCL configuration loading process. It is
// agnostic to the origin of the paths and merges grid blocks from any file.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := &config.Model{Settings: &config.Settings{}}

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	if len(hclFiles) == 0 {
		return nil, nil, config.Errorf("no .hcl grid files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, config.Errorf("failed to parse grid file %s: %w", file, diags)
		}

		var root schema.GridConfig
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, nil, config.Errorf("failed to decode grid file %s: %w", file, diags)
		}

		// Translate and merge all discovered blocks into the model.
		for _, axis := range root.Axes {
			model.Axes = append(model.Axes, &config.Axis{Name: axis.Name, Values: axis.Values})
		}
		for _, step := range root.Steps {
			translated, err := l.translateStep(step)
			if err != nil {
				return nil, nil, err
			}
			model.Steps = append(model.Steps, translated)
		}
		for _, settings := range root.Settings {
			translated, err := l.translateSettings(settings)
			if err != nil {
				return nil, nil, err
			}
			mergeSettings(model.Settings, translated)
		}
	}

	logger.Debug("HCL loading complete.",
		"axes", len(model.Axes), "steps", len(model.Steps))
	return model, NewConverter(), nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found, in lexical path order.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, config.Errorf("error accessing grid path %s: %w", path, err)
		}

		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, config.Errorf("error walking grid path %s: %w", path, err)
			}
			for _, p := range found {
				if _, wasSeen := seen[p]; !wasSeen {
					allFiles = append(allFiles, p)
					seen[p] = struct{}{}
				}
			}
		} else if filepath.Ext(path) == ".hcl" {
			if _, wasSeen := seen[path]; !wasSeen {
				allFiles = append(allFiles, path)
				seen[path] = struct{}{}
			}
		}
	}
	return allFiles, nil
}
