package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"pyfix/internal/safeio"
)

const (
	readConfigFileErrFmt = "read config file %s: %w"
	parseConfigErrFmt    = "parse config file %s: %w"
)

// Overrides is the on-disk configuration shape. Nil fields leave the
// corresponding default untouched; slices and maps replace it wholesale.
type Overrides struct {
	AliasTable          map[string]string `yaml:"aliases" toml:"aliases"`
	TypingExemptModules []string          `yaml:"typing_exempt" toml:"typing_exempt"`
	FirstPartyRoots     []string          `yaml:"first_party_roots" toml:"first_party_roots"`
	LocalSourceRoots    []string          `yaml:"local_source_roots" toml:"local_source_roots"`
	MaxLineWidth        *int              `yaml:"max_line_width" toml:"max_line_width"`
}

func (o Overrides) Apply(base *Config) *Config {
	resolved := base.Clone()
	if o.AliasTable != nil {
		resolved.AliasTable = make(map[string]string, len(o.AliasTable))
		for module, alias := range o.AliasTable {
			resolved.AliasTable[module] = alias
		}
	}
	if o.TypingExemptModules != nil {
		resolved.TypingExemptModules = append([]string(nil), o.TypingExemptModules...)
	}
	if o.FirstPartyRoots != nil {
		resolved.FirstPartyRoots = append([]string(nil), o.FirstPartyRoots...)
	}
	if o.LocalSourceRoots != nil {
		resolved.LocalSourceRoots = append([]string(nil), o.LocalSourceRoots...)
	}
	if o.MaxLineWidth != nil {
		resolved.MaxLineWidth = *o.MaxLineWidth
	}
	return resolved
}

type pyprojectFile struct {
	Tool struct {
		Pyfix *Overrides `toml:"pyfix"`
	} `toml:"tool"`
}

// Load resolves the effective configuration for a project root: built-in
// defaults, then the [tool.pyfix] table of pyproject.toml, then a
// .pyfix.yml / .pyfix.yaml file, then an explicitly passed path. Later
// layers win field by field.
func Load(rootPath, explicitPath string) (*Config, []string, error) {
	rootAbs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve project root: %w", err)
	}

	resolved := Default()
	sources := []string{"defaults"}

	pyprojectPath := filepath.Join(rootAbs, "pyproject.toml")
	if overrides, found, err := loadPyproject(pyprojectPath); err != nil {
		return nil, nil, err
	} else if found {
		resolved = overrides.Apply(resolved)
		sources = append(sources, pyprojectPath)
	}

	for _, name := range []string{".pyfix.yml", ".pyfix.yaml"} {
		candidate := filepath.Join(rootAbs, name)
		overrides, found, err := loadYAML(candidate)
		if err != nil {
			return nil, nil, err
		}
		if found {
			resolved = overrides.Apply(resolved)
			sources = append(sources, candidate)
			break
		}
	}

	if strings.TrimSpace(explicitPath) != "" {
		candidate := strings.TrimSpace(explicitPath)
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(rootAbs, candidate)
		}
		overrides, found, err := loadYAML(candidate)
		if err != nil {
			return nil, nil, err
		}
		if !found {
			return nil, nil, fmt.Errorf("config file not found: %s", candidate)
		}
		resolved = overrides.Apply(resolved)
		sources = append(sources, candidate)
	}

	if err := resolved.Validate(); err != nil {
		return nil, nil, err
	}
	return resolved, sources, nil
}

func loadYAML(path string) (Overrides, bool, error) {
	payload, err := safeio.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Overrides{}, false, nil
		}
		return Overrides{}, false, fmt.Errorf(readConfigFileErrFmt, path, err)
	}
	var overrides Overrides
	if err := yaml.Unmarshal(payload, &overrides); err != nil {
		return Overrides{}, false, fmt.Errorf(parseConfigErrFmt, path, err)
	}
	return overrides, true, nil
}

func loadPyproject(path string) (Overrides, bool, error) {
	payload, err := safeio.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Overrides{}, false, nil
		}
		return Overrides{}, false, fmt.Errorf(readConfigFileErrFmt, path, err)
	}
	var parsed pyprojectFile
	if err := toml.Unmarshal(payload, &parsed); err != nil {
		return Overrides{}, false, fmt.Errorf(parseConfigErrFmt, path, err)
	}
	if parsed.Tool.Pyfix == nil {
		return Overrides{}, false, nil
	}
	return *parsed.Tool.Pyfix, true, nil
}
