package report

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"

	"pyfix/internal/diag"
)

const (
	sarifSchemaURI = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion   = "2.1.0"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	InformationURI string      `json:"informationUri,omitempty"`
	Version        string      `json:"version,omitempty"`
	Rules          []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level,omitempty"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
	EndLine   int `json:"endLine,omitempty"`
}

var ruleDescriptions = map[string]string{
	"syntax":                     "Import statements could not be parsed",
	"no-multiple-imports":        "One module per import statement",
	"no-wildcard-imports":        "Wildcard imports obscure the namespace",
	"no-relative-imports":        "Use absolute module paths",
	"import-modules-not-symbols": "Import modules, not individual symbols",
	"unused-import":              "Every imported name must be used",
	"alias-naming":               "Aliases follow the conventional table",
	"import-order":               "Imports are grouped and sorted canonically",
}

func formatSARIF(rep Report) (string, error) {
	ruleSet := make(map[string]sarifRule)
	var results []sarifResult

	for _, file := range rep.Files {
		uri := artifactURI(rep.RepoPath, file.Path)
		for _, d := range file.Diagnostics {
			if _, seen := ruleSet[d.Rule]; !seen {
				ruleSet[d.Rule] = sarifRule{
					ID:               d.Rule,
					ShortDescription: sarifMessage{Text: ruleDescription(d.Rule)},
				}
			}
			results = append(results, sarifResult{
				RuleID:  d.Rule,
				Level:   sarifLevel(d.Severity),
				Message: sarifMessage{Text: d.Message},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: uri},
						Region:           sarifRegionFor(d),
					},
				}},
			})
		}
	}

	log := sarifLog{
		Schema:  sarifSchemaURI,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:    "pyfix",
					Version: rep.SchemaVersion,
					Rules:   sortedRules(ruleSet),
				},
			},
			Results: ensureResults(results),
		}},
	}

	payload, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", err
	}
	return string(payload) + "\n", nil
}

func ruleDescription(rule string) string {
	if text, ok := ruleDescriptions[rule]; ok {
		return text
	}
	return rule
}

func sarifLevel(severity diag.Severity) string {
	switch severity {
	case diag.SeverityError:
		return "error"
	case diag.SeverityNote:
		return "note"
	default:
		return "warning"
	}
}

func sarifRegionFor(d diag.Diagnostic) *sarifRegion {
	if d.Line < 1 {
		return nil
	}
	region := &sarifRegion{StartLine: d.Line}
	if d.EndLine > d.Line {
		region.EndLine = d.EndLine
	}
	return region
}

func artifactURI(repoPath, filePath string) string {
	if repoPath != "" {
		if rel, err := filepath.Rel(repoPath, filePath); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filePath)
}

func sortedRules(ruleSet map[string]sarifRule) []sarifRule {
	ids := make([]string, 0, len(ruleSet))
	for id := range ruleSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rules := make([]sarifRule, 0, len(ids))
	for _, id := range ids {
		rules = append(rules, ruleSet[id])
	}
	return rules
}

func ensureResults(results []sarifResult) []sarifResult {
	if results == nil {
		return []sarifResult{}
	}
	return results
}
