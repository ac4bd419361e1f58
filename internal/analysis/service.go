// Package analysis runs the scan, parse, classify, reference-count, and
// rule passes over one file revision and memoizes the outcome.
package analysis

import (
	"context"
	"strings"

	"pyfix/internal/config"
	"pyfix/internal/imports"
	"pyfix/internal/rewrite"
	"pyfix/internal/rules"
	"pyfix/internal/scan"
	"pyfix/internal/usage"
)

type Service struct {
	cache *resultCache
}

func NewService() *Service {
	return &Service{cache: newResultCache(defaultCacheEntries)}
}

// Check analyzes one file revision. The same revision with the same
// configuration always yields the same result.
func (s *Service) Check(ctx context.Context, req Request) (Result, error) {
	if req.Config == nil {
		req.Config = config.Default()
	}

	key := requestDigest(req)
	if cached, ok := s.cache.get(key); ok {
		return cached, nil
	}

	result, err := s.analyze(ctx, req)
	if err != nil {
		return Result{}, err
	}
	s.cache.put(key, result)
	return result, nil
}

// Fix is Check with the guarantee that Fixed is populated: when a safe
// replacement exists, Fixed is the rewritten content, otherwise it is the
// input unchanged. Fixing is idempotent: analyzing Fixed finds no further
// safe rewrite.
func (s *Service) Fix(ctx context.Context, req Request) (Result, error) {
	result, err := s.Check(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if result.Fixed == nil {
		result.Fixed = req.Content
	}
	return result, nil
}

func (s *Service) analyze(ctx context.Context, req Request) (Result, error) {
	var result Result

	scanned := scan.File(string(req.Content))
	parsed := imports.Parse(scanned.Lines)

	references, err := s.references(ctx, req, parsed.Records)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, err
		}
		result.Warnings = append(result.Warnings,
			"reference analysis unavailable: "+err.Error())
		references = nil
	}

	result.Diagnostics = rules.Evaluate(rules.Input{
		Lines:        scanned.Lines,
		Records:      parsed.Records,
		Problems:     parsed.Problems,
		ScanWarnings: scanned.Warnings,
		Config:       req.Config,
		PackagePath:  req.PackagePath,
		Usage:        references,
	})

	// A partial parse means line numbers past the failure are untrusted:
	// keep the diagnostics, drop every fix, and never rewrite.
	if parsed.TailStart >= 0 {
		for i := range result.Diagnostics {
			result.Diagnostics[i].Fix = nil
		}
		return result, nil
	}

	replacement, ok := rewrite.Region(rewrite.Input{
		Lines:       scanned.Lines,
		Records:     parsed.Records,
		Config:      req.Config,
		PackagePath: req.PackagePath,
		Usage:       references,
	})
	if ok {
		result.Replacement = &replacement
		result.Fixed = applyReplacement(req.Content, replacement)
	}
	return result, nil
}

// references runs the reference scan over every name the file binds.
// A grammar-level failure degrades analysis instead of failing it.
func (s *Service) references(ctx context.Context, req Request, records []imports.Record) (usage.Result, error) {
	seen := make(map[string]bool)
	var bound []string
	for _, record := range records {
		for _, name := range record.BoundNames() {
			identifier := name.Bound()
			if identifier == "" || seen[identifier] {
				continue
			}
			seen[identifier] = true
			bound = append(bound, identifier)
		}
	}
	if len(bound) == 0 {
		return nil, nil
	}
	return usage.Analyze(ctx, req.Content, bound)
}

func applyReplacement(content []byte, replacement rewrite.Replacement) []byte {
	lines := strings.Split(string(content), "\n")
	out := append([]string{}, lines[:replacement.StartLine]...)
	out = append(out, strings.Split(strings.TrimSuffix(replacement.Text, "\n"), "\n")...)
	out = append(out, lines[replacement.EndLine+1:]...)
	return []byte(strings.Join(out, "\n"))
}
