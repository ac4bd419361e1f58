// Package app drives a whole run: configuration resolution, file
// discovery, parallel per-file analysis, and report rendering.
package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"pyfix/internal/analysis"
	"pyfix/internal/config"
	"pyfix/internal/report"
	"pyfix/internal/safeio"
	"pyfix/internal/workspace"
)

var (
	ErrUnknownMode      = errors.New("unknown mode")
	ErrDiagnosticsFound = errors.New("diagnostics found")
)

type Mode string

const (
	ModeCheck Mode = "check"
	ModeFix   Mode = "fix"
)

type Request struct {
	Mode       Mode
	Path       string // file or directory to analyze
	Format     report.Format
	ConfigPath string // explicit config file, "" uses discovery
	DryRun     bool   // fix: report the rewrite without writing it
	MaxWorkers int
}

type App struct {
	Service   *analysis.Service
	Formatter report.Formatter
}

func New() *App {
	return &App{
		Service:   analysis.NewService(),
		Formatter: report.NewFormatter(),
	}
}

// Execute runs one command. The formatted report is returned even when
// the run ends with ErrDiagnosticsFound, so callers can print it before
// mapping the error to an exit code.
func (a *App) Execute(ctx context.Context, req Request) (string, error) {
	switch req.Mode {
	case ModeCheck, ModeFix:
	default:
		return "", ErrUnknownMode
	}

	target, err := workspace.NormalizeRepoPath(req.Path)
	if err != nil {
		return "", err
	}
	baseDir, err := resolveBaseDir(target)
	if err != nil {
		return "", err
	}

	cfg, _, err := config.Load(baseDir, req.ConfigPath)
	if err != nil {
		return "", err
	}
	if err := seedRootsFromLayout(cfg, baseDir); err != nil {
		return "", err
	}

	files, err := workspace.PythonFiles(target)
	if err != nil {
		return "", err
	}

	fileReports, err := a.analyzeFiles(ctx, req, baseDir, files, cfg)
	if err != nil {
		return "", err
	}

	rep := report.Build(baseDir, fileReports, nil)
	formatted, err := a.Formatter.Format(rep, req.Format)
	if err != nil {
		return "", err
	}
	if remainingFindings(req.Mode, rep.Summary) {
		return formatted, ErrDiagnosticsFound
	}
	return formatted, nil
}

func (a *App) analyzeFiles(ctx context.Context, req Request, baseDir string, files []string, cfg *config.Config) ([]report.FileReport, error) {
	reports := make([]report.FileReport, len(files))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workerCount(req.MaxWorkers))
	for index, path := range files {
		group.Go(func() error {
			fileReport, err := a.analyzeFile(groupCtx, req, baseDir, path, cfg)
			if err != nil {
				return err
			}
			reports[index] = fileReport
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (a *App) analyzeFile(ctx context.Context, req Request, baseDir, path string, cfg *config.Config) (report.FileReport, error) {
	content, err := safeio.ReadFileUnder(baseDir, path)
	if err != nil {
		return report.FileReport{}, err
	}

	request := analysis.Request{
		Path:        path,
		Content:     content,
		PackagePath: workspace.PackagePath(baseDir, path),
		Config:      cfg,
	}
	result, err := a.Service.Fix(ctx, request)
	if err != nil {
		return report.FileReport{}, err
	}

	fileReport := report.FileReport{
		Path:        displayPath(baseDir, path),
		Diagnostics: result.Diagnostics,
		Rewritten:   result.Replacement != nil,
		Warnings:    result.Warnings,
		Original:    string(content),
		FixedText:   string(result.Fixed),
	}
	if req.Mode == ModeFix && !req.DryRun && result.Replacement != nil {
		if err := safeio.WriteFileUnder(baseDir, path, result.Fixed); err != nil {
			return report.FileReport{}, err
		}
		fileReport.Fixed = true
	}
	return fileReport, nil
}

// remainingFindings decides whether the run fails. A check fails on any
// diagnostic; a fix fails only on diagnostics no rewrite could resolve.
func remainingFindings(mode Mode, summary report.Summary) bool {
	if mode == ModeCheck {
		return summary.DiagnosticCount > 0
	}
	return summary.DiagnosticCount > summary.FixableCount
}

func resolveBaseDir(target string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return target, nil
	}
	return filepath.Dir(target), nil
}

func seedRootsFromLayout(cfg *config.Config, baseDir string) error {
	if len(cfg.FirstPartyRoots) > 0 || len(cfg.LocalSourceRoots) > 0 {
		return nil
	}
	roots, err := workspace.DetectRoots(baseDir)
	if err != nil {
		return err
	}
	sort.Strings(roots.FirstParty)
	sort.Strings(roots.Local)
	cfg.FirstPartyRoots = roots.FirstParty
	cfg.LocalSourceRoots = roots.Local
	return nil
}

func displayPath(baseDir, path string) string {
	if rel, err := filepath.Rel(baseDir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func workerCount(requested int) int {
	if requested > 0 {
		return requested
	}
	return runtime.NumCPU()
}
