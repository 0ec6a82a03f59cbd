package relnotes

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/mdocs/mdocs/internal/pkg/errors"
)

var releaseLineRegex = regexp.MustCompile(`Release-notes-for-([0-9]+)\.([0-9]+)\.([0-9]+)\.md`)

const notesTemplate = `---
title: Release %s
short-description: Release notes for %s
...

# New features

`

type GenerateInput struct {
	SnippetsDir string
	MarkdownDir string
	SitemapPath string
	// FromVersion and ToVersion may be left empty; the newest release
	// notes entry in the sitemap then decides both.
	FromVersion string
	ToVersion   string
	// Stage shells out to git rm/add instead of plain file removal.
	Stage bool

	// git command runner, swapped out in tests
	Git func(ctx context.Context, dir string, args ...string) error
}

type Result struct {
	FromVersion string
	ToVersion   string
	NotesFile   string
	Snippets    []string
}

func runGit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// bumpVersion computes the next release number. The series rolled over
// from 0.64.0 straight to 1.0.0.
func bumpVersion(major, minor, patch string) string {
	if major == "0" && minor == "64" && patch == "0" {
		return "1.0.0"
	}
	var m int
	fmt.Sscanf(minor, "%d", &m)
	return fmt.Sprintf("%s.%d.%s", major, m+1, patch)
}

// detectVersions finds the newest release notes entry in the sitemap.
func detectVersions(sitemap string) (string, string, error) {
	raw, err := os.ReadFile(sitemap)
	if err != nil {
		return "", "", fmt.Errorf("read sitemap: %w", err)
	}
	m := releaseLineRegex.FindStringSubmatch(string(raw))
	if m == nil {
		return "", "", fmt.Errorf("no release notes entry in %s: %w", sitemap, appErr.ErrBadSitemap)
	}
	from := fmt.Sprintf("%s.%s.%s", m[1], m[2], m[3])
	return from, bumpVersion(m[1], m[2], m[3]), nil
}

// updateSitemap duplicates every release notes line mentioning the old
// version, placing the new version right above it with the same
// indentation.
func updateSitemap(path, fromVersion, toVersion string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read sitemap: %w", err)
	}
	var b strings.Builder
	found := false
	for _, line := range strings.SplitAfter(string(raw), "\n") {
		if strings.Contains(line, "Release-notes") && strings.Contains(line, fromVersion) {
			found = true
			b.WriteString(strings.ReplaceAll(line, fromVersion, toVersion))
		}
		b.WriteString(line)
	}
	if !found {
		return fmt.Errorf("version %s not in %s: %w", fromVersion, path, appErr.ErrBadSitemap)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// Generate writes the release notes page for the next version from the
// snippet files and bumps the sitemap. Consumed snippets are removed,
// with Stage through git so the change set is ready to commit.
func Generate(ctx context.Context, in GenerateInput) (*Result, error) {
	if in.Git == nil {
		in.Git = runGit
	}
	if in.SnippetsDir == "" {
		in.SnippetsDir = filepath.Join(in.MarkdownDir, "snippets")
	}
	if _, err := os.Stat(in.SnippetsDir); err != nil {
		return nil, fmt.Errorf("snippets dir: %w", err)
	}

	res := &Result{FromVersion: in.FromVersion, ToVersion: in.ToVersion}
	if res.FromVersion == "" || res.ToVersion == "" {
		from, to, err := detectVersions(in.SitemapPath)
		if err != nil {
			return nil, err
		}
		if res.FromVersion == "" {
			res.FromVersion = from
		}
		if res.ToVersion == "" {
			res.ToVersion = to
		}
	}
	if err := updateSitemap(in.SitemapPath, res.FromVersion, res.ToVersion); err != nil {
		return nil, err
	}

	res.NotesFile = filepath.Join(in.MarkdownDir, fmt.Sprintf("Release-notes-for-%s.md", res.ToVersion))

	var b strings.Builder
	fmt.Fprintf(&b, notesTemplate, res.ToVersion, res.ToVersion)

	snippets, err := doublestar.FilepathGlob(filepath.Join(in.SnippetsDir, "*.md"))
	if err != nil {
		return nil, err
	}
	sort.Strings(snippets)
	for _, file := range snippets {
		snippet, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		b.Write(snippet)
		if !strings.HasSuffix(string(snippet), "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
		res.Snippets = append(res.Snippets, file)
	}

	if err := os.WriteFile(res.NotesFile, []byte(b.String()), 0o644); err != nil {
		return nil, err
	}

	for _, file := range res.Snippets {
		if in.Stage {
			if err := in.Git(ctx, in.MarkdownDir, "rm", "-q", file); err != nil {
				return nil, fmt.Errorf("git rm %s: %w", file, err)
			}
		} else if err := os.Remove(file); err != nil {
			return nil, err
		}
	}
	if in.Stage {
		for _, file := range []string{res.NotesFile, in.SitemapPath} {
			if err := in.Git(ctx, in.MarkdownDir, "add", file); err != nil {
				return nil, fmt.Errorf("git add %s: %w", file, err)
			}
		}
	}
	logutil.GetLogger(ctx).Info("generated release notes",
		zap.String("version", res.ToVersion),
		zap.String("file", res.NotesFile),
		zap.Int("snippets", len(res.Snippets)))
	return res, nil
}
