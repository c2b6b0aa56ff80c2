// Package build implements the static-site asset pipeline: content-hashed
// copies of CSS/JS assets, passthrough static files, HTML reference
// rewriting with minification, and the generated cache/security policy.
package build

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Asset lists are fixed: these are the files the site's pages reference.
// Files missing from the source tree are skipped, not errors.
var (
	cssFiles    = []string{"main.css", "bootstrap.min.css"}
	jsFiles     = []string{"main.js", "bootstrap.min.js"}
	staticFiles = []string{"robots.txt", "sitemap.xml"}
	staticDirs  = []string{"images", "favicons"}
)

// Pipeline builds the production site from SrcDir into DistDir.
type Pipeline struct {
	SrcDir  string
	DistDir string

	// Logf receives one line per processed file. Defaults to a no-op
	// so library use stays quiet; the CLI wires it to stdout.
	Logf func(format string, args ...any)
}

// New creates a pipeline for the given source and output directories.
func New(srcDir, distDir string) *Pipeline {
	return &Pipeline{
		SrcDir:  srcDir,
		DistDir: distDir,
		Logf:    func(string, ...any) {},
	}
}

// Run executes a full build: hashed CSS/JS assets, static passthrough
// files, rewritten and minified HTML, and the .htaccess policy file.
// Any filesystem write failure aborts the build.
func (p *Pipeline) Run() error {
	for _, dir := range []string{"assets/css", "assets/js", "assets/images", "assets/favicons"} {
		if err := os.MkdirAll(filepath.Join(p.DistDir, dir), 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	assetMap := make(map[string]string)

	if err := p.publishAssets(filepath.Join(p.SrcDir, "css"), "assets/css", "/css", cssFiles, assetMap); err != nil {
		return err
	}
	if err := p.publishAssets(filepath.Join(p.SrcDir, "js"), "assets/js", "/js", jsFiles, assetMap); err != nil {
		return err
	}

	if err := p.copyStatic(); err != nil {
		return err
	}

	if err := p.processHTML(assetMap); err != nil {
		return err
	}

	if err := writePolicy(p.DistDir); err != nil {
		return err
	}
	p.Logf("✓ .htaccess")

	return nil
}

// hashToken returns the first 8 hex characters of the SHA-256 digest of
// content. The token is a pure function of the bytes, so unchanged files
// keep their output filename across builds.
func hashToken(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:8]
}

// publishAssets content-hashes each named file from srcDir into
// distSubDir and records logicalPrefix/name -> hashed URL in assetMap.
func (p *Pipeline) publishAssets(srcDir, distSubDir, logicalPrefix string, names []string, assetMap map[string]string) error {
	for _, name := range names {
		srcPath := filepath.Join(srcDir, name)
		content, err := os.ReadFile(srcPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to read asset %s: %w", srcPath, err)
		}

		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		hashedName := fmt.Sprintf("%s.%s%s", base, hashToken(content), ext)

		destPath := filepath.Join(p.DistDir, distSubDir, hashedName)
		if err := os.WriteFile(destPath, content, 0644); err != nil {
			return fmt.Errorf("failed to write asset %s: %w", destPath, err)
		}

		assetMap[logicalPrefix+"/"+name] = "/" + distSubDir + "/" + hashedName
		p.Logf("✓ %s → %s", name, hashedName)
	}
	return nil
}

// copyStatic copies passthrough files and directory trees verbatim.
func (p *Pipeline) copyStatic() error {
	for _, name := range staticFiles {
		srcPath := filepath.Join(p.SrcDir, name)
		if _, err := os.Stat(srcPath); os.IsNotExist(err) {
			continue
		}
		if err := copyFile(srcPath, filepath.Join(p.DistDir, name)); err != nil {
			return err
		}
		p.Logf("✓ %s", name)
	}

	for _, dir := range staticDirs {
		srcPath := filepath.Join(p.SrcDir, dir)
		if info, err := os.Stat(srcPath); err != nil || !info.IsDir() {
			continue
		}
		destPath := filepath.Join(p.DistDir, "assets", dir)
		if err := copyDir(srcPath, destPath); err != nil {
			return err
		}
		p.Logf("✓ %s/", dir)
	}

	return nil
}

// processHTML rewrites asset references in every HTML document at the
// source root and writes the minified result to the output root.
func (p *Pipeline) processHTML(assetMap map[string]string) error {
	entries, err := os.ReadDir(p.SrcDir)
	if err != nil {
		return fmt.Errorf("failed to read source directory %s: %w", p.SrcDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}

		srcPath := filepath.Join(p.SrcDir, entry.Name())
		content, err := os.ReadFile(srcPath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", srcPath, err)
		}

		html := rewriteReferences(string(content), assetMap)
		html = Minify(html)

		destPath := filepath.Join(p.DistDir, entry.Name())
		if err := os.WriteFile(destPath, []byte(html), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", destPath, err)
		}
		p.Logf("✓ %s", entry.Name())
	}

	return nil
}

// rewriteReferences replaces every occurrence of each logical asset path
// with its hashed counterpart. Paths are disjoint literal strings, so
// replacement order does not matter.
func rewriteReferences(html string, assetMap map[string]string) string {
	for logical, hashed := range assetMap {
		html = strings.ReplaceAll(html, logical, hashed)
	}
	return html
}

// copyFile copies a single file, overwriting the destination.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}

// copyDir recursively copies a directory tree.
func copyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dst, err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", src, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}
