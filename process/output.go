package process

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"go.uber.org/zap"

	"margo/config"
	"margo/content"
	"margo/state"
)

// Values holds variables made available for output name template expansion.
type Values struct {
	Context    string
	Name       string // source file name without extension
	Ext        string // output extension, with the dot
	Title      string // first heading of the page, empty when none
	Language   string
	SourceFile string // source file name as given, with extension
}

// buildOutputPath returns the constructed output file path based on input
// path and configuration. It uses either the default naming scheme or a
// user-defined template and takes into account whether to preserve source
// directory structure on the output.
func buildOutputPath(d *content.Document, src, dst string, env *state.LocalEnv) string {
	outDir := dst
	if !env.NoDirs {
		if dir := filepath.Dir(src); dir != "." {
			outDir = filepath.Join(dst, dir)
		}
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	defaultFile := config.CleanFileName(base) + ".annotated" + outputExt(src)

	if env.Cfg.Document.OutputNameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expanded, err := expandTemplate(d, config.OutputNameTemplateFieldName, env.Cfg.Document.OutputNameTemplate, src)
	if err != nil || len(strings.TrimSpace(expanded)) == 0 {
		env.Log.Warn("Unable to prepare output filename, using default", zap.Error(err))
		return filepath.Join(outDir, defaultFile)
	}

	// template may produce subdirectories
	parts := []string{outDir}
	for _, segment := range strings.Split(filepath.ToSlash(expanded), "/") {
		if segment = strings.TrimSpace(segment); segment != "" {
			parts = append(parts, config.CleanFileName(segment))
		}
	}
	if len(parts) == 1 {
		return filepath.Join(outDir, defaultFile)
	}
	return filepath.Join(parts...)
}

func expandTemplate(d *content.Document, name config.TemplateFieldName, field, src string) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:    string(name),
		Name:       strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		Ext:        outputExt(src),
		Title:      pageTitle(d),
		Language:   d.Lang.String(),
		SourceFile: filepath.Base(src),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// outputExt keeps the source extension except for plain text input, which
// always leaves the pipeline as markup.
func outputExt(src string) string {
	ext := filepath.Ext(src)
	if ext == "" || strings.EqualFold(ext, ".txt") {
		return ".html"
	}
	return ext
}

func pageTitle(d *content.Document) string {
	for _, tag := range []string{"h1", "h2", "h3", "title"} {
		if e := d.Root.FindElement("//" + tag); e != nil {
			return strings.TrimSpace(e.Text())
		}
	}
	return ""
}
