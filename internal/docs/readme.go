// Package docs renders the command reference into README.md.
package docs

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"sort"
	"text/template"

	"github.com/rs/zerolog/log"

	"server-tags/internal/command"
	"server-tags/pkg/cmd"
)

// CommandSections lists commands under category headings. Categories follow
// order; the rest come after it alphabetically.
func CommandSections(commands []cmd.Command, order []string) string {
	category := func(c cmd.Command) string {
		if meta, ok := command.Meta(c); ok {
			return meta.Category()
		}
		return "Other"
	}
	weight := func(cat string) int {
		if w := slices.Index(order, cat); w >= 0 {
			return w
		}
		return len(order)
	}

	sorted := slices.Clone(commands)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := category(sorted[i]), category(sorted[j])
		if wi, wj := weight(ci), weight(cj); wi != wj {
			return wi < wj
		}
		if ci != cj {
			return ci < cj
		}
		return sorted[i].Name() < sorted[j].Name()
	})

	var buf bytes.Buffer
	current := ""
	for _, c := range sorted {
		if cat := category(c); cat != current {
			if current != "" {
				buf.WriteString("\n")
			}
			current = cat
			fmt.Fprintf(&buf, "### %s\n\n", current)
		}
		fmt.Fprintf(&buf, "- **/%s** - %s\n", c.Name(), c.Description())
	}
	return buf.String()
}

// Data fills README.md.tmpl.
type Data struct {
	CommandSections string
	TagScript       string
}

// UpdateReadme renders tmplPath with data into outPath.
func UpdateReadme(tmplPath, outPath string, data Data) error {
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	if err := os.WriteFile(outPath, out.Bytes(), 0644); err != nil {
		return err
	}

	log.Info().Str("path", outPath).Msg("README updated with current commands")
	return nil
}
