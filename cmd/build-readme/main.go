package main

import (
	"github.com/rs/zerolog/log"

	"server-tags/internal/command/core"
	_ "server-tags/internal/command/greet"
	_ "server-tags/internal/command/tag"

	"server-tags/internal/docs"
	"server-tags/pkg/cmd"
)

func main() {
	data := docs.Data{
		CommandSections: docs.CommandSections(cmd.DefaultRegistry.GetAll(), core.CategoryOrder),
		TagScript:       core.TagScriptReference("!"),
	}
	if err := docs.UpdateReadme("README.md.tmpl", "README.md", data); err != nil {
		log.Fatal().Err(err).Msg("Failed to update README")
	}
}
