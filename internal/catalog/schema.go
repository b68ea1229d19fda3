package catalog

import (
	"github.com/invopop/jsonschema"
)

// Schemas returns a JSON schema for each catalog file, keyed by file name.
func Schemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
	}
	files := []struct {
		name        string
		doc         any
		title       string
		description string
	}{
		{TerrainFileName, new(TerrainFile), "Ironhold Terrain Types", "Base and overlay terrain with flags and minimap colours"},
		{UnitFileName, new(UnitFile), "Ironhold Unit Types", "Unit and building definitions with costs and build lists"},
		{FactionFileName, new(FactionFile), "Ironhold Factions", "Playable civilisations"},
		{ResourceFileName, new(ResourceFile), "Ironhold Resources", "Display names and colours of stockpiled resources"},
	}

	out := make(map[string]*jsonschema.Schema, len(files))
	for _, f := range files {
		schema := reflector.Reflect(f.doc)
		schema.Title = f.title
		schema.Description = f.description
		out[f.name] = schema
	}
	return out
}
