package catalog

// The document types mirror the JSON files under data/. They are exported so
// cmd/schema can reflect a JSON schema for editor tooling.

// TerrainDocument is one entry of terrain.json.
type TerrainDocument struct {
	Ident          string            `json:"ident" jsonschema:"title=Ident,pattern=^[a-z0-9\-]+$,minLength=1,required"`
	Name           string            `json:"name" jsonschema:"description=Display name"`
	Overlay        bool              `json:"overlay,omitempty" jsonschema:"description=Drawn over a compatible base terrain"`
	Buildable      bool              `json:"buildable,omitempty"`
	Pathway        bool              `json:"pathway,omitempty" jsonschema:"description=Road or railroad"`
	Flags          []string          `json:"flags" jsonschema:"description=Save-file flag words such as land or wood"`
	MovementBonus  int               `json:"movementBonus,omitempty"`
	Resource       string            `json:"resource,omitempty" jsonschema:"description=Resource granted by an overlay"`
	ResourceAmount int               `json:"resourceAmount,omitempty"`
	HitPoints      int               `json:"hitPoints,omitempty" jsonschema:"description=Default tile value of wall overlays"`
	BaseTypes      []string          `json:"baseTypes,omitempty" jsonschema:"description=Compatible base terrains; the first is the primary"`
	SolidTiles     []int             `json:"solidTiles,omitempty"`
	DamagedTiles   []int             `json:"damagedTiles,omitempty"`
	DestroyedTiles []int             `json:"destroyedTiles,omitempty"`
	Color          string            `json:"color" jsonschema:"description=Minimap colour as #rrggbb or a colour name"`
	SeasonColors   map[string]string `json:"seasonColors,omitempty"`
}

// FeatureDocument is one named terrain feature.
type FeatureDocument struct {
	Ident      string `json:"ident" jsonschema:"required"`
	Name       string `json:"name"`
	Terrain    string `json:"terrain" jsonschema:"required"`
	TradeRoute bool   `json:"tradeRoute,omitempty"`
}

// TerrainFile is the contents of terrain.json.
type TerrainFile struct {
	Types    []TerrainDocument `json:"types" jsonschema:"required"`
	Features []FeatureDocument `json:"features,omitempty"`
}

// ConstructionDocument is one construction keyframe.
type ConstructionDocument struct {
	Percent int `json:"percent" jsonschema:"minimum=0,maximum=100"`
	Frame   int `json:"frame"`
}

// VariationDocument is a terrain-restricted visual variant.
type VariationDocument struct {
	Ident            string   `json:"ident" jsonschema:"required"`
	Name             string   `json:"name,omitempty"`
	Terrains         []string `json:"terrains,omitempty"`
	ForbiddenTerrain []string `json:"forbiddenTerrain,omitempty"`
}

// UnitDocument is one entry of units.json.
type UnitDocument struct {
	Ident         string `json:"ident" jsonschema:"title=Ident,pattern=^unit-[a-z0-9\-]+$,required"`
	Name          string `json:"name"`
	Width         int    `json:"width" jsonschema:"minimum=1,required"`
	Height        int    `json:"height" jsonschema:"minimum=1,required"`
	Movement      string `json:"movement,omitempty" jsonschema:"enum=land,enum=air,enum=sea"`
	NumDirections int    `json:"numDirections,omitempty"`
	StillFrame    int    `json:"stillFrame,omitempty"`

	Building        bool `json:"building,omitempty"`
	TownHall        bool `json:"townHall,omitempty"`
	Wall            bool `json:"wall,omitempty"`
	Item            bool `json:"item,omitempty"`
	Decoration      bool `json:"decoration,omitempty"`
	Diminutive      bool `json:"diminutive,omitempty"`
	BuilderOutside  bool `json:"builderOutside,omitempty"`
	BuilderLost     bool `json:"builderLost,omitempty"`
	NoRandomPlacing bool `json:"noRandomPlacing,omitempty"`
	AirUnpassable   bool `json:"airUnpassable,omitempty"`
	Vanishes        bool `json:"vanishes,omitempty"`

	AutoBuildRate int `json:"autoBuildRate,omitempty" jsonschema:"description=Percent of normal speed when no builder is inside"`
	TrainQuantity int `json:"trainQuantity,omitempty"`
	DecayRate     int `json:"decayRate,omitempty"`
	RepairHP      int `json:"repairHp,omitempty"`
	RepairRange   int `json:"repairRange,omitempty"`

	Construction []ConstructionDocument `json:"construction,omitempty"`
	TerrainType  string                 `json:"terrainType,omitempty" jsonschema:"description=Terrain stamped onto the map once built"`

	GivesResource    string   `json:"givesResource,omitempty"`
	CanHarvest       bool     `json:"canHarvest,omitempty"`
	ResourceCapacity int      `json:"resourceCapacity,omitempty"`
	Harvests         []string `json:"harvests,omitempty"`
	CanStore         []string `json:"canStore,omitempty"`
	OnTopOf          string   `json:"onTopOf,omitempty"`
	CanBuild         []string `json:"canBuild,omitempty"`
	CanTrain         []string `json:"canTrain,omitempty"`

	NeutralMinimapColor string              `json:"neutralMinimapColor,omitempty"`
	Variations          []VariationDocument `json:"variations,omitempty"`

	Costs      map[string]int `json:"costs,omitempty" jsonschema:"description=Amounts keyed by cost name; time is the build or train time"`
	HitPoints  int            `json:"hitPoints,omitempty"`
	Shield     int            `json:"shield,omitempty"`
	SightRange int            `json:"sightRange,omitempty"`
	Supply     int            `json:"supply,omitempty"`
	Demand     int            `json:"demand,omitempty"`
}

// UnitFile is the contents of units.json.
type UnitFile []UnitDocument

// FactionDocument is one entry of factions.json.
type FactionDocument struct {
	Ident       string `json:"ident" jsonschema:"required"`
	Name        string `json:"name"`
	NoWorkforce bool   `json:"noWorkforce,omitempty" jsonschema:"description=Structures construct at full rate without builders"`
}

// FactionFile is the contents of factions.json.
type FactionFile []FactionDocument

// ResourceDocument is one entry of resources.json.
type ResourceDocument struct {
	Ident string `json:"ident" jsonschema:"enum=time,enum=gold,enum=wood,enum=stone,enum=oil,required"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// ResourceFile is the contents of resources.json.
type ResourceFile []ResourceDocument
