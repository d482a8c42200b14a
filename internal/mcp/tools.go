package mcp

// ResolveInput is the input of the resolve tool.
type ResolveInput struct {
	ID     string `json:"id" jsonschema:"document identifier, e.g. dn1 or mn10"`
	Author string `json:"author,omitempty" jsonschema:"preferred translation author; falls back when unavailable"`
}

// IDInput is the input of tools that take only an identifier.
type IDInput struct {
	ID string `json:"id" jsonschema:"document identifier"`
}

// EmptyInput is the input of tools without parameters.
type EmptyInput struct{}

// TriggerOutput reports the outcome of pipeline_trigger.
type TriggerOutput struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var toolInfos = []ToolInfo{
	{
		Name:        "resolve",
		Description: "Resolve a document identifier to its full facet bundle: root text, the selected translation, HTML structure, comments, variants, references and publication metadata. Missing facets are returned as empty objects.",
	},
	{
		Name:        "translations",
		Description: "List the translation authors available for a document identifier, with display names.",
	},
	{
		Name:        "legacy",
		Description: "Fetch the flat-text fallback document for an identifier that is absent from the segmented corpus.",
	},
	{
		Name:        "pipeline_trigger",
		Description: "Start a corpus refresh run in the background. Returns accepted, already_running or start_failed.",
	},
	{
		Name:        "pipeline_status",
		Description: "Report whether a corpus refresh is running, how the last run ended, and its recent log lines.",
	},
}
