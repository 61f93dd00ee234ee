package objects

type PromptMode string

const (
	// PromptModeSingle allows at most one selected base prompt.
	PromptModeSingle PromptMode = "single"

	// PromptModeBatch generates one image per selected base prompt.
	PromptModeBatch PromptMode = "batch"
)

// BasePrompt is a named entry of the base prompt list.
type BasePrompt struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// Center is a character position, both axes in [0, 1].
type Center struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MaxEnabledCharacters is the number of characters that may be enabled at once.
const MaxEnabledCharacters = 6

// CharacterPromptEntry is a character prompt as edited by the user.
// ID and Label are never sent to the API.
type CharacterPromptEntry struct {
	ID      string `json:"id"`
	Prompt  string `json:"prompt"`
	UC      string `json:"uc"`
	Center  Center `json:"center"`
	Enabled bool   `json:"enabled"`
	Label   string `json:"label,omitempty"`
}
