package config

const (
	CategoryInformation = "🕯️ Information"
	CategoryUtilities   = "📢 Utilities"
	CategoryEconomy     = "💰 Economy"
	CategoryFun         = "🎲 Fun"
	CategoryCustom      = "💬 Custom"
	CategorySettings    = "⚙️ Settings"
)

// CategoryWeights orders categories in help listings; unknown categories sort last.
var CategoryWeights = map[string]int{
	CategoryInformation: 0,
	CategoryUtilities:   10,
	CategoryEconomy:     20,
	CategoryFun:         30,
	CategoryCustom:      40,
	CategorySettings:    50,
}
