package config

const (
	// MaxInputChars is the default ceiling on conversion input, in characters.
	// Roughly 25k tokens, which fits the default managed model comfortably.
	MaxInputChars = 100000

	// MaxUploadBytes bounds multipart uploads. UTF-8 needs at most 4 bytes per
	// character, so any file that can pass MaxInputChars fits.
	MaxUploadBytes = 4*MaxInputChars + 64<<10

	// Temperature keeps provider output near-deterministic
	Temperature = 0.1

	// MaxOutputTokens is the output ceiling requested from every provider
	MaxOutputTokens = 8192
)
