package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxPromptLength is the maximum accepted prompt length in runes.
// Longer prompts are rejected before reaching the generation collaborator.
const MaxPromptLength = 2000

// ValidatePrompt validates a free-text prompt before it is sent to the
// generation collaborator.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only prompts
//   - No control characters (except tab and newline)
//   - Must be valid UTF-8
//   - Maximum length of MaxPromptLength runes
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return New(ErrCodePrompt, "prompt cannot be empty")
	}

	if !utf8.ValidString(prompt) {
		return New(ErrCodePrompt, "prompt contains invalid UTF-8")
	}

	if n := utf8.RuneCountInString(prompt); n > MaxPromptLength {
		return New(ErrCodePrompt, "prompt too long: %d runes (max %d)", n, MaxPromptLength)
	}

	for _, r := range prompt {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return New(ErrCodePrompt, "prompt contains control characters")
		}
	}

	return nil
}

// ValidateOutputPath validates a user-supplied output file path.
// It ensures the path is non-empty and free of null bytes; the operating
// system handles the rest at file-creation time.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodePrompt, "output path cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodePrompt, "output path contains invalid characters")
	}
	return nil
}
