// Package emoji provides symbol constants for CLI output.
// These symbols create a consistent visual language across all command-line commands.
package emoji

// Status symbols.
const (
	// Success represents successful completion of an operation.
	// Used for: committed edit sessions, applied migrations.
	Success = "✓"

	// Error represents failures.
	// Used for: rolled back edit sessions, execution errors.
	Error = "✗"

	// Warning represents non-critical issues.
	// Used for: duplicate keys, dry runs.
	Warning = "!"

	// Info represents informational messages.
	Info = "i"
)

// Change symbols mark how a project was classified.
const (
	// Add marks a project that is new to the target.
	Add = "+"

	// Move marks a project whose location changed.
	Move = "~"

	// Delete marks rows removed from the target.
	Delete = "-"

	// Arrow separates an old value from a new one.
	Arrow = "→"
)
