package cli

// Desire-path shortcuts for the most used secret commands
type (
	// LsCmd is secret list
	LsCmd struct{ SecretListCmd }
	// GetCmd is secret get
	GetCmd struct{ SecretGetCmd }
)
