package ports

// TemplateEngine renders a configuration document before it is parsed.
type TemplateEngine interface {
	// Render resolves the placeholders in raw against vars.
	Render(raw []byte, vars map[string]interface{}) ([]byte, error)
}
