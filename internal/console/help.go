package console

import (
	"github.com/charmbracelet/glamour"
)

const helpText = `# fluid

Arguments are written as ` + "`value:type`" + `. The type is any resolvable type
name (` + "`int`, `float64`, `bool`, `string`, `Duration`" + ` ...) or ` + "`var`" + `
to pass a bound variable. Quote values that contain spaces.

* ` + "`import <type> [alias]`" + ` registers a type under an alias
* ` + "`new <type> <var> [args]`" + ` constructs an instance and binds it
* ` + "`call <type|var> <method> [args]`" + ` calls a method and records its result
* ` + "`adapt <type> <raw> [var]`" + ` converts text into an instance of a type
* ` + "`compile <file.go...>`" + ` compiles sources and makes their types resolvable
* ` + "`heap`" + ` lists bound variables
* ` + "`types`" + ` lists registered aliases
* ` + "`results`" + ` lists recorded results
* ` + "`unbind <var>`" + ` and ` + "`drop <alias>`" + ` remove bindings
* ` + "`history`" + ` shows recent commands
* ` + "`exit`" + ` leaves the console
`

// renderHelp renders the command reference, falling back to the raw
// markdown when rendering fails.
func (c *Console) renderHelp() string {
	style := glamour.WithStandardStyle("notty")
	if c.color {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(80))
	if err != nil {
		c.log.Warn("help renderer unavailable: %v", err)
		return helpText
	}
	out, err := r.Render(helpText)
	if err != nil {
		return helpText
	}
	return out
}
