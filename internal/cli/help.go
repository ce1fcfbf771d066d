package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(warnColor).
			Italic(true)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(warnColor)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)
)

// helpEntry is one rendered line of the help: a flag or positional argument
type helpEntry struct {
	name       string
	help       string
	defaultVal string
}

// helpSection is a titled block of entries; flags are sectioned by their kong group
type helpSection struct {
	title   string
	entries []helpEntry
}

// StyledHelpPrinter creates a kong help printer that renders flags grouped by
// their `group` tag, with enum choices and defaults inline
func StyledHelpPrinter(options kong.HelpOptions) kong.HelpPrinter {
	return func(_ kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		sb.WriteString(helpTitleStyle.Render("Restorer 📀"))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render("Click removal and noise gating for digitised records"))
		sb.WriteString("\n\n")

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		fmt.Fprintf(&sb, "\n  %s [flags] <files|dirs> ...\n", ctx.Model.Name)

		if args := argumentEntries(ctx); len(args) > 0 {
			writeHelpSection(&sb, helpSection{title: "Arguments", entries: args}, helpArgStyle)
		}
		for _, section := range flagSections(ctx) {
			writeHelpSection(&sb, section, helpFlagStyle)
		}

		sb.WriteString("\n")
		_, err := io.WriteString(ctx.Stdout, sb.String())
		return err
	}
}

func writeHelpSection(sb *strings.Builder, section helpSection, nameStyle lipgloss.Style) {
	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(section.title + ":"))
	sb.WriteString("\n")
	for _, e := range section.entries {
		sb.WriteString("  ")
		sb.WriteString(nameStyle.Render(e.name))
		if e.help != "" {
			sb.WriteString("  ")
			sb.WriteString(e.help)
		}
		if e.defaultVal != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + e.defaultVal + ")"))
		}
		sb.WriteString("\n")
	}
}

func argumentEntries(ctx *kong.Context) []helpEntry {
	var entries []helpEntry
	for _, arg := range ctx.Model.Node.Positional {
		entries = append(entries, helpEntry{name: arg.Summary(), help: arg.Help})
	}
	return entries
}

// flagSections returns ungrouped flags under "Flags" first, then one section per
// group in declaration order
func flagSections(ctx *kong.Context) []helpSection {
	general := helpSection{
		title:   "Flags",
		entries: []helpEntry{{name: "-h, --help", help: "Show context-sensitive help."}},
	}
	var grouped []helpSection
	index := map[string]int{}

	for _, f := range ctx.Model.Node.Flags {
		if f.Name == "help" || f.Hidden {
			continue
		}
		entry := flagEntry(f)

		if f.Group == nil {
			general.entries = append(general.entries, entry)
			continue
		}
		i, ok := index[f.Group.Title]
		if !ok {
			i = len(grouped)
			index[f.Group.Title] = i
			grouped = append(grouped, helpSection{title: f.Group.Title})
		}
		grouped[i].entries = append(grouped[i].entries, entry)
	}

	return append([]helpSection{general}, grouped...)
}

func flagEntry(f *kong.Flag) helpEntry {
	name := "--" + f.Name
	if f.Short != 0 {
		name = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
	}

	switch {
	case f.Enum != "":
		name += "={" + strings.ReplaceAll(f.Enum, ",", "|") + "}"
	case !f.IsBool() && f.PlaceHolder != "":
		name += "=" + strings.ToUpper(f.PlaceHolder)
	}

	defaultVal := f.Default
	if f.IsBool() && defaultVal == "false" {
		defaultVal = ""
	}
	return helpEntry{name: name, help: f.Help, defaultVal: defaultVal}
}
