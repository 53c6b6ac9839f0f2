package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"

	"github.com/x42/silan/internal/logging"
)

// Custom help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(warnColor).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(warnColor).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Italic(true)
)

// StyledHelpPrinter creates a custom help printer with Lipgloss styling.
// Flags are listed under their kong group titles in declaration order, with
// ungrouped flags under General.
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		sb.WriteString(helpTitleStyle.Render(ctx.Model.Name))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render(ctx.Model.Help))
		sb.WriteString("\n")

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString(fmt.Sprintf("\n  %s [flags] <file>\n", ctx.Model.Name))

		if args := ctx.Model.Node.Positional; len(args) > 0 {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render("Arguments:"))
			sb.WriteString("\n")
			for _, arg := range args {
				fmt.Fprintf(&sb, "  %s  %s\n", helpArgStyle.Render(arg.Summary()), arg.Help)
			}
		}

		groups := flagGroups(ctx.Model.Node.Flags)
		width := 0
		for _, g := range groups {
			for _, f := range g.flags {
				width = max(width, len(f.names))
			}
		}
		for _, g := range groups {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render(g.title + ":"))
			sb.WriteString("\n")
			for _, f := range g.flags {
				sb.WriteString("  ")
				sb.WriteString(helpFlagStyle.Render(fmt.Sprintf("%-*s", width, f.names)))
				sb.WriteString("  ")
				sb.WriteString(f.help)
				if f.def != "" {
					sb.WriteString(" ")
					sb.WriteString(helpDefaultStyle.Render("(default: " + f.def + ")"))
				}
				sb.WriteString("\n")
			}
		}

		sb.WriteString("\n")
		sb.WriteString(helpSectionStyle.Render("Notes:"))
		sb.WriteString("\n")
		for _, note := range helpNotes() {
			sb.WriteString("  " + note + "\n")
		}

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

// helpNotes explains the value notations accepted by the flags.
func helpNotes() []string {
	formats := make([]string, len(logging.Formats))
	for i, f := range logging.Formats {
		formats[i] = string(f)
	}
	return []string{
		"Output formats: " + strings.Join(formats, ", ") + " (audacity writes a label file).",
		"Thresholds ending in 'd' are decibels: -66d is about 0.0005.",
		"Filter takes a coefficient (0.98), a cutoff (120hz), auto (above local mains hum) or off.",
		"Use - as the file to read raw float32 PCM from stdin; set --rate and --channels.",
	}
}

type helpFlag struct {
	names string
	help  string
	def   string
}

type helpGroup struct {
	title string
	flags []helpFlag
}

const generalGroup = "General"

// flagGroups sorts flags into their kong groups, keeping first-seen group
// order. Hidden flags are skipped.
func flagGroups(flags []*kong.Flag) []helpGroup {
	groups := []helpGroup{{title: generalGroup, flags: []helpFlag{{names: "-h, --help", help: "Show context-sensitive help."}}}}
	index := map[string]int{generalGroup: 0}

	for _, f := range flags {
		if f.Name == "help" || f.Hidden {
			continue
		}
		title := generalGroup
		if f.Group != nil && f.Group.Title != "" {
			title = f.Group.Title
		}
		i, ok := index[title]
		if !ok {
			i = len(groups)
			index[title] = i
			groups = append(groups, helpGroup{title: title})
		}
		groups[i].flags = append(groups[i].flags, helpFlag{names: flagNames(f), help: f.Help, def: f.Default})
	}

	// General holds help and version, so it reads best last.
	if len(groups) > 1 {
		groups = append(groups[1:], groups[0])
	}
	return groups
}

func flagNames(f *kong.Flag) string {
	names := "--" + f.Name
	if f.Short != 0 {
		names = fmt.Sprintf("-%c, %s", f.Short, names)
	}
	switch {
	case f.IsCounter():
		names += " (repeatable)"
	case !f.IsBool():
		names += "=" + strings.ToUpper(f.FormatPlaceHolder())
	}
	return names
}
