package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		if t != nil {
			f.translate = t
		}
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(v string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = v
	}
}

// NewMarkdownFormatter creates a formatter. Labels are in English unless a translator is set.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{translate: func(s string) string { return s }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Conversion Summary"))
	if s.Source.Name != "" {
		fmt.Fprintf(&b, "**%s**\n\n", s.Source.Name)
	}

	f.section(&b, t("Source"), [][2]string{
		{t("File"), orNA(s.Source.Path)},
		{t("Canvas"), fmt.Sprintf("%dx%d", s.Source.Width, s.Source.Height)},
		{t("Frame Rate"), fmt.Sprintf("%g fps", s.Source.FrameRate)},
		{t("Frame Range"), fmt.Sprintf("%g - %g", s.Source.InPoint, s.Source.OutPoint)},
		{t("Duration"), fmt.Sprintf("%.2f s", s.Source.DurationSeconds())},
	})

	f.section(&b, t("Settings"), [][2]string{
		{t("Resolution"), orNA(s.Settings.Resolution)},
		{t("Frame Rate"), fmt.Sprintf("%d fps", s.Settings.FPS)},
		{t("Requested Codec"), orNA(s.Settings.RequestedCodec)},
		{t("Rasterizer"), orNA(s.Settings.Rasterizer)},
		{t("Background"), orNA(s.Settings.Background)},
	})

	codec := orNA(s.Encoder.Codec)
	if s.Encoder.FallbackUsed {
		codec += " (" + t("fallback") + ")"
	}
	f.section(&b, t("Encoder"), [][2]string{
		{t("Codec"), codec},
		{t("Codec String"), orNA(s.Encoder.CodecString)},
		{t("Profile"), orNA(s.Encoder.Profile)},
		{t("Level"), orNA(s.Encoder.Level)},
		{t("Bitrate"), formatBitrate(s.Encoder.Bitrate)},
		{t("Implementation"), orNA(s.Encoder.Implementation)},
	})

	f.section(&b, t("Output"), [][2]string{
		{t("File"), orNA(s.Video.OutputPath)},
		{t("Dimensions"), fmt.Sprintf("%dx%d", s.Video.Width, s.Video.Height)},
		{t("Frames"), fmt.Sprintf("%d", s.Video.FrameCount)},
		{t("Keyframes"), fmt.Sprintf("%d", s.Video.Keyframes)},
		{t("Duration"), fmt.Sprintf("%d ms", s.Video.DurationMs)},
		{t("File Size"), formatBytes(s.Video.FileSize)},
	})

	if s.Host.OS != "" {
		rows := [][2]string{
			{t("Platform"), s.Host.OS + "/" + s.Host.Arch},
			{t("CPUs"), fmt.Sprintf("%d", s.Host.CPUs)},
		}
		if s.Host.MemoryMB > 0 {
			rows = append(rows, [2]string{t("Available Memory"), fmt.Sprintf("%d MB", s.Host.MemoryMB)})
		}
		f.section(&b, t("Host"), rows)
	}

	b.WriteString("---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if s.Elapsed > 0 {
		footer += fmt.Sprintf(" · %s %s", t("Elapsed"), s.Elapsed.Round(time.Millisecond))
	}
	if s.RunID != "" {
		footer += " · " + s.RunID
	}
	if f.version != "" {
		footer += " · lottiemp4 " + f.version
	}
	b.WriteString(footer)
	b.WriteString("\n")
	return b.String()
}

func (f *MarkdownFormatter) section(b *strings.Builder, title string, rows [][2]string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.translate("Item"), f.translate("Value"))
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", r[0], escapeCell(r[1]))
	}
	b.WriteString("\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func formatBitrate(bps int) string {
	if bps <= 0 {
		return "N/A"
	}
	if bps >= 1_000_000 {
		return fmt.Sprintf("%g Mb/s", float64(bps)/1_000_000)
	}
	return fmt.Sprintf("%d kb/s", bps/1000)
}

var _ Formatter = (*MarkdownFormatter)(nil)
