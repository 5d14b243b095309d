package output

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
)

// BannerOptions configures the startup banner display.
type BannerOptions struct {
	ShowBanner  bool // Show ASCII art logo
	ShowVersion bool // Show version information
	ShowTagline bool // Show the one-line description
}

// DefaultBannerOptions returns default banner configuration.
func DefaultBannerOptions() BannerOptions {
	return BannerOptions{
		ShowBanner:  true,
		ShowVersion: true,
		ShowTagline: true,
	}
}

// PrintBanner displays the tgproc logo and version information.
func PrintBanner(w io.Writer, version string, opts BannerOptions) {
	if w == nil {
		return
	}

	if !opts.ShowBanner {
		if opts.ShowVersion {
			fmt.Fprintf(w, "tgproc v%s\n", version)
		}
		if opts.ShowTagline {
			fmt.Fprintf(w, "%s\n", tagline)
		}
		fmt.Fprintln(w)
		return
	}

	asciiArt := GetASCIILogo()
	fmt.Fprintln(w, asciiArt)

	if opts.ShowVersion {
		fmt.Fprintf(w, "tgproc v%s\n", version)
	}

	if opts.ShowTagline {
		fmt.Fprintln(w, tagline)
	}

	fmt.Fprintln(w)
}

const tagline = "taint-log post-processor: reconstructs source-to-sink chains from a taintgrind execution log"

// GetASCIILogo generates the ASCII art logo for "tgproc".
func GetASCIILogo() string {
	fig := figure.NewFigure("tgproc", "standard", true)
	return fig.String()
}

// GetCompactBanner returns a single-line banner for non-TTY output.
func GetCompactBanner(version string) string {
	return fmt.Sprintf("tgproc v%s | %s", version, tagline)
}

// ShouldShowBanner determines if the banner should be displayed.
func ShouldShowBanner(isTTY bool, noBannerFlag bool) bool {
	if noBannerFlag {
		return false
	}
	return isTTY
}
