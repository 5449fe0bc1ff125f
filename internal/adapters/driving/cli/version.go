package cli

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version and build information",
	Annotations: map[string]string{annotationNoServices: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("coupon version %s\n", version)
		info, ok := readBuildInfo()
		if !ok {
			return
		}
		b := newBuildDetails(info)
		cmd.Printf("  go:     %s\n", b.goVersion)
		if b.revision != "" {
			cmd.Printf("  commit: %s\n", b.revision)
		}
		if b.time != "" {
			cmd.Printf("  built:  %s\n", b.time)
		}
	},
}

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// buildDetails is the part of the embedded build info worth reporting.
type buildDetails struct {
	goVersion string
	revision  string
	time      string
}

func newBuildDetails(info *debug.BuildInfo) buildDetails {
	b := buildDetails{goVersion: info.GoVersion}
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			b.revision = s.Value
			if len(b.revision) > 12 {
				b.revision = b.revision[:12]
			}
		case "vcs.time":
			b.time = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if modified && b.revision != "" {
		b.revision += " (modified)"
	}
	return b
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
