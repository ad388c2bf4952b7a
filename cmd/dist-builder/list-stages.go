package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/superkruger/olca-app/pkg/dist"
)

var stageArtifacts = map[dist.Platform][]string{
	dist.Windows: {"zip", "exe"},
	dist.Linux:   {"tar.gz"},
	dist.MacOS:   {"tar.gz"},
}

func runListStages(_args []string) error {
	outFH := os.Stdout

	fmt.Fprintf(outFH, "Stages run in this order. A stage is skipped when its\n")
	fmt.Fprintf(outFH, "product directory is missing.\n")
	fmt.Fprintf(outFH, "\n")

	w := tabwriter.NewWriter(outFH, 0, 4, 4, ' ', 0)
	fmt.Fprintf(w, "STAGE\tPRODUCT DIRECTORY\tARTIFACTS\n")
	for _, p := range dist.Platforms {
		var names []string
		for _, ext := range stageArtifacts[p] {
			names = append(names, p.ArtifactName("{version}_{date}", ext))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p, p.ProductDir("build"), strings.Join(names, ", "))
	}
	w.Flush()

	fmt.Fprintf(outFH, "\nArtifacts are written to %s\n", filepath.Join("build", "dist"))
	return nil
}
