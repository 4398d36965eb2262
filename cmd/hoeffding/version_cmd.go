package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	// VersionMajor is the major number in hoeffding's version
	VersionMajor = 0
	// VersionMinor is the minor number in hoeffding's version
	VersionMinor = 1
	// VersionPatch is the patch number in hoeffding's version
	VersionPatch = 0
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of hoeffding",
		Long:  `All software has versions. This is hoeffding's`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hoeffding v%d.%d.%d\n", VersionMajor, VersionMinor, VersionPatch)
		},
	}
}
