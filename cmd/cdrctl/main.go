package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/example/webex-cdr-support/cmd/cdrctl/cmds"
)

func main() {
	root := &cobra.Command{
		Use:   "cdrctl",
		Short: "Run and inspect Webex CDR reports from the terminal",
	}

	root.PersistentFlags().String("config", "", "path to an optional YAML/JSON config file")

	root.AddCommand(
		cmds.GetRunCommand(),
		cmds.GetReportsCommand(),
		cmds.GetHistoryCommand(),
	)

	if err := root.Execute(); err != nil {
		logrus.Fatal(err)
	}
}
