package main

import (
	"fmt"
	"os"

	clay "github.com/go-go-golems/clay/pkg"
	cli_cmds "github.com/go-go-golems/esmeta/cmd/esmeta/cmds"
	"github.com/go-go-golems/esmeta/cmd/esmeta/cmds/indices"
	"github.com/go-go-golems/esmeta/cmd/esmeta/cmds/metadata"
	es_cmds "github.com/go-go-golems/esmeta/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/help"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "esmeta",
	Short: "Autocomplete metadata for Elasticsearch and OpenSearch clusters",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		err := clay.InitLogger()
		cobra.CheckErr(err)
	},
}

func main() {
	err := initRootCmd()
	cobra.CheckErr(err)

	err = initAllCommands()
	cobra.CheckErr(err)

	err = rootCmd.Execute()
	cobra.CheckErr(err)
}

func initRootCmd() error {
	helpSystem := help.NewHelpSystem()
	helpSystem.SetupCobraRootCommand(rootCmd)

	err := clay.InitViper("esmeta", rootCmd)
	if err != nil {
		return err
	}
	err = clay.InitLogger()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logger: %s\n", err)
		os.Exit(1)
	}

	return nil
}

func initAllCommands() error {
	err := metadata.AddToRootCommand(rootCmd)
	if err != nil {
		return err
	}

	err = indices.AddToRootCommand(rootCmd)
	if err != nil {
		return err
	}

	infoCommand, err := cli_cmds.NewInfoCommand()
	if err != nil {
		return err
	}
	infoCmd, err := es_cmds.BuildCobraCommandWithEsmetaMiddlewares(infoCommand)
	if err != nil {
		return err
	}
	rootCmd.AddCommand(infoCmd)

	watchCommand, err := cli_cmds.NewWatchCommand()
	if err != nil {
		return err
	}
	watchCmd, err := es_cmds.BuildCobraCommandWithEsmetaMiddlewares(watchCommand)
	if err != nil {
		return err
	}
	rootCmd.AddCommand(watchCmd)

	serveCommand, err := cli_cmds.NewServeCommand()
	if err != nil {
		return err
	}
	serveCmd, err := es_cmds.BuildCobraCommandWithEsmetaMiddlewares(serveCommand)
	if err != nil {
		return err
	}
	rootCmd.AddCommand(serveCmd)

	return nil
}
