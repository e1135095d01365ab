package indices

import (
	es_cmds "github.com/go-go-golems/esmeta/pkg/cmds"
	"github.com/spf13/cobra"
)

func AddToRootCommand(rootCmd *cobra.Command) error {
	indicesCommand := &cobra.Command{
		Use:   "indices",
		Short: "Cluster index listing",
	}
	rootCmd.AddCommand(indicesCommand)

	indicesListCommand, err := NewIndicesListCommand()
	if err != nil {
		return err
	}
	indicesListCmd, err := es_cmds.BuildCobraCommandWithEsmetaMiddlewares(indicesListCommand)
	if err != nil {
		return err
	}
	indicesCommand.AddCommand(indicesListCmd)

	return nil
}
