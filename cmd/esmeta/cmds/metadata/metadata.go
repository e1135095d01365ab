package metadata

import (
	es_cmds "github.com/go-go-golems/esmeta/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/spf13/cobra"
)

// NewCommands creates the metadata commands, all reading from loadStore.
func NewCommands(loadStore es_cmds.StoreLoader) ([]cmds.GlazeCommand, error) {
	constructors := []func() (cmds.GlazeCommand, error){
		func() (cmds.GlazeCommand, error) { return NewFieldsCommand(loadStore) },
		func() (cmds.GlazeCommand, error) { return NewTypesCommand(loadStore) },
		func() (cmds.GlazeCommand, error) { return NewIndicesCommand(loadStore) },
		func() (cmds.GlazeCommand, error) { return NewTemplatesCommand(loadStore) },
		func() (cmds.GlazeCommand, error) { return NewExpandCommand(loadStore) },
	}

	ret := []cmds.GlazeCommand{}
	for _, constructor := range constructors {
		command, err := constructor()
		if err != nil {
			return nil, err
		}
		ret = append(ret, command)
	}
	return ret, nil
}

func AddToRootCommand(rootCmd *cobra.Command) error {
	metadataCommand := &cobra.Command{
		Use:   "metadata",
		Short: "Autocomplete metadata (fields, indices, aliases, templates)",
	}
	rootCmd.AddCommand(metadataCommand)

	commands, err := NewCommands(es_cmds.LoadStore)
	if err != nil {
		return err
	}

	for _, command := range commands {
		cobraCommand, err := es_cmds.BuildCobraCommandWithEsmetaMiddlewares(command)
		if err != nil {
			return err
		}
		metadataCommand.AddCommand(cobraCommand)
	}

	return nil
}
