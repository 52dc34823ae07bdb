package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/petal-labs/wit/core"
	"github.com/petal-labs/wit/session"
)

func (a *App) newEntitiesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entities",
		Aliases: []string{"entity"},
		Short:   "Manage entities",
		Long: `List, inspect, create, update and delete entities.

Entity definitions are read from a YAML or JSON file:

  id: favorite_city
  doc: A city that I like
  values:
    - value: Paris
      expressions: [Paris, City of Light]`,
	}
	cmd.AddCommand(a.newEntitiesListCommand())
	cmd.AddCommand(a.newEntitiesGetCommand())
	cmd.AddCommand(a.newEntitiesCreateCommand())
	cmd.AddCommand(a.newEntitiesUpdateCommand())
	cmd.AddCommand(a.newEntitiesDeleteCommand())
	return cmd
}

func (a *App) newEntitiesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(func(s *session.Session) (*core.Result, error) {
				return s.Entities(cmd.Context())
			})
		},
	}
}

func (a *App) newEntitiesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(func(s *session.Session) (*core.Result, error) {
				return s.Entity(cmd.Context(), args[0])
			})
		},
	}
}

func (a *App) newEntitiesCreateCommand() *cobra.Command {
	var (
		file string
		id   string
		doc  string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an entity",
		Long: `Create an entity from --file, or from --id and --doc alone.

Example:
  wit entities create --file city.yaml
  wit entities create --id favorite_city --doc "A city that I like"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var e session.Entity
			if file != "" {
				var err error
				if e, err = a.readEntity(file); err != nil {
					return a.handleError(err)
				}
			}
			if id != "" {
				e.ID = id
			}
			if doc != "" {
				e.Doc = doc
			}
			return a.run(func(s *session.Session) (*core.Result, error) {
				return s.CreateEntity(cmd.Context(), e)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "entity definition (YAML or JSON, - for stdin)")
	cmd.Flags().StringVar(&id, "id", "", "entity id (overrides the file)")
	cmd.Flags().StringVar(&doc, "doc", "", "entity description (overrides the file)")
	return cmd
}

func (a *App) newEntitiesUpdateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace an entity definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.readEntity(file)
			if err != nil {
				return a.handleError(err)
			}
			return a.run(func(s *session.Session) (*core.Result, error) {
				return s.UpdateEntity(cmd.Context(), args[0], e)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "entity definition (YAML or JSON, - for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *App) newEntitiesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(func(s *session.Session) (*core.Result, error) {
				return s.DeleteEntity(cmd.Context(), args[0])
			})
		},
	}
}

func (a *App) newValuesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "values",
		Short: "Manage the values of an entity",
	}

	var (
		expressions []string
		metadata    string
	)
	add := &cobra.Command{
		Use:   "add <entity> <value>",
		Short: "Add a value to an entity",
		Long: `Add a value to an entity.

Example:
  wit values add favorite_city Paris -e Paris -e "City of Light"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := session.EntityValue{
				Value:       args[1],
				Expressions: expressions,
				Metadata:    metadata,
			}
			return a.run(func(s *session.Session) (*core.Result, error) {
				return s.AddValue(cmd.Context(), args[0], v)
			})
		},
	}
	add.Flags().StringArrayVarP(&expressions, "expression", "e", nil, "expression mapping to the value (repeatable)")
	add.Flags().StringVar(&metadata, "metadata", "", "free-form metadata stored with the value")

	del := &cobra.Command{
		Use:   "delete <entity> <value>",
		Short: "Remove a value from an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(func(s *session.Session) (*core.Result, error) {
				return s.DeleteValue(cmd.Context(), args[0], args[1])
			})
		},
	}

	cmd.AddCommand(add, del)
	return cmd
}

func (a *App) newExpressionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expressions",
		Short: "Manage the expressions of an entity value",
	}

	add := &cobra.Command{
		Use:   "add <entity> <value> <expression>",
		Short: "Add an expression to an entity value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(func(s *session.Session) (*core.Result, error) {
				return s.AddExpression(cmd.Context(), args[0], args[1], args[2])
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <entity> <value> <expression>",
		Short: "Remove an expression from an entity value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(func(s *session.Session) (*core.Result, error) {
				return s.DeleteExpression(cmd.Context(), args[0], args[1], args[2])
			})
		},
	}

	cmd.AddCommand(add, del)
	return cmd
}

// readEntity parses an entity definition. JSON parses as YAML.
func (a *App) readEntity(path string) (session.Entity, error) {
	var e session.Entity

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return e, fmt.Errorf("%w: %v", core.ErrConfig, err)
	}

	if err := yaml.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("%w: parse %s: %v", core.ErrConfig, path, err)
	}
	return e, nil
}
