package main

import (
	"fmt"

	"github.com/c360studio/rmlstream/engine"
	"github.com/c360studio/rmlstream/model"
	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	var mappingGlobs []string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load mappings and report problems without executing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(mappingGlobs) == 0 {
				return fmt.Errorf("no mapping files given; use --mapping")
			}

			triplesMaps, err := loadMappings(mappingGlobs)
			if err != nil {
				return err
			}

			mappable := model.FilterMappable(triplesMaps)
			fmt.Printf("triples maps: %d (%d mappable)\n", len(triplesMaps), len(mappable))

			problems := 0
			for _, tm := range triplesMaps {
				if !tm.Mappable() {
					fmt.Printf("  not mappable: %s (subject map has no value expression)\n", tm.ResourceID())
					problems++
				}
				if tm.LogicalSource == nil {
					fmt.Printf("  no logical source: %s\n", tm.ResourceID())
					problems++
					continue
				}
				formulation := tm.LogicalSource.ReferenceFormulation.String()
				if _, ok := engine.DefaultLogicalSourceResolvers()[formulation]; !ok {
					fmt.Printf("  no built-in decoder for %s: %s\n", formulation, tm.ResourceID())
					problems++
				}
			}
			for _, tm := range mappable {
				for _, rom := range tm.RefObjectMaps() {
					if rom.ParentTriplesMap == nil || !rom.ParentTriplesMap.Mappable() {
						fmt.Printf("  ref object map without mappable parent: %s\n", rom.ResourceID())
						problems++
					}
				}
			}

			if problems > 0 {
				return fmt.Errorf("%d problem(s) found", problems)
			}
			fmt.Println("ok")
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&mappingGlobs, "mapping", "m", nil, "mapping file glob (repeatable)")
	return cmd
}
