package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rejot-dev/thalo/internal/rules"
)

var rulesJSON bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the rule library",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every rule with its category and default severity",
	RunE: func(cmd *cobra.Command, args []string) error {
		type ruleInfo struct {
			Code            string `json:"code"`
			Name            string `json:"name"`
			Description     string `json:"description"`
			Category        string `json:"category"`
			DefaultSeverity string `json:"defaultSeverity"`
		}
		all := rules.All()
		if rulesJSON {
			infos := make([]ruleInfo, 0, len(all))
			for _, r := range all {
				infos = append(infos, ruleInfo{
					Code:            r.Code(),
					Name:            r.Name(),
					Description:     r.Description(),
					Category:        string(r.Category()),
					DefaultSeverity: string(r.DefaultSeverity()),
				})
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}
		for _, r := range all {
			fmt.Printf("%-32s %-8s %-7s %s\n", r.Code(), r.Category(), r.DefaultSeverity(), r.Description())
		}
		return nil
	},
}

func init() {
	rulesListCmd.Flags().BoolVar(&rulesJSON, "json", false, "Emit the rule list as JSON")
	rulesCmd.AddCommand(rulesListCmd)
}
