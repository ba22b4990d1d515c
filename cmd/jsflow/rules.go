package main

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/jsflow/internal/output"
	"github.com/panbanda/jsflow/pkg/linter"
	"github.com/panbanda/jsflow/pkg/rules"
)

func rulesCmd() *cli.Command {
	return &cli.Command{
		Name:   "rules",
		Usage:  "List the built-in rules and their configured severity",
		Flags:  formatFlags(),
		Action: runRulesCmd,
	}
}

type ruleRow struct {
	ID          string `json:"id" yaml:"id" toon:"id"`
	Type        string `json:"type" yaml:"type" toon:"type"`
	Severity    string `json:"severity" yaml:"severity" toon:"severity"`
	Description string `json:"description" yaml:"description" toon:"description"`
}

func runRulesCmd(c *cli.Context) error {
	result, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfgs, err := result.Config.RuleConfigs()
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, result.Config)
	if err != nil {
		return err
	}
	defer formatter.Close()

	all := rules.All()
	slices.SortFunc(all, func(a, b linter.Rule) int {
		return cmp.Compare(a.Meta().Name, b.Meta().Name)
	})

	table := &output.Table{
		Title:   "Rules",
		Headers: []string{"Rule", "Type", "Severity", "Description"},
	}
	var data []ruleRow
	for _, r := range all {
		meta := r.Meta()
		rc := cfgs[meta.Name]
		sev := rc.Severity.String()
		if len(rc.Options) > 0 {
			sev += " " + fmt.Sprint(rc.Options)
		}
		cell := sev
		if formatter.Colored() {
			cell = output.SeverityColor(rc.Severity, sev)
		}
		table.Rows = append(table.Rows, []string{meta.Name, meta.Type, cell, meta.Description})
		data = append(data, ruleRow{meta.Name, meta.Type, rc.Severity.String(), meta.Description})
	}
	table.Data = data
	return formatter.Output(table)
}
