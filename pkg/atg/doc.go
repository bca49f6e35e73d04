// Package atg generates text files from a table and a template.
//
// A template is a plain text file. Its first line starts with ATGV2; its
// second line declares the key column, output extension, name prefix, text
// encoding and optional flags:
//
//	ATGV2
//	[$ID$txt$unit_$utf-8$]
//	Name: [$Name$]
//
// Every row of the table produces one output named prefix + key value, or,
// with the oneFile flag, all rows are concatenated into one text.
//
// # Quick Start
//
//	res, err := atg.Generate(ctx, "units.atg", "units.csv", table.LoadOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for name, text := range res.Map() {
//	    fmt.Println(name, text)
//	}
//
// # Template Syntax
//
// Bracket expressions have the form [$TAG$arg$arg$...$]. A tag that is not a
// command and has no arguments substitutes a column:
//
//	[$Name$]                         - value of column Name in the current row
//	[$ATGLIST$Item$- [$Item$]\n$]    - repeat for Item1, Item2, ... skipping empty cells
//	[$ATGLISTCUT$Item$[$Item$],$]    - same, with the last character dropped
//	[$ATGLINDEX$]                    - 1-based repetition index inside a list
//	[$ATGIF$Color$red$text$]         - text when Color equals "red"
//	[$ATGIFNOT$Color$red$text$]      - text when Color is not "red"
//	[$ATGGREATER$Score$10$text$]     - text when Score > 10
//	[$ATGLESS$Score$10$text$]        - text when Score < 10
//	[$ATGHEADER$text$]               - add text once to the run header
//	[$ATGFOOTER$text$]               - add text once to the run footer
//	[$ATGREPLACE$from$to$]           - replace from with to in the rendered row
//	[$ATGPREFIX$text$]               - append text to the output name prefix
//	[$ATGSKIP$]                      - drop the row
//	[$ATGPREV$Name$]                 - value of Name in the previous row
//
// Within a scope, commands run before column substitutions. Bodies of
// lists, conditionals and prefixes are scopes of their own and may nest.
//
// # Diagnostics
//
// References to missing columns or groups, numeric comparisons against
// non-numeric cells and unknown commands do not stop processing. They are
// logged and returned in Result.Diagnostics, and the offending expression is
// left as written or rendered empty. Config.StrictMode turns the first one
// into an *EvaluationError.
//
// # Configuration
//
// Settings come from DefaultConfig, ATG_* environment variables and, through
// LoadConfigFile, TOML or YAML files:
//
//	ATG_LOG_LEVEL=debug
//	ATG_WORKERS=4
//	ATG_CSV_DELIMITER=tab
package atg
