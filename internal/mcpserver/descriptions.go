package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeLint() string {
	return `Runs the configured lint rules over JavaScript and TypeScript files.

USE WHEN:
- Checking files for unreachable code or switch fallthrough
- Reviewing changed files before a commit (set changed=true)
- Verifying that a refactoring did not introduce control flow bugs

INTERPRETING RESULTS:
- severity "error" problems fail a CI run, "warn" problems do not
- no-unreachable: statements after return, throw, break or continue never run
- no-fallthrough: a case runs into the next one without a break
- consistent-return: a function sometimes returns a value and sometimes not
- A problem with fatal=true means the file did not parse; no rules ran on it

METRICS RETURNED:
- files: only files with problems, each with its problem list
- Per-problem: ruleId, severity, message, line, column, endLine, endColumn
- errorCount, warningCount, filesScanned`
}

func describeLintSource() string {
	return `Lints a source snippet passed inline instead of a file on disk.

USE WHEN:
- Checking code you are about to write before saving it
- Explaining why a snippet is reported by a rule

INTERPRETING RESULTS:
- The filename only selects the grammar: .js, .jsx, .ts or .tsx
- Line and column are relative to the snippet, columns are 1-based
- An empty problem list means no configured rule fired

METRICS RETURNED:
- problems: ruleId, severity, message and position of each report`
}

func describeCodePaths() string {
	return `Builds the control flow graph (code paths) of every function, class field
initializer and the program body, and reports graph statistics per path.

USE WHEN:
- Understanding how control flows through a complex function
- Finding functions with many independent paths that are hard to test
- Locating loops and unreachable segments
- Producing a Graphviz diagram of a function (set dot=true)

INTERPRETING RESULTS:
- cyclomatic: independent paths through the function. Above 10, consider splitting
- unreachable: segments no execution can reach, usually dead code after return
- loops: back edges in the graph, one per loop construct that can repeat
- minDepth/maxDepth: shortest and longest acyclic path from entry to an exit
- origin: program, function, class-field-initializer or class-static-block

METRICS RETURNED:
- Per-path: id, origin, node, line, segments, edges, returned, thrown
- summary: path count, mean/sd/max cyclomatic, total loops and unreachable segments
- dot: Graphviz source per path when requested`
}

func describeListRules() string {
	return `Lists the available lint rules and how they are configured.

USE WHEN:
- Deciding which rule ids to reference in a config file
- Checking whether a rule is enabled in the current configuration

INTERPRETING RESULTS:
- severity "off" means the rule exists but will not report
- type "problem" rules find likely bugs, "suggestion" rules flag style

METRICS RETURNED:
- Per-rule: id, type, description, severity, options`
}
