// Package spell discovers log templates incrementally using longest common
// subsequence matching.
//
// Each incoming line is tokenized and compared against every known template.
// A line either generalizes the best matching template (mismatching literal
// positions become wildcards) or seeds a new one:
//
//	"connection from 10.0.0.1 closed"  -> T0: connection from 10.0.0.1 closed
//	"connection from 10.0.0.2 closed"  -> T0: connection from * closed
//
// Basic usage:
//
//	reg, err := spell.New(`\s+`)
//	if err != nil {
//	    return err
//	}
//	for _, line := range lines {
//	    tmpl := reg.Insert(line)
//	    fmt.Println(tmpl.ID(), tmpl)
//	}
//
//	params, ok := tmpl.Parameterize(reg.Tokenize(line))
//
// The matching is a greedy, non-backtracking alignment rather than a true LCS.
// It runs in linear time per template and the resulting skeletons depend on
// that exact policy, so it must not be replaced by an optimal LCS.
//
// A Registry can be persisted with Save and restored with Load. Neither
// Registry nor Template is safe for concurrent use.
package spell
