// Package taxonomy classifies providers into therapy categories and decides
// whether an address falls inside a named neighborhood.
//
// Both decisions are plain case-insensitive substring matches over externally
// supplied tables. The matcher never touches the store; callers persist its
// output.
package taxonomy
