package commands

import "strings"

// verbosityLevel strips verbosity flags from args before flag parsing
// and returns the requested log level. Accepts --verbose, -v, and the
// stacked forms -vv and -vvv; each v raises the level by one.
func verbosityLevel(args []string) (int, []string) {
	level := 0
	kept := make([]string, 0, len(args))

	for _, arg := range args {
		switch {
		case arg == "--verbose":
			level++
		case len(arg) > 1 && arg[0] == '-' && strings.Count(arg[1:], "v") == len(arg)-1:
			level += len(arg) - 1
		default:
			kept = append(kept, arg)
		}
	}

	return level, kept
}
