// Package flagx offers helpers for parsing only a subset of the process
// arguments, so several independent flag sets can share os.Args.
package flagx

import (
	"flag"
	"strings"
)

// Filter keeps the arguments that belong to the named flags, e.g.
// Filter(args, "-c", "-config"). Both "-c value" and "-c=value" forms are
// recognized; a following argument that itself starts with "-" is never
// taken as a value.
func Filter(args []string, names ...string) []string {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
			if known[name] {
				out = append(out, arg)
			}
			continue
		}

		if !known[arg] {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// ConfigPath returns the JSON config file named by -c or -config, or "".
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(Filter(args, "-c", "-config", "--config"))

	return path
}
