package checkers

import (
	"fmt"
	"strings"
)

// DatabaseCheckers returns new instances of the db/*.php declaration checkers
func DatabaseCheckers() []Checker {
	return []Checker{
		&Capabilities{base{name: "capabilities"}},
		&Caches{base{name: "caches"}},
		&Messages{base{name: "messages"}},
		&Mobile{base{name: "mobile"}},
		&Subplugins{base{name: "subplugins"}},
		&Tags{base{name: "tags"}},
	}
}

// ClassMethodCheckers returns new instances of the class method checkers
func ClassMethodCheckers() []Checker {
	return []Checker{
		&Exceptions{base{name: "exceptions"}},
		&Grades{base{name: "grades"}},
		&Privacy{base{name: "privacy"}},
		&Search{base{name: "search"}},
	}
}

// All returns new instances of every checker, database checkers first
func All() []Checker {
	return append(DatabaseCheckers(), ClassMethodCheckers()...)
}

// Names lists the names of all checkers in registry order
func Names() []string {
	var names []string
	for _, c := range All() {
		names = append(names, c.Name())
	}
	return names
}

// ByName returns new instances of the named checkers in the order given.
// Unknown names are an error.
func ByName(names []string) ([]Checker, error) {
	var selected []Checker
	var unknown []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		found := false
		for _, c := range All() {
			if c.Name() == name {
				selected = append(selected, c)
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown checkers: %s (available: %s)",
			strings.Join(unknown, ", "), strings.Join(Names(), ", "))
	}
	return selected, nil
}
