// Package fault defines the classes of failure clang-toolbox reports.
//
// Every stage wraps its errors in one class so the command line can print
// a short category next to the message. Archive errors are the exception:
// malformed archive content is malformed input, so they also belong to
// Parse. No stage recovers from another stage's failure; a classified
// error always ends the run.
package fault

import "github.com/zeebo/errs"

var (
	// Configuration covers invalid flags, config files and missing capabilities.
	Configuration = errs.Class("configuration error")
	// Network covers unreachable hosts and non-success HTTP statuses.
	Network = errs.Class("network error")
	// Parse covers malformed version strings, documents and archives.
	Parse = errs.Class("parse error")
	// Verification covers signature, key and checksum mismatches.
	Verification = errs.Class("verification error")
	// Selection covers cancelled choices and empty candidate lists.
	Selection = errs.Class("selection error")

	archive = errs.Class("archive error")

	// Archive covers malformed archives and requested entries that are
	// absent. Its errors are Parse errors too.
	Archive = Subclass{Class: &archive, Parent: &Parse}
)

// Subclass is an error class whose errors also belong to Parent.
type Subclass struct {
	Class  *errs.Class
	Parent *errs.Class
}

// New constructs an error in the subclass.
func (s Subclass) New(format string, args ...interface{}) error {
	return s.Parent.Wrap(s.Class.New(format, args...))
}

// Wrap classifies err into the subclass. It returns nil if err is nil
// and err itself if it is already in the subclass.
func (s Subclass) Wrap(err error) error {
	if err == nil || s.Has(err) {
		return err
	}
	return s.Parent.Wrap(s.Class.Wrap(err))
}

// Has reports whether err, or any error it wraps, is in the subclass.
func (s Subclass) Has(err error) bool {
	return s.Class.Has(err)
}

// classes is ordered most specific first.
var classes = []*errs.Class{
	&archive,
	&Configuration,
	&Network,
	&Parse,
	&Verification,
	&Selection,
}

// Kind returns the name of the most specific class err belongs to, or
// "error" when unclassified.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, class := range classes {
		if class.Has(err) {
			return string(*class)
		}
	}
	return "error"
}
