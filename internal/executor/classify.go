package executor

import "github.com/wilke/gowe-arbiter/pkg/model"

// classify applies the outcome precedence: a
// watchdog firing always wins, sat is tested before unsat, and an errcode
// other than zero still allows Unknown via the timeout/unknown regexes
// before falling back to Error.
func classify(m *matcher, outcome rawOutcome) model.Classification {
	if outcome.TimedOut {
		return model.Timeout
	}
	combined := outcome.Stdout + outcome.Stderr
	if outcome.ErrCode == 0 && matches(m.sat, combined) {
		return model.Sat
	}
	if outcome.ErrCode == 0 && matches(m.unsat, combined) {
		return model.Unsat
	}
	if matches(m.timeout, combined) || matches(m.unknown, combined) {
		return model.Unknown
	}
	return model.Error
}
