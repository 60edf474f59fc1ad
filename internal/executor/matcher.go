package executor

import "regexp"

// matcher compiles a Prover's regex fields once and reuses them across runs.
// Matching is POSIX extended, case-sensitive, which is why
// this uses CompilePOSIX rather than the default (Perl-flavored) regexp
// syntax.
type matcher struct {
	sat     *regexp.Regexp
	unsat   *regexp.Regexp
	unknown *regexp.Regexp
	timeout *regexp.Regexp
}

func newMatcher(sat, unsat, unknown, timeout string) (*matcher, error) {
	m := &matcher{}
	var err error
	if m.sat, err = compileIfSet(sat); err != nil {
		return nil, err
	}
	if m.unsat, err = compileIfSet(unsat); err != nil {
		return nil, err
	}
	if m.unknown, err = compileIfSet(unknown); err != nil {
		return nil, err
	}
	if m.timeout, err = compileIfSet(timeout); err != nil {
		return nil, err
	}
	return m, nil
}

func compileIfSet(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.CompilePOSIX(pattern)
}

func matches(re *regexp.Regexp, text string) bool {
	return re != nil && re.MatchString(text)
}
