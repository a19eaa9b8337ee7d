package shell

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/roach88/armstrong/internal/engine"
	"github.com/roach88/armstrong/internal/fdspec"
	"github.com/roach88/armstrong/internal/ir"
	"github.com/roach88/armstrong/internal/parse"
	"github.com/roach88/armstrong/internal/store"
)

// invalidFDMessage is printed when push gets malformed FD notation.
const invalidFDMessage = "Invalid format. Functional dependency should be in the form '{a,b} -> {c,d}'"

type command struct {
	usage        string
	help         string
	needsArgs    bool
	optionalArgs bool
	run          func(ctx context.Context, s *Session, args string) (bool, error)
}

// commandOrder lists commands as help prints them.
var commandOrder = []string{
	"push", "pop", "reflexive", "transitive", "combine", "split",
	"apply-closure-rules", "closure", "get-superkeys", "candidate-keys",
	"show", "load", "save", "import", "help", "quit",
}

// commands is populated in init because load and help refer back to it.
var commands map[string]command

func init() {
	commands = map[string]command{
		"push":                {usage: "push <fd>", help: "add a functional dependency", needsArgs: true, run: cmdPush},
		"pop":                 {usage: "pop", help: "remove the most recently added dependency", run: cmdPop},
		"reflexive":           {usage: "reflexive", help: "apply reflexivity and augmentation", run: ruleCommand(engine.RuleReflexive)},
		"transitive":          {usage: "transitive", help: "apply transitivity", run: ruleCommand(engine.RuleTransitive)},
		"combine":             {usage: "combine", help: "apply combination", run: ruleCommand(engine.RuleCombine)},
		"split":               {usage: "split", help: "apply decomposition", run: ruleCommand(engine.RuleSplit)},
		"apply-closure-rules": {usage: "apply-closure-rules", help: "apply all rules until nothing new is derived", run: cmdApplyAll},
		"closure":             {usage: "closure <attrs>", help: "print the closure of a set of attributes", optionalArgs: true, run: cmdClosure},
		"get-superkeys":       {usage: "get-superkeys", help: "print every superkey", run: cmdSuperkeys},
		"candidate-keys":      {usage: "candidate-keys", help: "print the minimal superkeys", run: cmdCandidateKeys},
		"show":                {usage: "show", help: "print the working set ordered by version", run: cmdShow},
		"load":                {usage: "load <file>", help: "execute the commands of a script", needsArgs: true, run: cmdLoad},
		"save":                {usage: "save <file>", help: "write the command history to a script", needsArgs: true, run: cmdSave},
		"import":              {usage: "import <cue>", help: "push the dependencies of declared relations", needsArgs: true, run: cmdImport},
		"help":                {usage: "help", help: "list commands", run: cmdHelp},
		"quit":                {usage: "quit", help: "end the session", run: cmdQuit},
	}
}

func cmdPush(_ context.Context, s *Session, args string) (bool, error) {
	lhs, rhs, err := parse.Sides(args)
	if err != nil {
		s.println(invalidFDMessage)
		return true, &CommandError{Code: ErrCodeInvalidFD, Command: "push", Message: "malformed functional dependency", Err: err}
	}
	fd := ir.NewFD(lhs, rhs, s.version)
	s.ws.Push(fd)
	s.printf("Added: %s\n", fd)
	return true, nil
}

func cmdPop(_ context.Context, s *Session, _ string) (bool, error) {
	fd, ok := s.ws.Pop()
	if !ok {
		s.println("Active set is empty.")
		return true, nil
	}
	s.printf("Popped: %d: %s\n", fd.Version, fd)
	return true, nil
}

func ruleCommand(name engine.RuleName) func(context.Context, *Session, string) (bool, error) {
	rule, _ := engine.RuleByName(name)
	return func(_ context.Context, s *Session, _ string) (bool, error) {
		d := rule(s.ws, s.version)
		s.version = d.Version
		s.printDerivation(d)
		s.printf("Applied %s rule.\n", name)
		return true, nil
	}
}

func cmdApplyAll(_ context.Context, s *Session, _ string) (bool, error) {
	res, err := engine.Driver{MaxRounds: s.opts.MaxRounds}.Run(s.ws, s.version)
	s.version = res.Version
	for _, d := range res.Derivations {
		s.printDerivation(d)
	}
	if err != nil {
		s.printf("Stopped after %d rounds without reaching a fixed point.\n", res.Rounds)
		return true, &CommandError{Code: ErrCodeRoundLimit, Command: "apply-closure-rules", Message: "round limit reached", Err: err}
	}
	s.println("Applied closure rules until no new entries were added.")
	return true, nil
}

func cmdClosure(_ context.Context, s *Session, args string) (bool, error) {
	attrs, err := parse.Attrs(args)
	if err != nil {
		s.println("Invalid format. Attributes should be in the form '{a,b}'")
		return true, &CommandError{Code: ErrCodeInvalidAttrs, Command: "closure", Message: "malformed attribute list", Err: err}
	}
	s.println(s.cache.Closure(s.ws, attrs))
	return true, nil
}

func cmdSuperkeys(_ context.Context, s *Session, _ string) (bool, error) {
	keys := engine.Superkeys(s.ws.All())
	if len(keys) == 0 {
		s.println("No superkeys found for all attributes in active_set.")
		return true, nil
	}
	s.println("The following sets of attributes are superkeys of all attributes in active_set:")
	for _, k := range keys {
		s.println(k)
	}
	return true, nil
}

func cmdCandidateKeys(_ context.Context, s *Session, _ string) (bool, error) {
	keys := engine.CandidateKeys(s.ws.All())
	if len(keys) == 0 {
		s.println("No candidate keys found for all attributes in active_set.")
		return true, nil
	}
	s.println("The following sets of attributes are candidate keys of all attributes in active_set:")
	for _, k := range keys {
		s.println(k)
	}
	return true, nil
}

func cmdShow(_ context.Context, s *Session, _ string) (bool, error) {
	if s.ws.Len() == 0 {
		s.println("Active set is empty.")
		return true, nil
	}
	s.println("Current set of functional dependencies:")
	for _, fd := range s.ws.ByVersion() {
		s.printf("%d: %s\n", fd.Version, fd)
	}
	return true, nil
}

// cmdLoad bumps the version, then runs each script line as if typed,
// without adding the lines to history. quit inside a script stops only
// the script.
func cmdLoad(ctx context.Context, s *Session, path string) (bool, error) {
	if s.depth >= maxLoadDepth {
		s.printf("Too many nested loads: %s\n", path)
		return true, &CommandError{Code: ErrCodeLoadDepth, Command: "load", Message: "nested loads exceed limit"}
	}

	lines, err := store.ReadScript(s.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		s.printf("File not found: %s\n", path)
		return true, &CommandError{Code: ErrCodeFileNotFound, Command: "load", Message: path, Err: err}
	}
	if err != nil {
		s.printf("Could not read file: %s\n", path)
		return true, &CommandError{Code: ErrCodeIO, Command: "load", Message: path, Err: err}
	}

	s.version = s.version.Next()
	s.depth++
	defer func() { s.depth-- }()

	var firstErr error
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s.printf("Executing command from file: %s\n", line)
		cont, err := s.dispatch(ctx, line)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if !cont {
			break
		}
	}
	return true, firstErr
}

func cmdSave(_ context.Context, s *Session, path string) (bool, error) {
	if err := store.WriteScript(s.resolve(path), s.history); err != nil {
		s.printf("Could not write file: %s\n", path)
		return true, &CommandError{Code: ErrCodeIO, Command: "save", Message: path, Err: err}
	}
	s.printf("Commands saved to %s\n", path)
	return true, nil
}

func cmdImport(_ context.Context, s *Session, path string) (bool, error) {
	result, errs := fdspec.LoadSpecs(s.resolve(path), fdspec.LoadModeFailFast)
	if len(errs) > 0 {
		s.printf("Import failed: %v\n", errs[0])
		return true, &CommandError{Code: ErrCodeImport, Command: "import", Message: path, Err: errors.Join(errs...)}
	}

	added := 0
	for _, fd := range result.FDs() {
		fd.Version = s.version
		if s.ws.Push(fd) {
			added++
			s.printf("Added: %s\n", fd)
		}
	}
	s.printf("Imported %d dependencies from %d relation(s).\n", added, len(result.Relations))
	return true, nil
}

func cmdHelp(_ context.Context, s *Session, _ string) (bool, error) {
	s.println("Commands:")
	for _, name := range commandOrder {
		cmd := commands[name]
		s.printf("  %-20s %s\n", cmd.usage, cmd.help)
	}
	return true, nil
}

func cmdQuit(context.Context, *Session, string) (bool, error) {
	return false, nil
}

// printDerivation prints one line per derived FD with its premises.
func (s *Session) printDerivation(d engine.Derivation) {
	for _, step := range d.Steps {
		premises := make([]string, len(step.Premises))
		for i, p := range step.Premises {
			premises[i] = p.String()
		}
		s.printf("Derived: %d: %s from %s\n", step.FD.Version, step.FD, strings.Join(premises, " and "))
	}
}
