package invocation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidSpec marks a malformed channel spec.
var ErrInvalidSpec = errors.New("invalid channel spec")

// Validate checks spec for structural errors. needsGate is reported so the
// dispatcher can reject capability-guarded operations when no gate exists.
func Validate(spec ChannelSpec) (needsGate bool, err error) {
	if strings.TrimSpace(string(spec.ID)) == "" {
		return false, fmt.Errorf("%w: channel id is empty", ErrInvalidSpec)
	}
	if len(spec.Operations) == 0 {
		return false, fmt.Errorf("%w: channel %s declares no operations", ErrInvalidSpec, spec.ID)
	}
	seen := make(map[string]struct{}, len(spec.Operations))
	for i, op := range spec.Operations {
		name := strings.TrimSpace(op.Name)
		if name == "" || name != op.Name {
			return false, fmt.Errorf("%w: channel %s operation %d has an invalid name %q", ErrInvalidSpec, spec.ID, i, op.Name)
		}
		if _, dup := seen[name]; dup {
			return false, fmt.Errorf("%w: channel %s declares %s twice", ErrInvalidSpec, spec.ID, name)
		}
		seen[name] = struct{}{}
		if op.Run == nil {
			return false, fmt.Errorf("%w: %s.%s has no run function", ErrInvalidSpec, spec.ID, name)
		}
		if op.Result != ResultBool && op.Result != ResultNull {
			return false, fmt.Errorf("%w: %s.%s has unsupported result kind %s", ErrInvalidSpec, spec.ID, name, op.Result)
		}
		if err := validateArgs(spec.ID, op); err != nil {
			return false, err
		}
		if strings.TrimSpace(op.Capability) != op.Capability {
			return false, fmt.Errorf("%w: %s.%s capability %q has surrounding whitespace", ErrInvalidSpec, spec.ID, name, op.Capability)
		}
		if op.Capability != "" {
			needsGate = true
		}
	}
	return needsGate, nil
}

func validateArgs(channel ChannelID, op Operation) error {
	seen := make(map[string]struct{}, len(op.Args))
	for _, arg := range op.Args {
		if strings.TrimSpace(arg.Name) == "" {
			return fmt.Errorf("%w: %s.%s has an unnamed argument", ErrInvalidSpec, channel, op.Name)
		}
		if _, dup := seen[arg.Name]; dup {
			return fmt.Errorf("%w: %s.%s declares argument %s twice", ErrInvalidSpec, channel, op.Name, arg.Name)
		}
		seen[arg.Name] = struct{}{}
		switch arg.Kind {
		case KindString, KindNumber, KindBool:
		default:
			return fmt.Errorf("%w: %s.%s argument %s has unsupported kind %s", ErrInvalidSpec, channel, op.Name, arg.Name, arg.Kind)
		}
	}
	return nil
}

// checkArgs verifies args against the operation's declared argument specs.
// Every value, declared or not, must be a primitive.
func checkArgs(specs []ArgSpec, args Arguments) error {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !isPrimitive(args[name]) {
			return fmt.Errorf("argument %s is not a string, number, or bool", name)
		}
	}

	for _, spec := range specs {
		value, present := args[spec.Name]
		if !present || value == nil {
			if spec.Required {
				return fmt.Errorf("missing argument %s", spec.Name)
			}
			continue
		}
		switch spec.Kind {
		case KindString:
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("argument %s must be a string", spec.Name)
			}
			if spec.Required && !spec.AllowBlank && strings.TrimSpace(s) == "" {
				return fmt.Errorf("argument %s is blank", spec.Name)
			}
		case KindNumber:
			if _, ok := toNumber(value); !ok {
				return fmt.Errorf("argument %s must be a number", spec.Name)
			}
		case KindBool:
			if _, ok := value.(bool); !ok {
				return fmt.Errorf("argument %s must be a bool", spec.Name)
			}
		}
	}
	return nil
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case nil, string, bool:
		return true
	}
	_, ok := toNumber(v)
	return ok
}
