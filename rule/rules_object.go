package rule

import (
	"errors"
	"reflect"
)

func funcRules() map[string]RuleFunc {
	return map[string]RuleFunc{
		"arity": func(args ...any) (Check, error) {
			if err := wantArgs(args, 1); err != nil {
				return nil, err
			}
			n, err := intArg(args[0])
			if err != nil {
				return nil, err
			}
			return func(v any, _ Options) (any, *Failure) {
				if reflect.TypeOf(v).NumIn() == n {
					return v, nil
				}
				return v, Fail(CodeFunctionArity, "n", n)
			}, nil
		},
	}
}

func arrayRules() map[string]RuleFunc {
	return map[string]RuleFunc{
		"min":    arrayCount(CodeArrayMin, func(n, l int) bool { return n >= l }),
		"max":    arrayCount(CodeArrayMax, func(n, l int) bool { return n <= l }),
		"length": arrayCount(CodeArrayLength, func(n, l int) bool { return n == l }),
		"unique": func(args ...any) (Check, error) {
			if err := wantArgs(args, 0); err != nil {
				return nil, err
			}
			return func(v any, _ Options) (any, *Failure) {
				items := v.([]any)
				for i := 1; i < len(items); i++ {
					for j := 0; j < i; j++ {
						if equalValues(items[i], items[j]) {
							return v, Fail(CodeArrayUnique, "pos", i, "dupePos", j)
						}
					}
				}
				return v, nil
			}, nil
		},
	}
}

func arrayCount(code string, ok func(n, limit int) bool) RuleFunc {
	return func(args ...any) (Check, error) {
		if err := wantArgs(args, 1); err != nil {
			return nil, err
		}
		limit, err := intArg(args[0])
		if err != nil {
			return nil, err
		}
		return func(v any, _ Options) (any, *Failure) {
			if ok(len(v.([]any)), limit) {
				return v, nil
			}
			return v, Fail(code, "limit", limit)
		}, nil
	}
}

var errNoPeers = errors.New("at least one peer is required")

// Peer rules look at key presence only: a key mapped to nil is present.
func objectRules() map[string]RuleFunc {
	return map[string]RuleFunc{
		"and": peerGroup(func(m map[string]any, peers []string) *Failure {
			present, missing := splitPresent(m, peers)
			if len(present) > 0 && len(missing) > 0 {
				return Fail(CodeObjectAnd, "present", present, "missing", missing)
			}
			return nil
		}),
		"nand": peerGroup(func(m map[string]any, peers []string) *Failure {
			if _, missing := splitPresent(m, peers); len(missing) == 0 {
				return Fail(CodeObjectNand, "main", peers[0], "peers", peers[1:])
			}
			return nil
		}),
		"or": peerGroup(func(m map[string]any, peers []string) *Failure {
			if present, _ := splitPresent(m, peers); len(present) == 0 {
				return Fail(CodeObjectMissing, "peers", peers)
			}
			return nil
		}),
		"xor": peerGroup(func(m map[string]any, peers []string) *Failure {
			present, _ := splitPresent(m, peers)
			switch {
			case len(present) == 0:
				return Fail(CodeObjectMissing, "peers", peers)
			case len(present) > 1:
				return Fail(CodeObjectXor, "peers", present)
			}
			return nil
		}),
		"oxor": peerGroup(func(m map[string]any, peers []string) *Failure {
			if present, _ := splitPresent(m, peers); len(present) > 1 {
				return Fail(CodeObjectOxor, "peers", present)
			}
			return nil
		}),
		"with": mainPeers(func(m map[string]any, main string, peers []string) *Failure {
			if _, missing := splitPresent(m, peers); len(missing) > 0 {
				return Fail(CodeObjectWith, "main", main, "peer", missing[0])
			}
			return nil
		}),
		"without": mainPeers(func(m map[string]any, main string, peers []string) *Failure {
			if present, _ := splitPresent(m, peers); len(present) > 0 {
				return Fail(CodeObjectWithout, "main", main, "peer", present[0])
			}
			return nil
		}),
	}
}

func peerGroup(check func(m map[string]any, peers []string) *Failure) RuleFunc {
	return func(args ...any) (Check, error) {
		peers, err := stringsArg(args)
		if err != nil {
			return nil, err
		}
		if len(peers) == 0 {
			return nil, errNoPeers
		}
		return func(v any, _ Options) (any, *Failure) {
			return v, check(v.(map[string]any), peers)
		}, nil
	}
}

// mainPeers rules take the main key followed by its peers and only apply
// when the main key is present.
func mainPeers(check func(m map[string]any, main string, peers []string) *Failure) RuleFunc {
	return func(args ...any) (Check, error) {
		keys, err := stringsArg(args)
		if err != nil {
			return nil, err
		}
		if len(keys) < 2 {
			return nil, errNoPeers
		}
		main, peers := keys[0], keys[1:]
		return func(v any, _ Options) (any, *Failure) {
			m := v.(map[string]any)
			if _, ok := m[main]; !ok {
				return v, nil
			}
			return v, check(m, main, peers)
		}, nil
	}
}

func splitPresent(m map[string]any, peers []string) (present, missing []string) {
	for _, p := range peers {
		if _, ok := m[p]; ok {
			present = append(present, p)
		} else {
			missing = append(missing, p)
		}
	}
	return present, missing
}
