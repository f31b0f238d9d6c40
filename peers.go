package classkema

import (
	"fmt"
	"reflect"
	"strings"
)

// checkPeers verifies every peer names a known property, using has to test
// membership.
func checkPeers(c *Class, prop string, peers []string, has func(string) bool) error {
	if len(peers) == 0 {
		return definitionError(c, prop, "at least one peer property is required")
	}
	var missing []string
	for _, p := range peers {
		if !has(p) {
			missing = append(missing, p)
		}
	}
	switch len(missing) {
	case 0:
		return nil
	case 1:
		return definitionError(c, prop, "peer property %q does not exist on %s", missing[0], c.Name())
	default:
		return definitionError(c, prop, "peer properties %s do not exist on %s", quoteAll(missing), c.Name())
	}
}

func quoteAll(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(q, ", ")
}

// With requires every peer to be present whenever the property is.
func With(peers ...string) PropertyDecorator { return mainPeerDecorator("with", peers) }

// Without forbids every peer whenever the property is present.
func Without(peers ...string) PropertyDecorator { return mainPeerDecorator("without", peers) }

func mainPeerDecorator(name string, peers []string) PropertyDecorator {
	return PropertyDecoratorFunc(func(c *Class, prop string) error {
		if err := checkPeers(c, prop, peers, c.HasProperty); err != nil {
			return err
		}
		return c.AddRule(name, append([]string{prop}, peers...))
	})
}

func groupDeclaration(name string, peers []string) Declaration {
	return DeclarationFunc(func(c *Class) error {
		if err := checkPeers(c, "", peers, c.HasProperty); err != nil {
			return err
		}
		return c.AddRule(name, peers)
	})
}

// And requires that either all or none of peers are present.
func And(peers ...string) Declaration { return groupDeclaration("and", peers) }

// Nand forbids all of peers being present together.
func Nand(peers ...string) Declaration { return groupDeclaration("nand", peers) }

// Or requires at least one of peers.
func Or(peers ...string) Declaration { return groupDeclaration("or", peers) }

// Xor requires exactly one of peers.
func Xor(peers ...string) Declaration { return groupDeclaration("xor", peers) }

// Oxor allows at most one of peers.
func Oxor(peers ...string) Declaration { return groupDeclaration("oxor", peers) }

// Extends declares P as the parent class, for classes that do not embed it.
func Extends[P any]() Declaration {
	return DeclarationFunc(func(c *Class) error { return c.SetParent(reflect.TypeFor[P]()) })
}

// Unknown fixes whether the class accepts keys it does not declare.
func Unknown(allow bool) Declaration {
	return DeclarationFunc(func(c *Class) error {
		c.SetUnknown(allow)
		return nil
	})
}
