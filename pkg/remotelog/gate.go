package remotelog

// Gate decides whether a sink fires for a log call. The zero value is
// unset and always allows.
type Gate struct {
	set   bool
	value bool
	when  func() bool
}

// Bool is a gate fixed at v.
func Bool(v bool) Gate {
	return Gate{set: true, value: v}
}

// When is a gate that asks pred on every log call. A nil pred leaves the
// gate unset.
func When(pred func() bool) Gate {
	if pred == nil {
		return Gate{}
	}
	return Gate{set: true, when: pred}
}

// Allow resolves the gate. A panicking predicate counts as unset.
func (g Gate) Allow() (allowed bool) {
	if !g.set {
		return true
	}
	if g.when == nil {
		return g.value
	}

	defer func() {
		if recover() != nil {
			allowed = true
		}
	}()
	return g.when()
}
