package fdtmc

import "github.com/matzehuels/reana/pkg/expr"

// Inline returns a new model in which every interface whose ID has an entry
// in models is replaced by a copy of that model:
//
//	from --1--> dep.initial, dep.success --1--> success, dep.error --1--> error
//
// Interfaces without an entry are kept. Neither m nor the models are modified.
// Every model in models must pass [FDTMC.Validate].
func (m *FDTMC) Inline(models map[string]*FDTMC) *FDTMC {
	out := &FDTMC{
		states:  make([]State, len(m.states)),
		initial: m.initial,
		success: m.success,
		err:     m.err,
	}
	copy(out.states, m.states)

	for _, t := range m.transitions {
		if _, ok := models[t.Action]; ok && m.IsInterfaceEdge(t) {
			continue
		}
		out.transitions = append(out.transitions, t)
	}

	for _, iface := range m.interfaces {
		dep, ok := models[iface.ID]
		if !ok {
			out.interfaces = append(out.interfaces, iface)
			continue
		}
		off := out.embed(dep, iface.ID)
		out.mustAdd(iface.From, off+dep.initial, "", "1")
		out.mustAdd(off+dep.success, iface.Success, "", "1")
		if dep.err >= 0 && out.valid(iface.Error) {
			out.mustAdd(off+dep.err, iface.Error, "", "1")
		}
	}
	return out
}

// IsInterfaceEdge reports whether t is one of the two placeholder edges of an
// interface of m.
func (m *FDTMC) IsInterfaceEdge(t Transition) bool {
	for _, i := range m.interfaces {
		if i.ID == t.Action && i.From == t.From && (t.To == i.Success || t.To == i.Error) {
			return true
		}
	}
	return false
}

// embed copies the states, transitions and interfaces of sub into m, turning
// every copied state into a normal state. It returns the index offset of the
// copy.
func (m *FDTMC) embed(sub *FDTMC, prefix string) int {
	off := len(m.states)
	for _, s := range sub.states {
		m.states = append(m.states, State{
			Index: off + s.Index,
			Label: prefix + "/" + s.Label,
			Kind:  Normal,
		})
	}
	for _, t := range sub.transitions {
		t.From += off
		t.To += off
		m.transitions = append(m.transitions, t)
	}
	for _, i := range sub.interfaces {
		i.From += off
		i.Success += off
		i.Error += off
		m.interfaces = append(m.interfaces, i)
	}
	return off
}

// Switch returns the model that behaves like ifTrue with probability
// variable and like ifFalse otherwise. Binding variable to 1 or 0 selects
// one branch; the family derivation uses presence variables here.
func Switch(variable string, ifTrue, ifFalse *FDTMC) *FDTMC {
	m := New()
	init := m.CreateInitialState("switch " + variable)
	succ := m.CreateSuccessState("success")
	fail := m.CreateErrorState("error")

	for _, branch := range []struct {
		name  string
		model *FDTMC
		prob  string
	}{
		{variable, ifTrue, variable},
		{"!" + variable, ifFalse, expr.Complement(variable)},
	} {
		off := m.embed(branch.model, branch.name)
		m.mustAdd(init, off+branch.model.initial, "", branch.prob)
		m.mustAdd(off+branch.model.success, succ, "", "1")
		if branch.model.err >= 0 {
			m.mustAdd(off+branch.model.err, fail, "", "1")
		}
	}
	return m
}
