// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package assembler

import (
	"sort"

	"github.com/lassandro/gorv32/pkg/encoding"
	"github.com/lassandro/gorv32/pkg/isa"
)

// chaseEquiv resolves one alias to its absolute value, following chains of
// aliases and labels. visiting guards against cycles.
func chaseEquiv(
	p *Program, name string, visiting map[string]bool,
) (int32, error) {
	if value, ok := p.EquivValues[name]; ok {
		return value, nil
	}

	if visiting[name] {
		return 0, &EquivCircularityError{name}
	}

	visiting[name] = true

	rhs := p.Equivs[name]

	var value int32

	if v, err := encoding.DecodeImmediate(rhs); err == nil {
		value = v
	} else if v, ok := p.Labels[rhs]; ok {
		value = v
	} else if _, ok := p.Equivs[rhs]; ok {
		v, err := chaseEquiv(p, rhs, visiting)

		if err != nil {
			return 0, err
		}

		value = v
	} else {
		return 0, &isa.UnresolvedSymbolError{Received: rhs}
	}

	p.EquivValues[name] = value
	return value, nil
}

// resolveEquivalences installs every alias into the unit's label table.
// Aliases are chased in sorted order so diagnostics are deterministic.
func resolveEquivalences(p *Program) []error {
	var errs []error

	names := make([]string, 0, len(p.Equivs))
	for name := range p.Equivs {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		if _, exists := p.Labels[name]; exists {
			errs = append(errs, &EquivConflictError{name})
			continue
		}

		value, err := chaseEquiv(p, name, make(map[string]bool))

		if err != nil {
			errs = append(errs, err)
			continue
		}

		p.Labels[name] = value
	}

	return errs
}

// runPassTwo encodes every TAL line collected by pass one into the unit's
// instruction list.
func runPassTwo(prog *Program, tal []talLine) []error {
	errs := resolveEquivalences(prog)

	for _, line := range tal {
		prog.textCursor = int32(len(prog.Insts)) * 4

		inst, ok := isa.Lookup(line.Tokens[0])

		if !ok {
			errs = append(errs, &UnknownMnemonicError{
				Cursor{Line: line.Debug.LineNo, LineByte: line.Debug.LineByte},
				line.Tokens[0],
			})
			continue
		}

		mc := inst.Format.Fill()

		err := inst.Parse(prog, inst.Name, line.Tokens[1:], &mc)

		if err != nil {
			errs = append(errs, &LineError{
				Cursor{Line: line.Debug.LineNo, LineByte: line.Debug.LineByte},
				err,
			})
			continue
		}

		prog.Insts = append(prog.Insts, mc)
		prog.DebugInfo = append(prog.DebugInfo, line.Debug)
	}

	prog.TextSize = int32(len(prog.Insts)) * 4
	prog.textCursor = prog.TextSize

	return errs
}
