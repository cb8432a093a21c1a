// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package term

import (
	"fmt"
)

// Sort identifies the sort (i.e. type) of a term.  The builtin sorts occupy
// the first few identifiers, whilst datatypes are allocated after them as they
// are declared.
type Sort uint32

const (
	// BoolSort is the sort of formulas.
	BoolSort Sort = iota
	// IntSort is the sort of (unbounded) integers.
	IntSort
	// RealSort is the sort of rationals.
	RealSort
)

// Field describes a single argument of a datatype constructor, along with the
// selector used to access it.
type Field struct {
	Name string
	Sort Sort
}

// Constructor describes a single variant of a datatype.
type Constructor struct {
	// Name of this constructor.
	Name string
	// Fields of this constructor in declaration order.
	Fields []Field
	// Datatype to which this constructor belongs.
	Datatype Sort
	// Identifier of this constructor within the registry.
	id uint32
}

// ID returns the registry-wide identifier for this constructor.
func (c *Constructor) ID() uint32 {
	return c.id
}

// IsRecursive checks whether any field of this constructor refers back to the
// enclosing datatype.
func (c *Constructor) IsRecursive() bool {
	for _, f := range c.Fields {
		if f.Sort == c.Datatype {
			return true
		}
	}
	//
	return false
}

// Datatype is a closed tagged variant.  Every value of a datatype is built from
// exactly one of its constructors.
type Datatype struct {
	Name         string
	Constructors []*Constructor
}

// Sorts is a registry of the sorts known within an arena.  It is populated
// once, when the vocabulary is declared, and is never shrunk.
type Sorts struct {
	names        []string
	datatypes    map[Sort]*Datatype
	byName       map[string]Sort
	constructors []*Constructor
}

func newSorts() Sorts {
	s := Sorts{
		datatypes: make(map[Sort]*Datatype),
		byName:    make(map[string]Sort),
	}
	//
	for _, n := range []string{"Bool", "Int", "Real"} {
		s.byName[n] = Sort(len(s.names))
		s.names = append(s.names, n)
	}
	//
	return s
}

// Lookup a sort by name.
func (p *Sorts) Lookup(name string) (Sort, bool) {
	s, ok := p.byName[name]
	return s, ok
}

// Name returns the name of a given sort.
func (p *Sorts) Name(s Sort) string {
	return p.names[s]
}

// IsArith checks whether the given sort is numeric.
func (p *Sorts) IsArith(s Sort) bool {
	return s == IntSort || s == RealSort
}

// Datatype returns the datatype for a given sort, or nil if the sort is not a
// datatype.
func (p *Sorts) Datatype(s Sort) *Datatype {
	return p.datatypes[s]
}

// Constructor returns the constructor with a given identifier.
func (p *Sorts) Constructor(id uint32) *Constructor {
	return p.constructors[id]
}

// Declare a new sort name, so that it can be referred to by (mutually)
// recursive datatype definitions before being defined.
func (p *Sorts) Declare(name string) (Sort, error) {
	if _, ok := p.byName[name]; ok {
		return 0, fmt.Errorf("sort %s already declared", name)
	}
	//
	s := Sort(len(p.names))
	p.names = append(p.names, name)
	p.byName[name] = s
	//
	return s, nil
}

// Define the constructors of a previously declared datatype sort.
func (p *Sorts) Define(sort Sort, constructors []Constructor) (*Datatype, error) {
	if sort <= RealSort || int(sort) >= len(p.names) {
		return nil, fmt.Errorf("invalid datatype sort %d", sort)
	} else if _, ok := p.datatypes[sort]; ok {
		return nil, fmt.Errorf("datatype %s already defined", p.names[sort])
	} else if len(constructors) == 0 {
		return nil, fmt.Errorf("datatype %s has no constructors", p.names[sort])
	}
	//
	dt := &Datatype{Name: p.names[sort]}
	//
	for _, c := range constructors {
		if p.FindConstructor(c.Name) != nil {
			return nil, fmt.Errorf("constructor %s already declared", c.Name)
		}
		//
		ctor := &Constructor{c.Name, c.Fields, sort, uint32(len(p.constructors))}
		p.constructors = append(p.constructors, ctor)
		dt.Constructors = append(dt.Constructors, ctor)
	}
	//
	p.datatypes[sort] = dt
	//
	return dt, nil
}

// FindConstructor looks up a constructor by name, returning nil if none
// exists.
func (p *Sorts) FindConstructor(name string) *Constructor {
	for _, c := range p.constructors {
		if c.Name == name {
			return c
		}
	}
	//
	return nil
}

// FindSelector looks up a selector by name for a given argument sort.  Since
// selector names may be shared between datatypes (e.g. car and cdr), the
// argument sort is needed to disambiguate them.
func (p *Sorts) FindSelector(name string, arg Sort) (*Constructor, int, bool) {
	if dt := p.datatypes[arg]; dt != nil {
		for _, c := range dt.Constructors {
			for i, f := range c.Fields {
				if f.Name == name {
					return c, i, true
				}
			}
		}
	}
	//
	return nil, 0, false
}

// IsSelector checks whether a given name is a selector of any datatype.
func (p *Sorts) IsSelector(name string) bool {
	for _, c := range p.constructors {
		for _, f := range c.Fields {
			if f.Name == name {
				return true
			}
		}
	}
	//
	return false
}

// IsWellFounded checks whether every constructor's fields can eventually be
// satisfied by a non-recursive value, i.e. whether every datatype has a base
// value.
func (p *Sorts) IsWellFounded(s Sort) bool {
	return p.baseConstructor(s, make(map[Sort]bool)) != nil
}

// baseConstructor finds a constructor of a datatype which can be used to build
// a finite value without revisiting any sort currently being visited.
func (p *Sorts) baseConstructor(s Sort, visiting map[Sort]bool) *Constructor {
	dt := p.datatypes[s]
	if dt == nil || visiting[s] {
		return nil
	}
	//
	visiting[s] = true
	defer delete(visiting, s)
	//
	for _, c := range dt.Constructors {
		ok := true
		//
		for _, f := range c.Fields {
			if p.datatypes[f.Sort] != nil && p.baseConstructor(f.Sort, visiting) == nil {
				ok = false
				break
			}
		}
		//
		if ok {
			return c
		}
	}
	//
	return nil
}
