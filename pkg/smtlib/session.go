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
package smtlib

import (
	"fmt"

	"github.com/r1ceplus/z3/pkg/term"
	"github.com/r1ceplus/z3/pkg/util/source"
	"github.com/r1ceplus/z3/pkg/util/source/sexp"
)

// Session holds the declarations made by a sequence of SMT-LIB scripts.  The
// declarations of one script remain visible to those executed after it, which
// allows a vocabulary prelude to be executed once and shared by many
// assertions.
type Session struct {
	arena *term.Arena
	// Declared constants
	consts map[string]term.Term
	// Declared constants in declaration order
	order []term.Term
	// Stack of local scopes introduced by binders
	scopes []map[string]term.Term
}

// NewSession constructs an empty session over a given arena.
func NewSession(arena *term.Arena) *Session {
	return &Session{arena: arena, consts: make(map[string]term.Term)}
}

// Arena returns the arena into which terms are translated.
func (p *Session) Arena() *term.Arena {
	return p.arena
}

// Const looks up a declared constant by name.
func (p *Session) Const(name string) (term.Term, bool) {
	t, ok := p.consts[name]
	return t, ok
}

// Consts returns all declared constants in declaration order.
func (p *Session) Consts() []term.Term {
	return p.order
}

// Execute the commands of a given script, returning the asserted formulas.
// Declarations are retained by the session.  Execution stops at the first
// command which fails.
func (p *Session) Execute(srcfile *source.File) ([]term.Term, []source.SyntaxError) {
	sexps, srcmap, err := sexp.ParseAll(srcfile)
	if err != nil {
		return nil, []source.SyntaxError{*err}
	}
	//
	var (
		translator = p.translator(srcfile, srcmap)
		assertions []term.Term
	)
	//
	for _, s := range sexps {
		cmd := s.AsList()
		if cmd == nil || cmd.Len() == 0 || cmd.Get(0).AsSymbol() == nil {
			return nil, translator.SyntaxErrors(s, "invalid command")
		}
		//
		var errs []source.SyntaxError
		//
		switch cmd.Head() {
		case "declare-const":
			errs = p.declareConst(translator, cmd, 3)
		case "declare-fun":
			errs = p.declareConst(translator, cmd, 4)
		case "declare-datatypes":
			errs = p.declareDatatypes(translator, cmd)
		case "declare-datatype":
			errs = p.declareDatatype(translator, cmd)
		case "assert":
			if cmd.Len() != 2 {
				return nil, translator.SyntaxErrors(cmd, "invalid assertion")
			}
			//
			var t term.Term
			//
			if t, errs = translator.Translate(cmd.Get(1)); len(errs) == 0 {
				if p.arena.Sort(t) != term.BoolSort {
					errs = translator.SyntaxErrors(cmd.Get(1), "expected Bool assertion")
				}
				//
				assertions = append(assertions, t)
			}
		case "set-logic", "set-option", "set-info", "check-sat", "get-model", "exit":
			// ignored
		default:
			errs = translator.SyntaxErrors(cmd.Get(0), fmt.Sprintf("unknown command \"%s\"", cmd.Head()))
		}
		//
		if len(errs) > 0 {
			return nil, errs
		}
	}
	//
	return assertions, nil
}

// ParseTerm translates a single term in the context of the declarations made
// so far.
func (p *Session) ParseTerm(srcfile *source.File) (term.Term, []source.SyntaxError) {
	s, srcmap, err := sexp.Parse(srcfile)
	if err != nil {
		return term.NoTerm, []source.SyntaxError{*err}
	} else if s == nil {
		return term.NoTerm, []source.SyntaxError{*srcfile.SyntaxError(source.NewSpan(0, 0), "empty term")}
	}
	//
	return p.translator(srcfile, srcmap).Translate(s)
}

// declareConst handles (declare-const x S) and nullary (declare-fun x () S).
func (p *Session) declareConst(translator *sexp.Translator[term.Term], cmd *sexp.List, n int) []source.SyntaxError {
	if cmd.Len() != n || cmd.Get(1).AsSymbol() == nil {
		return translator.SyntaxErrors(cmd, "invalid declaration")
	} else if n == 4 && (cmd.Get(2).AsList() == nil || cmd.Get(2).AsList().Len() != 0) {
		return translator.SyntaxErrors(cmd.Get(2), "only constants can be declared")
	}
	//
	name := cmd.Get(1).AsSymbol().Value
	//
	sort, errs := p.sort(translator, cmd.Get(n-1))
	if errs != nil {
		return errs
	} else if _, ok := p.consts[name]; ok {
		return translator.SyntaxErrors(cmd.Get(1), fmt.Sprintf("constant \"%s\" already declared", name))
	}
	//
	c := p.arena.Var(name, sort)
	p.consts[name] = c
	p.order = append(p.order, c)
	//
	return nil
}

// declareDatatypes handles both the legacy form
//
//	(declare-datatypes () ((IList (nil) (cons (car Int) (cdr IList)))))
//
// and the SMT-LIB 2.6 form
//
//	(declare-datatypes ((IList 0)) (((nil) (cons (car Int) (cdr IList)))))
func (p *Session) declareDatatypes(translator *sexp.Translator[term.Term], cmd *sexp.List) []source.SyntaxError {
	if cmd.Len() != 3 || cmd.Get(1).AsList() == nil || cmd.Get(2).AsList() == nil {
		return translator.SyntaxErrors(cmd, "invalid datatype declaration")
	}
	//
	var (
		params = cmd.Get(1).AsList()
		decls  = cmd.Get(2).AsList()
		names  []sexp.SExp
		bodies [][]sexp.SExp
	)
	//
	if params.Len() == 0 {
		// Legacy form
		for _, decl := range decls.Elements {
			if l := decl.AsList(); l == nil || l.Len() < 2 || l.Get(0).AsSymbol() == nil {
				return translator.SyntaxErrors(decl, "invalid datatype")
			} else {
				names = append(names, l.Get(0))
				bodies = append(bodies, l.Elements[1:])
			}
		}
	} else {
		if params.Len() != decls.Len() {
			return translator.SyntaxErrors(cmd, "mismatched datatype declaration")
		}
		//
		for i, param := range params.Elements {
			l := param.AsList()
			//
			if l == nil || l.Len() != 2 || l.Get(0).AsSymbol() == nil || l.Get(1).AsSymbol() == nil ||
				l.Get(1).AsSymbol().Value != "0" {
				return translator.SyntaxErrors(param, "invalid datatype (parametric datatypes are not supported)")
			} else if body := decls.Get(i).AsList(); body == nil {
				return translator.SyntaxErrors(decls.Get(i), "invalid datatype")
			} else {
				names = append(names, l.Get(0))
				bodies = append(bodies, body.Elements)
			}
		}
	}
	//
	return p.defineDatatypes(translator, names, bodies)
}

// declareDatatype handles (declare-datatype IList ((nil) (cons ...))).
func (p *Session) declareDatatype(translator *sexp.Translator[term.Term], cmd *sexp.List) []source.SyntaxError {
	if cmd.Len() != 3 || cmd.Get(1).AsSymbol() == nil || cmd.Get(2).AsList() == nil {
		return translator.SyntaxErrors(cmd, "invalid datatype declaration")
	}
	//
	return p.defineDatatypes(translator, []sexp.SExp{cmd.Get(1)}, [][]sexp.SExp{cmd.Get(2).AsList().Elements})
}

func (p *Session) defineDatatypes(translator *sexp.Translator[term.Term], names []sexp.SExp,
	bodies [][]sexp.SExp) []source.SyntaxError {
	var (
		sorts    = p.arena.Sorts()
		declared = make([]term.Sort, len(names))
		err      error
	)
	// Declare all names first, so they can be mutually recursive.
	for i, name := range names {
		if declared[i], err = sorts.Declare(name.AsSymbol().Value); err != nil {
			return translator.SyntaxErrors(name, err.Error())
		}
	}
	//
	for i, body := range bodies {
		var ctors []term.Constructor
		//
		for _, c := range body {
			ctor, errs := p.constructor(translator, c)
			if errs != nil {
				return errs
			}
			//
			ctors = append(ctors, ctor)
		}
		//
		if _, err := sorts.Define(declared[i], ctors); err != nil {
			return translator.SyntaxErrors(names[i], err.Error())
		}
	}
	//
	for i, name := range names {
		if !sorts.IsWellFounded(declared[i]) {
			return translator.SyntaxErrors(name, "datatype has no finite values")
		}
	}
	//
	return nil
}

// constructor parses a constructor declaration, such as "nil", "(nil)" or
// "(cons (car Int) (cdr IList))".
func (p *Session) constructor(translator *sexp.Translator[term.Term], c sexp.SExp) (term.Constructor,
	[]source.SyntaxError) {
	if s := c.AsSymbol(); s != nil {
		return term.Constructor{Name: s.Value}, nil
	}
	//
	l := c.AsList()
	if l.Len() == 0 || l.Get(0).AsSymbol() == nil {
		return term.Constructor{}, translator.SyntaxErrors(c, "invalid constructor")
	}
	//
	ctor := term.Constructor{Name: l.Head()}
	//
	for _, f := range l.Elements[1:] {
		fl := f.AsList()
		//
		if fl == nil || fl.Len() != 2 || fl.Get(0).AsSymbol() == nil {
			return ctor, translator.SyntaxErrors(f, "invalid field")
		}
		//
		sort, errs := p.sort(translator, fl.Get(1))
		if errs != nil {
			return ctor, errs
		}
		//
		ctor.Fields = append(ctor.Fields, term.Field{Name: fl.Head(), Sort: sort})
	}
	//
	return ctor, nil
}

func (p *Session) sort(translator *sexp.Translator[term.Term], s sexp.SExp) (term.Sort, []source.SyntaxError) {
	if sym := s.AsSymbol(); sym == nil {
		return 0, translator.SyntaxErrors(s, "invalid sort")
	} else if sort, ok := p.arena.Sorts().Lookup(sym.Value); ok {
		return sort, nil
	} else {
		return 0, translator.SyntaxErrors(s, fmt.Sprintf("unknown sort \"%s\"", sym.Value))
	}
}
