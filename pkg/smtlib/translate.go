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
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"github.com/r1ceplus/z3/pkg/term"
	"github.com/r1ceplus/z3/pkg/util/source"
	"github.com/r1ceplus/z3/pkg/util/source/sexp"
)

var builtins = []string{
	"not", "and", "or", "=>", "xor", "=", "distinct", "ite", "<=", "<", ">=", ">", "+", "-", "*", "div", "mod", "/",
	"abs",
}

// translator constructs a term translator for a given source file.  Symbols
// are resolved against the local scopes (innermost first), then the declared
// constants, then literals and nullary constructors.
func (p *Session) translator(srcfile *source.File, srcmap *source.Map[sexp.SExp]) *sexp.Translator[term.Term] {
	t := sexp.NewTranslator[term.Term](srcfile, srcmap)
	// Builtin operators
	for _, name := range builtins {
		op, _ := term.LookupOp(name)
		t.AddRecursiveListRule(name, func(_ string, args []term.Term) (term.Term, error) {
			return p.arena.Apply(op, args...)
		})
	}
	// Binders
	t.AddListRule("exists", p.quantifierRule(t, term.KindExists))
	t.AddListRule("forall", p.quantifierRule(t, term.KindForall))
	t.AddListRule("let", p.letRule(t))
	// Datatype operations (and indexed identifiers)
	t.AddDefaultListRule(p.applicationRule(t))
	// Symbols
	t.AddSymbolRule(p.resolveSymbol)
	t.AddSymbolRule(p.literal)
	t.AddSymbolRule(p.nullaryConstructor)
	//
	return t
}

func (p *Session) resolveSymbol(name string) (term.Term, bool, error) {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if t, ok := p.scopes[i][name]; ok {
			return t, true, nil
		}
	}
	//
	t, ok := p.consts[name]
	//
	return t, ok, nil
}

func (p *Session) literal(text string) (term.Term, bool, error) {
	switch {
	case text == "true":
		return p.arena.True(), true, nil
	case text == "false":
		return p.arena.False(), true, nil
	case len(text) == 0 || !unicode.IsDigit(rune(text[0])):
		return term.NoTerm, false, nil
	}
	//
	value, ok := new(big.Rat).SetString(text)
	if !ok || strings.ContainsAny(text, "/eE") {
		return term.NoTerm, true, fmt.Errorf("invalid numeral \"%s\"", text)
	} else if strings.Contains(text, ".") {
		return p.arena.Num(value, term.RealSort), true, nil
	}
	//
	return p.arena.Num(value, term.IntSort), true, nil
}

func (p *Session) nullaryConstructor(name string) (term.Term, bool, error) {
	if ctor := p.arena.Sorts().FindConstructor(name); ctor != nil {
		t, err := p.arena.Cons(ctor)
		return t, true, err
	}
	//
	return term.NoTerm, false, nil
}

// quantifierRule translates (exists ((x S) ...) body) and its universal
// counterpart.
func (p *Session) quantifierRule(t *sexp.Translator[term.Term], kind term.Kind) sexp.ListRule[term.Term] {
	return func(l *sexp.List) (term.Term, []source.SyntaxError) {
		if l.Len() != 3 || l.Get(1).AsList() == nil || l.Get(1).AsList().Len() == 0 {
			return term.NoTerm, t.SyntaxErrors(l, "invalid quantifier")
		}
		//
		var (
			scope = make(map[string]term.Term)
			bound []term.Term
		)
		//
		for _, b := range l.Get(1).AsList().Elements {
			bl := b.AsList()
			//
			if bl == nil || bl.Len() != 2 || bl.Get(0).AsSymbol() == nil {
				return term.NoTerm, t.SyntaxErrors(b, "invalid binding")
			}
			//
			sort, errs := p.sort(t, bl.Get(1))
			if errs != nil {
				return term.NoTerm, errs
			} else if _, ok := scope[bl.Head()]; ok {
				return term.NoTerm, t.SyntaxErrors(b, fmt.Sprintf("variable \"%s\" bound twice", bl.Head()))
			}
			//
			v := p.arena.Var(bl.Head(), sort)
			scope[bl.Head()] = v
			bound = append(bound, v)
		}
		//
		p.scopes = append(p.scopes, scope)
		body, errs := t.Translate(l.Get(2))
		p.scopes = p.scopes[:len(p.scopes)-1]
		//
		if errs != nil {
			return term.NoTerm, errs
		}
		//
		var (
			q   term.Term
			err error
		)
		//
		if kind == term.KindExists {
			q, err = p.arena.Exists(bound, body)
		} else {
			q, err = p.arena.Forall(bound, body)
		}
		//
		if err != nil {
			return term.NoTerm, t.SyntaxErrors(l, err.Error())
		}
		//
		return q, nil
	}
}

// letRule translates (let ((x t) ...) body) by expanding the bindings in
// place.  Bindings are parallel, so each bound term is translated in the
// enclosing scope.
func (p *Session) letRule(t *sexp.Translator[term.Term]) sexp.ListRule[term.Term] {
	return func(l *sexp.List) (term.Term, []source.SyntaxError) {
		if l.Len() != 3 || l.Get(1).AsList() == nil || l.Get(1).AsList().Len() == 0 {
			return term.NoTerm, t.SyntaxErrors(l, "invalid let")
		}
		//
		scope := make(map[string]term.Term)
		//
		for _, b := range l.Get(1).AsList().Elements {
			bl := b.AsList()
			//
			if bl == nil || bl.Len() != 2 || bl.Get(0).AsSymbol() == nil {
				return term.NoTerm, t.SyntaxErrors(b, "invalid binding")
			}
			//
			v, errs := t.Translate(bl.Get(1))
			if errs != nil {
				return term.NoTerm, errs
			}
			//
			scope[bl.Head()] = v
		}
		//
		p.scopes = append(p.scopes, scope)
		body, errs := t.Translate(l.Get(2))
		p.scopes = p.scopes[:len(p.scopes)-1]
		//
		return body, errs
	}
}

// applicationRule translates datatype constructor, selector and tester
// applications, such as (cons 1 nil), (car l), (is-nil l) and ((_ is nil) l).
func (p *Session) applicationRule(t *sexp.Translator[term.Term]) sexp.ListRule[term.Term] {
	return func(l *sexp.List) (term.Term, []source.SyntaxError) {
		args, errs := t.TranslateAll(l.Elements[1:])
		if errs != nil {
			return term.NoTerm, errs
		}
		//
		var (
			sorts = p.arena.Sorts()
			head  = l.Head()
			r     term.Term
			err   error
		)
		//
		if tester := l.Get(0).AsList(); tester != nil {
			if !tester.MatchSymbols(3, "_", "is") || tester.Len() != 3 || tester.Get(2).AsSymbol() == nil {
				return term.NoTerm, t.SyntaxErrors(tester, "unknown indexed identifier")
			}
			//
			head = "is-" + tester.Get(2).AsSymbol().Value
		}
		//
		switch {
		case sorts.FindConstructor(head) != nil:
			r, err = p.arena.Cons(sorts.FindConstructor(head), args...)
		case strings.HasPrefix(head, "is-") && sorts.FindConstructor(head[3:]) != nil:
			r, err = p.unary(args, func(arg term.Term) (term.Term, error) {
				return p.arena.Is(sorts.FindConstructor(head[3:]), arg)
			})
		case sorts.IsSelector(head):
			r, err = p.unary(args, func(arg term.Term) (term.Term, error) {
				if ctor, field, ok := sorts.FindSelector(head, p.arena.Sort(arg)); ok {
					return p.arena.Select(ctor, field, arg)
				}
				//
				return term.NoTerm, fmt.Errorf("selector %s not applicable to %s", head,
					sorts.Name(p.arena.Sort(arg)))
			})
		case head == "":
			err = errors.New("invalid application")
		default:
			err = fmt.Errorf("unknown function \"%s\"", head)
		}
		//
		if err != nil {
			return term.NoTerm, t.SyntaxErrors(l, err.Error())
		}
		//
		return r, nil
	}
}

func (p *Session) unary(args []term.Term, fn func(term.Term) (term.Term, error)) (term.Term, error) {
	if len(args) != 1 {
		return term.NoTerm, fmt.Errorf("expected one argument, got %d", len(args))
	}
	//
	return fn(args[0])
}
