package interpreter

import (
	"github.com/wisplang/wisp/internal/token"
	"github.com/wisplang/wisp/internal/wisperrors"
)

// Class is a class runtime object. Per the invariant that a class is
// itself instance-like, it carries its own field table and answers
// Get/Set the same way an Instance does, resolving static methods and
// getters through the same flat-table lookup as instance members.
type Class struct {
	name          string
	superclass    *Class
	methods       map[string]*Function
	getters       map[string]*Function
	staticMethods map[string]*Function
	staticGetters map[string]*Function
	fields        map[string]any
}

// NewClass assembles a class from its flat method/getter tables.
func NewClass(name string, superclass *Class, methods, getters, staticMethods, staticGetters map[string]*Function) *Class {
	return &Class{
		name:          name,
		superclass:    superclass,
		methods:       methods,
		getters:       getters,
		staticMethods: staticMethods,
		staticGetters: staticGetters,
		fields:        make(map[string]any),
	}
}

// FindMethod walks the inheritance chain looking for an instance
// method named name.
func (c *Class) FindMethod(name string) *Function {
	if m, ok := c.methods[name]; ok {
		return m
	}
	if c.superclass != nil {
		return c.superclass.FindMethod(name)
	}
	return nil
}

// FindGetter walks the inheritance chain looking for an instance
// getter named name.
func (c *Class) FindGetter(name string) *Function {
	if g, ok := c.getters[name]; ok {
		return g
	}
	if c.superclass != nil {
		return c.superclass.FindGetter(name)
	}
	return nil
}

// FindInit returns the class's own or inherited `init` method, or nil
// if none exists.
func (c *Class) FindInit() *Function {
	return c.FindMethod("init")
}

// Arity implements Callable: constructing an instance takes whatever
// arguments the (possibly inherited) initializer takes.
func (c *Class) Arity() Arity {
	if init := c.FindInit(); init != nil {
		return init.Arity()
	}
	return 0
}

// Call implements Callable: instantiate c, chaining through `init` if
// one is defined.
func (c *Class) Call(interp *Interpreter, args []any) (any, error) {
	instance := NewInstance(c)
	if init := c.FindInit(); init != nil {
		if _, err := init.Bind(instance).Call(interp, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// String implements Callable.
func (c *Class) String() string {
	return "<class " + c.name + ">"
}

// Get resolves a static member access on the class itself: a plain
// class field takes precedence; otherwise the static tables of c and
// then of each superclass are searched, a static getter being
// evaluated immediately and a static method bound to the class.
func (c *Class) Get(interp *Interpreter, name token.Token) (any, error) {
	if value, ok := c.fields[name.Lexeme]; ok {
		return value, nil
	}
	for k := c; k != nil; k = k.superclass {
		if getter, ok := k.staticGetters[name.Lexeme]; ok {
			return getter.Bind(c).Call(interp, nil)
		}
		if method, ok := k.staticMethods[name.Lexeme]; ok {
			return method.Bind(c), nil
		}
	}
	return nil, wisperrors.NewRuntimeError(&name, wisperrors.ErrUndefinedProperty(name.Lexeme))
}

// Set assigns a static field on the class.
func (c *Class) Set(name token.Token, value any) {
	c.fields[name.Lexeme] = value
}

// Instance is a runtime object created by calling a Class.
type Instance struct {
	class  *Class
	fields map[string]any
}

// NewInstance creates a bare instance of class with no fields set.
func NewInstance(class *Class) *Instance {
	return &Instance{class: class, fields: make(map[string]any)}
}

// Get resolves a property access: an instance field takes precedence
// over a getter, which takes precedence over a plain method, matching
// the order a reader would expect to shadow behavior with state.
func (i *Instance) Get(interp *Interpreter, name token.Token) (any, error) {
	if value, ok := i.fields[name.Lexeme]; ok {
		return value, nil
	}
	if getter := i.class.FindGetter(name.Lexeme); getter != nil {
		return getter.Bind(i).Call(interp, nil)
	}
	if method := i.class.FindMethod(name.Lexeme); method != nil {
		return method.Bind(i), nil
	}
	return nil, wisperrors.NewRuntimeError(&name, wisperrors.ErrUndefinedProperty(name.Lexeme))
}

// Set assigns an instance field, creating it if it doesn't exist yet.
func (i *Instance) Set(name token.Token, value any) {
	i.fields[name.Lexeme] = value
}

// String implements fmt.Stringer.
func (i *Instance) String() string {
	return "<" + i.class.name + " instance>"
}

var _ Callable = (*Class)(nil)
