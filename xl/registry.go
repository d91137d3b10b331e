package xl

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Param declares one parameter of a formula function
type Param struct {
	Name     string
	Type     Type
	Required bool
	// Default fills an omitted optional parameter. nil leaves it Blank.
	Default Value
	// Variadic marks the final parameter as consuming every remaining
	// argument. Required on a variadic parameter means at least one.
	Variadic bool
}

// Required declares a parameter the caller must supply
func Required(name string, t Type) Param {
	return Param{Name: name, Type: t, Required: true}
}

// Optional declares a parameter that may be omitted, filled with def
func Optional(name string, t Type, def Value) Param {
	return Param{Name: name, Type: t, Default: def}
}

// Variadic declares a trailing parameter taking any number of arguments of
// element type t. scalars are coerced to t, ranges are passed through.
func Variadic(name string, t Type) Param {
	return Param{Name: name, Type: t, Variadic: true}
}

// AtLeastOne marks a variadic parameter as needing one or more arguments
func (p Param) AtLeastOne() Param {
	p.Required = true
	return p
}

// Impl is a formula implementation. it receives fully coerced arguments and
// returns a Value, a *Range or an Error. a non-nil Go error is reserved for
// contract violations (see Unsupported) and aborts the call.
type Impl func(ctx *Context, args Args) (Arg, error)

// FunctionSpec describes one registered formula function. it is immutable
// once the registry is built.
type FunctionSpec struct {
	Name   string
	Params []Param
	Impl   Impl
}

// fixed returns the non-variadic parameters
func (s *FunctionSpec) fixed() []Param {
	if n := len(s.Params); n > 0 && s.Params[n-1].Variadic {
		return s.Params[:n-1]
	}
	return s.Params
}

// VariadicParam returns the trailing variadic parameter, if any
func (s *FunctionSpec) VariadicParam() (Param, bool) {
	if n := len(s.Params); n > 0 && s.Params[n-1].Variadic {
		return s.Params[n-1], true
	}
	return Param{}, false
}

// MinArgs returns the number of arguments a call must supply
func (s *FunctionSpec) MinArgs() int {
	required := 0
	for _, p := range s.Params {
		if p.Required {
			required++
		}
	}
	return required
}

// MaxArgs returns the largest accepted argument count, or -1 when the
// function is variadic
func (s *FunctionSpec) MaxArgs() int {
	if _, ok := s.VariadicParam(); ok {
		return -1
	}
	return len(s.Params)
}

// Signature renders the spec as NAME(a, [b], c...)
func (s *FunctionSpec) Signature() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		name := strings.ToLower(p.Name)
		switch {
		case p.Variadic && p.Required:
			name += "..."
		case p.Variadic:
			name = "[" + name + "...]"
		case !p.Required:
			name = "[" + name + "]"
		}
		parts[i] = name
	}
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(parts, ", "))
}

// Option configures a Builder
type Option func(*options)

type options struct {
	mode   Compatibility
	locale Locale
	clock  Clock
	rand   RandomGenerator
	logger *zap.Logger
}

// WithCompatibility sets the compatibility mode handed to every leaf
func WithCompatibility(mode Compatibility) Option {
	return func(o *options) { o.mode = mode }
}

// WithLocale sets the locale used to read numeric text
func WithLocale(loc Locale) Option {
	return func(o *options) { o.locale = loc }
}

// WithClock replaces the wall clock, for tests of NOW/TODAY
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRandom replaces the random generator, for tests of RAND
func WithRandom(r RandomGenerator) Option {
	return func(o *options) { o.rand = r }
}

// WithLogger sets the logger for registration and invocation events
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Builder collects function registrations during initialization. Build
// freezes them into a Registry.
type Builder struct {
	opts    options
	coercer *Coercer
	specs   map[string]*FunctionSpec
	built   bool
}

// NewBuilder creates a builder with default options: Spreadsheet mode,
// en-US locale, wall clock and the package logger
func NewBuilder(opts ...Option) *Builder {
	o := options{
		mode:   Spreadsheet,
		locale: DefaultLocale(),
		clock:  &WallClock{},
		rand:   &DefaultRandomGenerator{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	return &Builder{
		opts:    o,
		coercer: NewCoercer(o.locale),
		specs:   make(map[string]*FunctionSpec),
	}
}

// Register adds a function. names are case-insensitive and may only be
// registered once.
func (b *Builder) Register(name string, params []Param, impl Impl) error {
	if b.built {
		return NewApplicationError(FailedPrecondition, ErrFrozen, "register %s", name)
	}
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		return NewApplicationError(InvalidArgument, ErrBadParams, "function name is empty")
	}
	if impl == nil {
		return NewApplicationError(InvalidArgument, ErrBadParams, "%s has no implementation", key)
	}
	if _, exists := b.specs[key]; exists {
		return NewApplicationError(AlreadyExists, ErrDuplicate, "%s", key)
	}
	if err := b.validateParams(key, params); err != nil {
		return err
	}

	b.specs[key] = &FunctionSpec{
		Name:   key,
		Params: append([]Param(nil), params...),
		Impl:   impl,
	}
	b.opts.logger.Debug("registered function",
		zap.String("function", key),
		zap.Int("params", len(params)))
	return nil
}

// MustRegister is Register for package initialization, where a bad
// registration is a programming error reported at startup
func (b *Builder) MustRegister(name string, params []Param, impl Impl) {
	if err := b.Register(name, params, impl); err != nil {
		panic(err)
	}
}

func (b *Builder) validateParams(name string, params []Param) error {
	seenOptional := false
	for i, p := range params {
		if p.Name == "" {
			return NewApplicationError(InvalidArgument, ErrBadParams, "%s: parameter %d has no name", name, i)
		}
		if p.Type >= numTypes {
			return NewApplicationError(InvalidArgument, ErrBadParams, "%s: parameter %s has unknown type", name, p.Name)
		}
		if p.Variadic {
			if i != len(params)-1 {
				return NewApplicationError(InvalidArgument, ErrBadParams, "%s: variadic parameter %s must be last", name, p.Name)
			}
			if p.Required && seenOptional {
				return NewApplicationError(InvalidArgument, ErrBadParams, "%s: required variadic %s follows optional parameters", name, p.Name)
			}
			continue
		}
		if !p.Required {
			seenOptional = true
			if p.Default != nil {
				if _, isErr := b.coercer.Coerce(p.Default, p.Type).(Error); isErr {
					return NewApplicationError(InvalidArgument, ErrBadParams, "%s: default of %s is not a valid %s", name, p.Name, p.Type)
				}
			}
			continue
		}
		if seenOptional {
			return NewApplicationError(InvalidArgument, ErrBadParams, "%s: required parameter %s follows optional parameters", name, p.Name)
		}
	}
	return nil
}

// Build freezes the registrations. the returned registry is read-only and
// safe for concurrent use.
func (b *Builder) Build() *Registry {
	b.built = true
	names := make([]string, 0, len(b.specs))
	for name := range b.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	b.opts.logger.Info("function registry built",
		zap.Int("functions", len(names)),
		zap.Stringer("compatibility", b.opts.mode),
		zap.String("locale", b.opts.locale.Tag.String()))
	return &Registry{
		specs:   b.specs,
		names:   names,
		opts:    b.opts,
		coercer: b.coercer,
	}
}

// Registry maps case-insensitive function names to their specs and invokes
// them with spreadsheet coercion and error propagation
type Registry struct {
	specs   map[string]*FunctionSpec
	names   []string
	opts    options
	coercer *Coercer
}

// Lookup finds a function by name, ignoring case
func (r *Registry) Lookup(name string) (*FunctionSpec, bool) {
	spec, ok := r.specs[strings.ToUpper(strings.TrimSpace(name))]
	return spec, ok
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Compatibility returns the mode leaves are invoked with
func (r *Registry) Compatibility() Compatibility {
	return r.opts.mode
}

// Coercer returns the coercer used for arguments
func (r *Registry) Coercer() *Coercer {
	return r.coercer
}

// Invoke calls a function with host-supplied arguments (see FromRaw). the
// result is a Value, a *Range or an Error value; the Go error is non-nil
// only when the implementation reports a contract violation.
func (r *Registry) Invoke(name string, raw ...any) (Arg, error) {
	spec, ok := r.Lookup(name)
	if !ok {
		return NameError("unknown function: %s", name), nil
	}
	return r.Call(spec, raw...)
}

// Call invokes an already resolved spec
func (r *Registry) Call(spec *FunctionSpec, raw ...any) (Arg, error) {
	fixed := spec.fixed()
	variadic, hasVariadic := spec.VariadicParam()

	if required := spec.MinArgs(); len(raw) < required {
		return NAError("%s requires at least %d arguments, got %d", spec.Name, required, len(raw)), nil
	}
	if !hasVariadic && len(raw) > len(fixed) {
		return NAError("%s accepts at most %d arguments, got %d", spec.Name, len(fixed), len(raw)), nil
	}

	args := Args{
		fixed:    make([]Arg, len(fixed)),
		supplied: make([]bool, len(fixed)),
	}
	for i, p := range fixed {
		switch {
		case i < len(raw):
			args.fixed[i] = r.coercer.Coerce(FromRaw(raw[i]), p.Type)
			args.supplied[i] = true
		case p.Default != nil:
			args.fixed[i] = r.coercer.Coerce(p.Default, p.Type)
		default:
			args.fixed[i] = Blank{}
		}
	}
	if hasVariadic && len(raw) > len(fixed) {
		args.rest = make([]Arg, 0, len(raw)-len(fixed))
		for _, x := range raw[len(fixed):] {
			args.rest = append(args.rest, r.coercer.CoerceElement(FromRaw(x), variadic.Type))
		}
	}

	// fixed parameters short-circuit on the first error, left to right.
	// range contents and the variadic tail are left to the implementation.
	for i, a := range args.fixed {
		if e, ok := a.(Error); ok {
			r.opts.logger.Debug("argument error short-circuits call",
				zap.String("function", spec.Name),
				zap.String("param", fixed[i].Name),
				zap.Stringer("error", e.Code))
			return e, nil
		}
	}

	ctx := &Context{
		Mode:   r.opts.mode,
		Locale: r.opts.locale,
		Clock:  r.opts.clock,
		Rand:   r.opts.rand,
		Logger: r.opts.logger,
		Name:   spec.Name,
	}
	result, err := spec.Impl(ctx, args)
	if err != nil {
		r.opts.logger.Warn("formula contract violation",
			zap.String("function", spec.Name),
			zap.Error(err))
		var appErr *AppError
		if !errors.As(err, &appErr) {
			err = NewApplicationError(Internal, err, "%s", spec.Name)
		}
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}
	return normalizeResult(result), nil
}

// normalizeResult maps results a cell cannot hold onto what a spreadsheet
// displays: nothing becomes blank, NaN and infinities become #NUM!
func normalizeResult(a Arg) Arg {
	switch v := a.(type) {
	case nil:
		return Blank{}
	case Number:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return NumError("result is not a finite number")
		}
	case *Range:
		if v == nil {
			return Blank{}
		}
	}
	return a
}
