package primitives

import "fmt"

// Registry resolves (name, impl) pairs to concrete cipher/MAC providers.
// "impl" selects between alternative implementations of the same algorithm
// (e.g. hardware-accelerated vs. portable); this module ships only the
// portable Go implementations, so every primitive registers under impl
// "generic".
type Registry struct {
	ciphers map[string]map[string]Cipher
	macs    map[string]map[string]Mac
}

// NewRegistry builds the registry with every primitive this module ships.
func NewRegistry() *Registry {
	r := &Registry{
		ciphers: make(map[string]map[string]Cipher),
		macs:    make(map[string]map[string]Mac),
	}
	r.RegisterCipher("generic", NullCipher{})
	r.RegisterCipher("generic", AES128CTR{})
	r.RegisterCipher("generic", Salsa20{})
	r.RegisterMac("generic", GHash{})
	r.RegisterMac("generic", HMACSHA256{})
	return r
}

func (r *Registry) RegisterCipher(impl string, c Cipher) {
	m, ok := r.ciphers[c.Name()]
	if !ok {
		m = make(map[string]Cipher)
		r.ciphers[c.Name()] = m
	}
	m[impl] = c
}

func (r *Registry) RegisterMac(impl string, m Mac) {
	mm, ok := r.macs[m.Name()]
	if !ok {
		mm = make(map[string]Mac)
		r.macs[m.Name()] = mm
	}
	mm[impl] = m
}

// ErrPrimitiveNotFound is a fatal config error per §4.A: requesting an
// impl that isn't present must not silently fall back.
type ErrPrimitiveNotFound struct {
	Kind, Name, Impl string
}

func (e *ErrPrimitiveNotFound) Error() string {
	return fmt.Sprintf("primitives: no %s implementation %q for %q", e.Kind, e.Impl, e.Name)
}

// Cipher resolves a cipher by name, preferring the requested impl if given
// ("" selects the only registered impl; if there is more than one it
// selects "generic", and errors if no "generic" impl is registered).
func (r *Registry) Cipher(name, impl string) (Cipher, error) {
	impls, ok := r.ciphers[name]
	if !ok {
		return nil, &ErrPrimitiveNotFound{Kind: "cipher", Name: name, Impl: impl}
	}
	return resolveImpl(impls, name, impl, "cipher")
}

func (r *Registry) Mac(name, impl string) (Mac, error) {
	impls, ok := r.macs[name]
	if !ok {
		return nil, &ErrPrimitiveNotFound{Kind: "mac", Name: name, Impl: impl}
	}
	return resolveMacImpl(impls, name, impl)
}

func resolveImpl(impls map[string]Cipher, name, impl, kind string) (Cipher, error) {
	if impl != "" {
		c, ok := impls[impl]
		if !ok {
			return nil, &ErrPrimitiveNotFound{Kind: kind, Name: name, Impl: impl}
		}
		return c, nil
	}
	if len(impls) == 1 {
		for _, c := range impls {
			return c, nil
		}
	}
	if c, ok := impls["generic"]; ok {
		return c, nil
	}
	return nil, &ErrPrimitiveNotFound{Kind: kind, Name: name, Impl: "(unspecified)"}
}

func resolveMacImpl(impls map[string]Mac, name, impl string) (Mac, error) {
	if impl != "" {
		m, ok := impls[impl]
		if !ok {
			return nil, &ErrPrimitiveNotFound{Kind: "mac", Name: name, Impl: impl}
		}
		return m, nil
	}
	if len(impls) == 1 {
		for _, m := range impls {
			return m, nil
		}
	}
	if m, ok := impls["generic"]; ok {
		return m, nil
	}
	return nil, &ErrPrimitiveNotFound{Kind: "mac", Name: name, Impl: "(unspecified)"}
}
