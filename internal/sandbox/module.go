package sandbox

import (
	"fmt"

	"github.com/dop251/goja"
)

// ScriptModule is a CommonJS-style JavaScript file used as a require value.
// It is evaluated at most once per sandbox and its module.exports returned.
type ScriptModule struct {
	Script
}

// Materialize evaluates the module in s, reusing a previous evaluation.
func (m ScriptModule) Materialize(s *Sandbox) (goja.Value, error) {
	if v, ok := s.modules[m.Path]; ok {
		return v, nil
	}

	wrapped := "(function (module, exports, require) {" + m.Source + "\n})"
	fn, err := s.vm.RunScript(m.Path, wrapped)
	if err != nil {
		return nil, err
	}
	call, ok := goja.AssertFunction(fn)
	if !ok {
		return nil, fmt.Errorf("module %s did not compile to a function", m.Path)
	}

	module := s.vm.NewObject()
	exports := s.vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}
	if _, err := call(goja.Undefined(), module, exports, s.vm.Get("require")); err != nil {
		return nil, err
	}

	v := module.Get("exports")
	s.modules[m.Path] = v
	return v, nil
}

// ScriptCall calls the function exported by a ScriptModule with string
// arguments. Regex require handlers defined in JavaScript use it to receive
// the match and its groups.
type ScriptCall struct {
	Module ScriptModule
	Args   []string
}

// Materialize loads the module and invokes its export.
func (c ScriptCall) Materialize(s *Sandbox) (goja.Value, error) {
	exported, err := c.Module.Materialize(s)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(exported)
	if !ok {
		return nil, fmt.Errorf("module %s must export a function", c.Module.Path)
	}
	args := make([]goja.Value, len(c.Args))
	for i, a := range c.Args {
		args[i] = s.vm.ToValue(a)
	}
	return fn(goja.Undefined(), args...)
}
