package asteria

import "fmt"

// Config is a typed settings map, adapted from the teacher's own
// grammar/compiler configuration object: a path-keyed bag of
// bool/int/string values that panics on a type mismatch rather than
// silently coercing, since a mismatched setting is always a
// programmer error in the driver, never a runtime condition a script
// can trigger.
type Config map[string]*cfgVal

// NewConfig returns a Config primed with the core's own defaults,
// mirrored from Options (program.go) so a driver can expose every
// knob uniformly whether it came from a CLI flag or a config file.
func NewConfig() *Config {
	m := make(Config)
	m.SetInt("optimizer.level", 0)
	m.SetBool("debug.verbose_single_step_traps", false)
	m.SetInt("limits.max_argument_count", 64)
	m.SetInt("limits.max_recursion_depth", DefaultMaxRecursionDepth)
	m.SetInt("gc.threshold_newest", defaultThresholds[GenNewest])
	m.SetInt("gc.threshold_middle", defaultThresholds[GenMiddle])
	m.SetInt("gc.threshold_oldest", defaultThresholds[GenOldest])
	return &m
}

// ToOptions reads the knobs NewConfig seeds back out into an Options
// value, so a driver only has to touch Config and never Options
// directly.
func (c *Config) ToOptions() Options {
	return Options{
		OptimizationLevel:      c.GetInt("optimizer.level"),
		VerboseSingleStepTraps: c.GetBool("debug.verbose_single_step_traps"),
		MaxArgumentCount:       c.GetInt("limits.max_argument_count"),
		MaxRecursionDepth:      c.GetInt("limits.max_recursion_depth"),
	}
}

type cfgValType int

const (
	cfgValType_Undefined cfgValType = iota
	cfgValType_Bool
	cfgValType_Int
	cfgValType_String
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValType_Undefined: "undefined",
		cfgValType_Bool:      "bool",
		cfgValType_Int:       "int",
		cfgValType_String:    "string",
	}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValType_Undefined {
		panic(fmt.Sprintf("asteria: can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("asteria: can't retrieve `%s` from `%s` setting", vt, v.typ))
	}
}

func (c *Config) SetBool(path string, v bool) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_Bool)
	(*c)[path].asBool = v
}

func (c *Config) SetInt(path string, v int) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_Int)
	(*c)[path].asInt = v
}

func (c *Config) SetString(path string, v string) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_String)
	(*c)[path].asString = v
}

func (c *Config) GetBool(path string) bool {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Bool)
		return val.asBool
	}
	panic(fmt.Sprintf("asteria: bool setting `%s` does not exist", path))
}

func (c *Config) GetInt(path string) int {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Int)
		return val.asInt
	}
	panic(fmt.Sprintf("asteria: int setting `%s` does not exist", path))
}

func (c *Config) GetString(path string) string {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_String)
		return val.asString
	}
	panic(fmt.Sprintf("asteria: string setting `%s` does not exist", path))
}
